package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mindwell/internal/models"
)

type UserHandler struct {
	db *sqlx.DB
}

func NewUserHandler(db *sqlx.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetMe returns the current user's profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(uuid.UUID)

	var u models.User
	if err := h.db.Get(&u, `SELECT id, email, password_hash, display_name, created_at, updated_at FROM users WHERE id=$1`, userID); err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(u))
}

// UpdateMe updates provided fields on the current user's profile.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(uuid.UUID)

	var body struct {
		DisplayName *string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if body.DisplayName == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var u models.User
	err := h.db.QueryRowx(`UPDATE users SET display_name=$1, updated_at=NOW() WHERE id=$2
	                        RETURNING id, email, password_hash, display_name, created_at, updated_at`,
		*body.DisplayName, userID).StructScan(&u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not update profile")
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(u))
}
