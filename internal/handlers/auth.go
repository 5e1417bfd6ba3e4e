package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"mindwell/internal/models"
)

const tokenTTL = 7 * 24 * time.Hour

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthHandler struct {
	db        *sqlx.DB
	jwtSecret []byte
}

func NewAuthHandler(db *sqlx.DB, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{db: db, jwtSecret: jwtSecret}
}

type credentials struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"displayName"`
}

func (c *credentials) valid() bool {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	return emailPattern.MatchString(c.Email) && len(c.Password) >= 6
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || !c.valid() {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1)`, c.Email); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not hash password")
		return
	}

	var user models.User
	err = h.db.QueryRowx(`INSERT INTO users (email, password_hash, display_name) VALUES ($1, $2, $3)
	                       RETURNING id, email, password_hash, display_name, created_at, updated_at`,
		c.Email, string(hashed), c.DisplayName).StructScan(&user)
	if err != nil {
		// Unique constraint backstop for concurrent registrations.
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}

	h.respondWithToken(w, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || !c.valid() {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	err := h.db.Get(&user, `SELECT id, email, password_hash, display_name, created_at, updated_at FROM users WHERE email=$1`, c.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			// Same message as a wrong password so emails cannot be enumerated.
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondWithToken(w, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user models.User) {
	token, err := h.issueJWT(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  ToUserDTO(user),
	})
}

func (h *AuthHandler) issueJWT(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}
