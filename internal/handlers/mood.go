package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mindwell/internal/crypto"
	"mindwell/internal/models"
)

const (
	maxNoteLength  = 1000
	maxListEntries = 365
)

type MoodHandler struct {
	db     *sqlx.DB
	cipher *crypto.NoteCipher // nil when note encryption is not configured
}

func NewMoodHandler(db *sqlx.DB, cipher *crypto.NoteCipher) *MoodHandler {
	return &MoodHandler{db: db, cipher: cipher}
}

type moodRequest struct {
	Mood         *int    `json:"mood"`
	Note         *string `json:"note"`
	LoggedAt     *string `json:"loggedAt"` // RFC3339
	VoiceNoteURL *string `json:"voiceNoteUrl"`
}

func (h *MoodHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(uuid.UUID)

	moods := []models.Mood{}
	err := h.db.Select(&moods, `SELECT id, user_id, mood, note, voice_note_url, logged_at, created_at, updated_at
	                             FROM moods WHERE user_id=$1 ORDER BY logged_at DESC LIMIT $2`, userID, maxListEntries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not fetch moods")
		return
	}

	for i := range moods {
		if err := h.decryptNote(&moods[i]); err != nil {
			writeError(w, http.StatusInternalServerError, "Could not read note")
			return
		}
	}

	writeJSON(w, http.StatusOK, moods)
}

func (h *MoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(uuid.UUID)

	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Mood == nil || *req.Mood < 1 || *req.Mood > 5 {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Note != nil && len(*req.Note) > maxNoteLength {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	loggedAt := time.Now()
	if req.LoggedAt != nil {
		var err error
		loggedAt, err = time.Parse(time.RFC3339, *req.LoggedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input")
			return
		}
	}

	storedNote, err := h.encryptNotePtr(req.Note)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not store note")
		return
	}

	var mood models.Mood
	err = h.db.QueryRowx(`INSERT INTO moods (user_id, mood, note, voice_note_url, logged_at)
	                       VALUES ($1, $2, $3, $4, $5)
	                       RETURNING id, user_id, mood, note, voice_note_url, logged_at, created_at, updated_at`,
		userID, *req.Mood, storedNote, req.VoiceNoteURL, loggedAt).StructScan(&mood)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not save mood")
		return
	}

	mood.Note = req.Note
	writeJSON(w, http.StatusCreated, mood)
}

func (h *MoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(uuid.UUID)

	moodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	setClauses := []string{"updated_at=NOW()"}
	args := []interface{}{}
	argIdx := 1
	if req.Mood != nil {
		if *req.Mood < 1 || *req.Mood > 5 {
			writeError(w, http.StatusBadRequest, "Invalid input")
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("mood=$%d", argIdx))
		args = append(args, *req.Mood)
		argIdx++
	}
	if req.Note != nil {
		if len(*req.Note) > maxNoteLength {
			writeError(w, http.StatusBadRequest, "Invalid input")
			return
		}
		stored, err := h.encryptNotePtr(req.Note)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Could not store note")
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("note=$%d", argIdx))
		args = append(args, stored)
		argIdx++
	}
	if req.LoggedAt != nil {
		loggedAt, err := time.Parse(time.RFC3339, *req.LoggedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input")
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("logged_at=$%d", argIdx))
		args = append(args, loggedAt)
		argIdx++
	}
	if req.VoiceNoteURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("voice_note_url=$%d", argIdx))
		args = append(args, *req.VoiceNoteURL)
		argIdx++
	}

	query := fmt.Sprintf(`UPDATE moods SET %s WHERE id=$%d AND user_id=$%d
	                       RETURNING id, user_id, mood, note, voice_note_url, logged_at, created_at, updated_at`,
		join(setClauses, ", "), argIdx, argIdx+1)
	args = append(args, moodID, userID)

	var mood models.Mood
	err = h.db.QueryRowx(query, args...).StructScan(&mood)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not update mood")
		return
	}

	if err := h.decryptNote(&mood); err != nil {
		writeError(w, http.StatusInternalServerError, "Could not read note")
		return
	}
	writeJSON(w, http.StatusOK, mood)
}

func (h *MoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(uuid.UUID)

	moodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	res, err := h.db.Exec(`DELETE FROM moods WHERE id=$1 AND user_id=$2`, moodID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not delete mood")
		return
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *MoodHandler) encryptNotePtr(note *string) (*string, error) {
	if note == nil || h.cipher == nil {
		return note, nil
	}
	enc, err := h.cipher.Encrypt(*note)
	if err != nil {
		return nil, err
	}
	return &enc, nil
}

func (h *MoodHandler) decryptNote(m *models.Mood) error {
	if m.Note == nil || h.cipher == nil {
		return nil
	}
	plain, err := h.cipher.Decrypt(*m.Note)
	if err != nil {
		return err
	}
	m.Note = &plain
	return nil
}

func join(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
