package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  *string   `db:"display_name" json:"displayName,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type Mood struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"userId"`
	Mood         int       `db:"mood" json:"mood"`
	Note         *string   `db:"note" json:"note,omitempty"` // Encrypted in DB when a note key is configured
	VoiceNoteURL *string   `db:"voice_note_url" json:"voiceNoteUrl,omitempty"`
	LoggedAt     time.Time `db:"logged_at" json:"loggedAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
