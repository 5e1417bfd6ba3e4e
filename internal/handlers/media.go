package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"mindwell/internal/store"
)

type MediaHandler struct {
	voiceNotes *store.VoiceNoteStore // nil when MinIO is not configured
}

func NewMediaHandler(voiceNotes *store.VoiceNoteStore) *MediaHandler {
	return &MediaHandler{voiceNotes: voiceNotes}
}

// UploadVoiceNote accepts a multipart "audio" file, stores it and returns the
// URL to attach to a mood entry's voiceNoteUrl field.
func (h *MediaHandler) UploadVoiceNote(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(uuid.UUID)

	if h.voiceNotes == nil {
		writeError(w, http.StatusInternalServerError, "Storage not configured")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.voiceNotes.Save(r.Context(), userID, file, header.Size, contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not store voice note")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
