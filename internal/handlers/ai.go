package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"mindwell/internal/llm"
)

const (
	maxChatMessageLength = 2000
	minImageBase64Length = 100
)

// Pre-written replies for when the model is unreachable. The chat surface
// must never look broken to someone mid-conversation.
const (
	chatFallback = "I'm here to support you. I'm having trouble connecting right now, but I want you to know that your feelings are valid and important. Can you tell me more about what's on your mind?"

	chatQuotaFallback = "I'm experiencing high demand right now. While I work on that, please know that your wellbeing matters. If you're in crisis, please reach out to a crisis helpline: 988 (US) or your local emergency services."
)

type AIHandler struct {
	client llm.Client // nil when GEMINI_API_KEY is not set
	logger *zap.Logger
}

func NewAIHandler(client llm.Client, logger *zap.Logger) *AIHandler {
	return &AIHandler{client: client, logger: logger}
}

func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if n := utf8.RuneCountInString(body.Message); n < 1 || n > maxChatMessageLength {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if h.client == nil {
		writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	}

	reply, err := h.client.Chat(r.Context(), body.Message)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			h.logger.Warn("chat upstream failed", zap.Error(err))
		}
		fallback := chatFallback
		if llm.IsQuotaError(err) {
			fallback = chatQuotaFallback
		}
		writeJSON(w, http.StatusOK, map[string]string{"reply": fallback})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": strings.TrimSpace(reply)})
}

func (h *AIHandler) Emotion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Image string `json:"image"` // base64, no data URL prefix
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Image) < minImageBase64Length {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if h.client == nil {
		writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	}

	report, err := h.client.AnalyzeEmotion(r.Context(), body.Image)
	if err != nil {
		h.respondUpstreamError(w, err, "Emotion analysis failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(report)
}

func (h *AIHandler) Questionnaire(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Answers map[string]any            `json:"answers"`
		Summary *llm.QuestionnaireSummary `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Answers == nil || body.Summary == nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if h.client == nil {
		writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	}

	report, err := h.client.AnalyzeQuestionnaire(r.Context(), body.Answers, *body.Summary)
	if err != nil {
		h.respondUpstreamError(w, err, "Questionnaire analysis failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(report)
}

// respondUpstreamError maps model failures to 502: non-JSON output carries the
// raw text back for diagnostics, anything else gets a generic message.
func (h *AIHandler) respondUpstreamError(w http.ResponseWriter, err error, fallbackMessage string) {
	h.logger.Warn("model upstream failed", zap.Error(err))

	var invalidJSON *llm.InvalidJSONError
	if errors.As(err, &invalidJSON) {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"message": "Model did not return valid JSON",
			"raw":     invalidJSON.Raw,
		})
		return
	}
	writeError(w, http.StatusBadGateway, fallbackMessage)
}
