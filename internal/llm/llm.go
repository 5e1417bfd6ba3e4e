package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Client is the upstream generative-model surface the handlers depend on.
// Each call is a single stateless request; no history is kept between calls.
type Client interface {
	Chat(ctx context.Context, message string) (string, error)
	AnalyzeEmotion(ctx context.Context, imageBase64 string) (json.RawMessage, error)
	AnalyzeQuestionnaire(ctx context.Context, answers map[string]any, summary QuestionnaireSummary) (json.RawMessage, error)
}

type QuestionnaireSummary struct {
	TotalScore       float64 `json:"totalScore"`
	MaxPossibleScore float64 `json:"maxPossibleScore"`
	AverageScore     float64 `json:"averageScore"`
	PercentageScore  float64 `json:"percentageScore"`
}

type SecondaryEmotion struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type EmotionReport struct {
	PrimaryEmotion    string             `json:"primaryEmotion"`
	Confidence        float64            `json:"confidence"`
	SecondaryEmotions []SecondaryEmotion `json:"secondaryEmotions"`
	Suggestions       []string           `json:"suggestions"`
}

type QuestionnaireReport struct {
	MentalScoreOutOfTen    float64 `json:"mentalScoreOutOfTen"`
	MentalStatus           string  `json:"mentalStatus"`
	PersonalizedSuggestion string  `json:"personalizedSuggestion"`
	RiskNote               string  `json:"riskNote,omitempty"`
}

// PrimaryEmotions is the closed set the model is asked to choose from.
var PrimaryEmotions = []string{"happy", "sad", "angry", "surprised", "neutral", "fearful", "disgusted"}

// MentalStatuses is the closed set for the questionnaire report status.
var MentalStatuses = []string{"low", "moderate", "high"}

// InvalidJSONError reports that the model returned text that does not parse
// into the expected report shape. Raw carries the model output for diagnostics.
type InvalidJSONError struct {
	Raw string
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("model did not return valid JSON: %.80q", e.Raw)
}

// ParseEmotionReport validates model output against the emotion report shape
// and returns the original bytes so the caller can forward them unchanged.
func ParseEmotionReport(text string) (json.RawMessage, error) {
	var report EmotionReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, &InvalidJSONError{Raw: text}
	}
	return json.RawMessage(text), nil
}

// ParseQuestionnaireReport validates model output against the questionnaire
// report shape and returns the original bytes unchanged.
func ParseQuestionnaireReport(text string) (json.RawMessage, error) {
	var report QuestionnaireReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, &InvalidJSONError{Raw: text}
	}
	return json.RawMessage(text), nil
}

// IsQuotaError reports whether an upstream failure looks like rate limiting,
// so the chat fallback can point at crisis resources instead of retry advice.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
