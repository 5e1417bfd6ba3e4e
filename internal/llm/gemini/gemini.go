package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"mindwell/internal/llm"
)

const model = "gemini-2.5-pro"

const chatSystemInstruction = `You are a compassionate mental health support assistant. Your role is to:
- Provide empathetic, non-judgmental support
- Use CBT (Cognitive Behavioral Therapy) techniques when appropriate
- Keep responses concise (2-4 sentences)
- Validate feelings and emotions
- Suggest healthy coping strategies
- Encourage professional help when needed
- Never diagnose or prescribe medication
- Be warm, supportive, and understanding
- Ask follow-up questions to understand better
- Focus on the present moment and actionable steps`

const emotionPrompt = `Analyze the person's primary emotion from this image.
Return a strict JSON object with:
{
  "primaryEmotion": one of ["happy","sad","angry","surprised","neutral","fearful","disgusted"],
  "confidence": number between 0 and 1,
  "secondaryEmotions": [{ "label": string, "score": number }] (2-4 items),
  "suggestions": [ string, ... ] (2-4 short supportive coping suggestions)
}
Do not include any extra text besides the JSON.`

const questionnairePrompt = `You are a compassionate mental health assistant using CBT style.
Given the user's questionnaire responses and computed summary, produce a concise JSON report only.

Return strictly this JSON shape and nothing else:
{
  "mentalScoreOutOfTen": number (0-10, 1 decimal),
  "mentalStatus": one of ["low", "moderate", "high"],
  "personalizedSuggestion": string (2-4 short sentences, empathetic),
  "riskNote": string (optional, present only if low)
}

Guidance:
- Map the provided averageScore (1-5) and percentageScore to a 0-10 scale for mentalScoreOutOfTen.
- Use user's answers (e.g., stress/anxiety/sleep) to tailor the suggestion.
- Keep tone supportive, no diagnosis or medication advice.
`

type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	genClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Client{client: genClient}, nil
}

func safetySettings() []*genai.SafetySetting {
	threshold := genai.HarmBlockThresholdBlockMediumAndAbove
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: threshold},
		{Category: genai.HarmCategoryHateSpeech, Threshold: threshold},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: threshold},
		{Category: genai.HarmCategoryDangerousContent, Threshold: threshold},
	}
}

// candidateText pulls the first candidate's text out of a response.
func candidateText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from model")
	}
	return res.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatSystemInstruction, genai.RoleUser),
	}

	res, err := c.client.Models.GenerateContent(ctx, model, genai.Text(message), config)
	if err != nil {
		return "", err
	}
	return candidateText(res)
}

func (c *Client) AnalyzeEmotion(ctx context.Context, imageBase64 string) (json.RawMessage, error) {
	imageData, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var minConfidence float64 = 0
	var maxConfidence float64 = 1

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.4),
		MaxOutputTokens:  300,
		SafetySettings:   safetySettings(),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"primaryEmotion": {
					Type: genai.TypeString,
					Enum: llm.PrimaryEmotions,
				},
				"confidence": {
					Type:    genai.TypeNumber,
					Minimum: &minConfidence,
					Maximum: &maxConfidence,
				},
				"secondaryEmotions": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"label": {Type: genai.TypeString},
							"score": {Type: genai.TypeNumber},
						},
					},
				},
				"suggestions": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			PropertyOrdering: []string{"primaryEmotion", "confidence", "secondaryEmotions", "suggestions"},
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			{Text: emotionPrompt},
			{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: imageData}},
		}, genai.RoleUser),
	}

	res, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	text, err := candidateText(res)
	if err != nil {
		return nil, err
	}
	return llm.ParseEmotionReport(text)
}

func (c *Client) AnalyzeQuestionnaire(ctx context.Context, answers map[string]any, summary llm.QuestionnaireSummary) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{"answers": answers, "summary": summary})
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.5),
		MaxOutputTokens:  300,
		SafetySettings:   safetySettings(),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"mentalScoreOutOfTen":    {Type: genai.TypeNumber},
				"mentalStatus":           {Type: genai.TypeString, Enum: llm.MentalStatuses},
				"personalizedSuggestion": {Type: genai.TypeString},
				"riskNote":               {Type: genai.TypeString},
			},
			PropertyOrdering: []string{"mentalScoreOutOfTen", "mentalStatus", "personalizedSuggestion", "riskNote"},
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			{Text: questionnairePrompt},
			{Text: string(payload)},
		}, genai.RoleUser),
	}

	res, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	text, err := candidateText(res)
	if err != nil {
		return nil, err
	}
	return llm.ParseQuestionnaireReport(text)
}
