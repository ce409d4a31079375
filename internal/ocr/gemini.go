package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiEngine is an Engine backed by Gemini vision. The model is asked to
// behave as an OCR pass and return every visible text fragment with its
// bounding box and a confidence estimate.
type GeminiEngine struct {
	model  string
	client *genai.Client
}

// NewGeminiEngine creates a GeminiEngine for the given model name. The API key
// is taken from the environment (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewGeminiEngine(ctx context.Context, model string) (*GeminiEngine, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiEngine: create genai client: %w", err)
	}
	return &GeminiEngine{model: model, client: client}, nil
}

const tokenPrompt = "You are an OCR engine for mobile-app screenshots.\n\n" +
	"Task:\n" +
	"- Detect EVERY visible text fragment in the attached screenshot.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"text\": string, the fragment exactly as printed\n" +
	"- \"x\": number, horizontal center of the fragment in pixels\n" +
	"- \"y\": number, vertical center of the fragment in pixels\n" +
	"- \"width\": number, bounding box width in pixels\n" +
	"- \"height\": number, bounding box height in pixels\n" +
	"- \"confidence\": number between 0 and 1\n\n" +
	"Rules:\n" +
	"- One object per visually separate fragment; do not merge columns.\n" +
	"- Keep fragments in arbitrary order; the caller does its own layout.\n" +
	"- Do NOT interpret, translate, or normalize the text.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// RecognizeTokens sends the screenshot to Gemini and decodes the returned
// token array.
func (e *GeminiEngine) RecognizeTokens(ctx context.Context, image []byte, mimeType string) ([]Token, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: tokenPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("RecognizeTokens: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("RecognizeTokens: empty response from model")
	}

	return DecodeTokens(rawText)
}

// DecodeTokens parses the model's JSON token array, stripping Markdown fences
// and surrounding junk if the model ignored the formatting instructions.
func DecodeTokens(raw string) ([]Token, error) {
	clean := cleanModelJSON(raw)

	var tokens []Token
	if err := json.Unmarshal([]byte(clean), &tokens); err != nil {
		return nil, fmt.Errorf("DecodeTokens: unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	out := tokens[:0]
	for _, t := range tokens {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON array,
	// try to keep only from the first '[' to the last ']'.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = s[start : end+1]
			s = strings.TrimSpace(s)
		}
	}

	return s
}
