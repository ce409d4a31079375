package ocr

import "context"

// Token is one recognized text fragment with its position on the screenshot.
// Coordinates are pixels; X and Y are the center of the bounding box.
type Token struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Left returns the X coordinate of the token's left edge.
func (t Token) Left() float64 {
	return t.X - t.Width/2
}

// Right returns the X coordinate of the token's right edge.
func (t Token) Right() float64 {
	return t.X + t.Width/2
}

// Engine recognizes text tokens on a screenshot. Implementations make no
// ordering guarantee and may return an empty set for an unreadable image.
// This interface enables mocking and testing of the recognition step.
type Engine interface {
	// RecognizeTokens runs recognition on the given image bytes.
	RecognizeTokens(ctx context.Context, image []byte, mimeType string) ([]Token, error)
}
