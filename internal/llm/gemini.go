// Package llm holds the shared Gemini client used for classification and receipt OCR.
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ContentGenerator is the part of genai.Models the journal uses. *genai.Models
// satisfies it; tests substitute a fake.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient creates a Gen AI client. Gemini API vs Vertex AI is selected by the
// standard environment variables:
//   - GOOGLE_API_KEY / GEMINI_API_KEY     -> Gemini Developer API
//   - GOOGLE_GENAI_USE_VERTEXAI=True      -> Vertex AI
//   - GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION
func NewClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{})
	if err != nil {
		return nil, fmt.Errorf("llm.NewClient: create genai client: %w", err)
	}
	return client, nil
}

// ResponseText returns the trimmed text of the first candidate, or "" when the
// model produced nothing usable.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return strings.TrimSpace(resp.Text())
}
