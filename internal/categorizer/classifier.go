package categorizer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/auto-journal/internal/llm"
	"github.com/dvloznov/auto-journal/internal/statements"
)

// Classifier asks an external service for the accounting category of a description.
// It returns the raw answer; the Categorizer normalizes it.
type Classifier interface {
	Classify(ctx context.Context, description string) (string, error)
}

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

const basePrompt = "適切な勘定科目を記載してください。また、取引が収益（PLの売上など）に当たるのか、支出（費用や資産購入）に当たるのかを判断し、金額のプラス・マイナスを適切に入力してください。勘定科目には文字の揺れがないよう統一し、BS（貸借対照表）またはPL（損益計算書）のどちらに属するかも明記してください。"

// SystemInstruction is the fixed instruction sent with every classification request.
var SystemInstruction = basePrompt + "\n" +
	"BSの勘定科目: " + strings.Join(statements.BSAccounts, "、") + "\n" +
	"PLの勘定科目: " + strings.Join(statements.PLAccounts, "、") + "\n" +
	"回答の1行目には勘定科目名を1つだけ記載してください。"

// GeminiClassifier classifies with a Gemini model through the Gen AI SDK.
type GeminiClassifier struct {
	models llm.ContentGenerator
	model  string
}

// NewGeminiClassifier creates a classifier over client.Models. Empty model uses DefaultModel.
func NewGeminiClassifier(models llm.ContentGenerator, model string) *GeminiClassifier {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClassifier{models: models, model: model}
}

// Classify sends "取引内容: <description>" and returns the model text.
func (c *GeminiClassifier) Classify(ctx context.Context, description string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: "取引内容: " + description}},
		},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SystemInstruction}},
		},
		Temperature: genai.Ptr[float32](0),
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini classify: %w", err)
	}
	return llm.ResponseText(resp), nil
}
