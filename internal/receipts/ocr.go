package receipts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/auto-journal/internal/llm"
)

// OCREngine turns an image into text.
type OCREngine interface {
	Recognize(ctx context.Context, img Image, data []byte) (string, error)
}

// DefaultTesseractLangs reads Japanese receipts with English fallbacks for digits and store names.
const DefaultTesseractLangs = "jpn+eng"

// TesseractEngine shells out to the tesseract CLI, feeding the image on stdin.
type TesseractEngine struct {
	// Binary is the executable name or path. Empty means "tesseract" on PATH.
	Binary string
	// Langs is passed to -l.
	Langs string
}

// NewTesseractEngine creates an engine for the given languages.
func NewTesseractEngine(langs string) *TesseractEngine {
	if langs == "" {
		langs = DefaultTesseractLangs
	}
	return &TesseractEngine{Binary: "tesseract", Langs: langs}
}

// Recognize runs `tesseract stdin stdout -l <langs>`.
func (e *TesseractEngine) Recognize(ctx context.Context, img Image, data []byte) (string, error) {
	bin := e.Binary
	if bin == "" {
		bin = "tesseract"
	}

	cmd := exec.CommandContext(ctx, bin, "stdin", "stdout", "-l", e.Langs)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", img.Name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

const transcribePrompt = `This image is a shop receipt. Transcribe the text exactly as printed, top to bottom, one printed line per output line.
Do not translate, summarize or add commentary. Keep currency symbols such as ¥ and digits as printed.`

// GeminiEngine transcribes receipts with a Gemini vision model.
type GeminiEngine struct {
	models llm.ContentGenerator
	model  string
}

// NewGeminiEngine creates an engine over client.Models.
func NewGeminiEngine(models llm.ContentGenerator, model string) *GeminiEngine {
	return &GeminiEngine{models: models, model: model}
}

// Recognize sends the image inline with the transcription prompt.
func (e *GeminiEngine) Recognize(ctx context.Context, img Image, data []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: MIMEType(img.Name),
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("gemini ocr %s: %w", img.Name, err)
	}
	return llm.ResponseText(resp), nil
}
