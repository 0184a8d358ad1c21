package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/dvloznov/auto-journal/internal/config"
	"github.com/dvloznov/auto-journal/internal/llm"
	"github.com/dvloznov/auto-journal/internal/logger"
	"github.com/dvloznov/auto-journal/internal/receipts"
)

func runExtract(log zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	dir := fs.String("receipts", "", "Receipt folder: local directory or gs://bucket/prefix")
	ocr := fs.String("ocr", config.DefaultOCREngine, "OCR engine: tesseract or gemini")
	langs := fs.String("langs", config.DefaultTesseractLangs, "Tesseract languages")
	model := fs.String("model", config.DefaultModelName, "Gemini model for -ocr gemini")
	workers := fs.Int("workers", receipts.DefaultWorkers, "Concurrent OCR workers")
	fs.Parse(args)

	if *dir == "" {
		log.Fatal().Msg("Usage: journal extract -receipts DIR [-ocr tesseract|gemini]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Default().Timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	src, closeSource, err := newImageSource(ctx, *dir)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open receipt source")
		return exitFailure
	}
	defer closeSource()

	var engine receipts.OCREngine
	switch *ocr {
	case "tesseract":
		engine = receipts.NewTesseractEngine(*langs)
	case "gemini":
		client, err := llm.NewClient(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create Gen AI client")
			return exitFailure
		}
		engine = receipts.NewGeminiEngine(client.Models, *model)
	default:
		log.Error().Str("ocr", *ocr).Msg("Unknown OCR engine")
		return exitFailure
	}

	res, err := receipts.NewExtractor(src, engine, *workers).Extract(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		return exitFailure
	}

	printExtract(os.Stdout, res)
	if len(res.Failed) > 0 {
		return exitPartial
	}
	return exitOK
}

func printExtract(w io.Writer, res receipts.ExtractResult) {
	fmt.Fprintf(w, "\n=== Receipts (%d rows, %d failed) ===\n", len(res.Rows), len(res.Failed))
	for i, row := range res.Rows {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, row.Description)
		fmt.Fprintf(w, "   Date:   %s\n", row.Date)
		fmt.Fprintf(w, "   Amount: %s\n", row.Amount.String())
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "\nFAILED %s: %v\n", f.Image, f.Err)
	}
	fmt.Fprintln(w)
}
