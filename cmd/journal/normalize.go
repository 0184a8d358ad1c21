package main

import (
	"fmt"
	"io"

	"github.com/dvloznov/auto-journal/internal/categorizer"
)

// runNormalize prints each label argument next to its normalized category.
func runNormalize(w io.Writer, labels []string) {
	for _, raw := range labels {
		fmt.Fprintf(w, "%q → %s\n", raw, categorizer.Normalize(raw))
	}
}
