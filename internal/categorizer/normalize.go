package categorizer

import (
	"strings"

	"github.com/dvloznov/auto-journal/internal/domain"
)

var labelPrefixes = []string{"勘定科目:", "勘定科目："}

// Disjunction markers: the model sometimes offers alternatives ("現金または預金").
var disjunctions = []string{"または", "、", ","}

// Normalize reduces a raw model answer to a single category label. An answer with no
// usable label becomes domain.Unclassified. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	for stripped := true; stripped; {
		stripped = false
		for _, p := range labelPrefixes {
			if strings.HasPrefix(s, p) {
				s = strings.TrimSpace(strings.TrimPrefix(s, p))
				stripped = true
			}
		}
	}

	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}

	cut := len(s)
	for _, d := range disjunctions {
		if i := strings.Index(s, d); i >= 0 && i < cut {
			cut = i
		}
	}
	s = strings.TrimSpace(s[:cut])

	if s == "" {
		return domain.Unclassified
	}
	return s
}
