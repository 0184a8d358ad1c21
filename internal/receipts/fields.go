package receipts

import (
	"strconv"
	"strings"
)

// Unknown fills a store or date the receipt text did not provide.
const Unknown = "unknown"

var currencyMarkers = []string{"¥", "￥"}

// Fields are the values pulled from one receipt's text.
type Fields struct {
	Store       string
	Date        string
	Amount      int64
	AmountFound bool
}

// ExtractFields applies the receipt heuristic: first non-blank line is the store, second
// is the date, and the first currency-marked line that parses as an integer is the amount.
func ExtractFields(text string) Fields {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	f := Fields{Store: Unknown, Date: Unknown}
	if len(lines) > 0 {
		f.Store = lines[0]
	}
	if len(lines) > 1 {
		f.Date = lines[1]
	}

	for _, l := range lines {
		if !hasCurrencyMarker(l) {
			continue
		}
		if n, ok := parseMarkedAmount(l); ok {
			f.Amount = n
			f.AmountFound = true
			break
		}
	}
	return f
}

func hasCurrencyMarker(line string) bool {
	for _, m := range currencyMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func parseMarkedAmount(line string) (int64, bool) {
	s := line
	for _, m := range currencyMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
