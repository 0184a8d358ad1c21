// Package sources reads transaction rows from the spreadsheet and the bank CSV export
// and maps them into domain.TransactionRow.
package sources

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/shopspring/decimal"
)

// Columns maps positional columns onto the common row shape.
type Columns struct {
	Date        int
	Description int
	Amount      int
}

// DefaultColumns is the date, description, amount layout used by both the sheet and the bank export.
var DefaultColumns = Columns{Date: 0, Description: 1, Amount: 2}

// RowError records a skipped input row. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// ReadResult is what every reader returns: the good rows in input order plus the rows it skipped.
type ReadResult struct {
	Rows    []domain.TransactionRow
	Skipped []RowError
}

// mapRow turns positional cells into a TransactionRow. The returned error wraps domain.ErrParse.
func mapRow(cells []string, cols Columns, source domain.Source) (domain.TransactionRow, error) {
	get := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	desc := get(cols.Description)
	if desc == "" {
		return domain.TransactionRow{}, fmt.Errorf("%w: empty description", domain.ErrParse)
	}

	amount, err := ParseAmount(get(cols.Amount))
	if err != nil {
		return domain.TransactionRow{}, err
	}

	return domain.TransactionRow{
		Date:        get(cols.Date),
		Description: desc,
		Amount:      amount,
		Source:      source,
	}, nil
}

// ParseAmount parses a money cell such as "1,200", "¥-500" or "△300".
// A leading △ or ▲ is the Japanese bookkeeping mark for a negative number.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	negative := false
	for _, mark := range []string{"△", "▲"} {
		if strings.HasPrefix(clean, mark) {
			negative = true
			clean = strings.TrimPrefix(clean, mark)
			break
		}
	}
	clean = strings.NewReplacer("¥", "", "￥", "", ",", "", "円", "").Replace(clean)
	clean = strings.TrimSpace(clean)

	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", domain.ErrParse)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", domain.ErrParse, s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// cellString renders a Sheets API cell value as text.
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
