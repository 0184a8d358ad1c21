package pipeline

import "github.com/dvloznov/auto-journal/internal/domain"

// Merge concatenates the three sources in fixed order: sheet, bank, receipts.
// Rows are not deduplicated or sorted. The result never aliases an input.
func Merge(sheet, bank, receipts []domain.TransactionRow) []domain.TransactionRow {
	merged := make([]domain.TransactionRow, 0, len(sheet)+len(bank)+len(receipts))
	merged = append(merged, sheet...)
	merged = append(merged, bank...)
	merged = append(merged, receipts...)
	return merged
}
