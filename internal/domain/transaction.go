package domain

import (
	"github.com/shopspring/decimal"
)

// Source identifies which input a transaction row was read from.
type Source string

const (
	SourceSheet   Source = "sheet"
	SourceBank    Source = "bank"
	SourceReceipt Source = "receipt"
)

// Statement is the financial statement a category belongs to.
type Statement string

const (
	StatementBS Statement = "BS"
	StatementPL Statement = "PL"
	// StatementNone marks a category outside both vocabularies.
	StatementNone Statement = ""
)

// Unclassified is the category given to rows the model could not label.
const Unclassified = "unclassified"

// TransactionRow is the common row shape produced by every source reader.
// Date is kept as the source text; receipts and sheets do not agree on a format.
type TransactionRow struct {
	Date        string
	Description string
	Amount      decimal.Decimal // income positive, expense negative when the source says so
	Source      Source
}

// CategorizedRow is a TransactionRow after classification.
type CategorizedRow struct {
	TransactionRow

	Category  string    // normalized label, or Unclassified
	Statement Statement // BS, PL or StatementNone

	RawResponse string // model answer before normalization
	Attempts    int    // classification requests made for this row
}

// StatementLine is one category total in a balance sheet or profit/loss table.
type StatementLine struct {
	Category string
	Total    decimal.Decimal
}
