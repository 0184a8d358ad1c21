package statements

import (
	"github.com/dvloznov/auto-journal/internal/domain"
)

// Output table headers. The journal keeps the input column names.
var (
	JournalHeader   = []string{"日付", "取引内容", "金額", "勘定科目", "区分", "取得元"}
	StatementHeader = []string{"勘定科目", "金額"}
)

// JournalTable renders the merged, categorized rows.
func JournalTable(rows []domain.CategorizedRow) domain.Table {
	t := domain.Table{Header: JournalHeader, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Date,
			r.Description,
			r.Amount.String(),
			r.Category,
			string(r.Statement),
			string(r.Source),
		})
	}
	return t
}

// StatementTable renders one statement's lines.
func StatementTable(lines []domain.StatementLine) domain.Table {
	t := domain.Table{Header: StatementHeader, Rows: make([][]string, 0, len(lines))}
	for _, l := range lines {
		t.Rows = append(t.Rows, []string{l.Category, l.Total.String()})
	}
	return t
}
