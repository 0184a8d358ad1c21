// Package statements partitions categorized rows into a balance sheet and a profit/loss
// table and renders the output tables.
package statements

import (
	"github.com/shopspring/decimal"

	"github.com/dvloznov/auto-journal/internal/domain"
)

// BSAccounts are the balance-sheet line items, in presentation order.
var BSAccounts = []string{"現金", "預金", "売掛金", "買掛金", "固定資産"}

// PLAccounts are the profit/loss line items, in presentation order.
var PLAccounts = []string{"売上", "仕入", "給与手当", "消耗品費", "交際費", "旅費交通費", "水道光熱費", "電気料金"}

var membership = func() map[string]domain.Statement {
	m := make(map[string]domain.Statement, len(BSAccounts)+len(PLAccounts))
	for _, a := range BSAccounts {
		m[a] = domain.StatementBS
	}
	for _, a := range PLAccounts {
		m[a] = domain.StatementPL
	}
	return m
}()

// StatementOf returns the statement a category belongs to. Matching is exact.
func StatementOf(category string) domain.Statement {
	return membership[category]
}

// Result is the output of Build.
type Result struct {
	BS []domain.StatementLine
	PL []domain.StatementLine

	// Dropped counts rows whose category is in neither vocabulary.
	Dropped int
	// DroppedCategories lists those categories once each, in first-seen order.
	DroppedCategories []string
}

// Build sums amounts per category for each statement. Lines appear in the order their
// category is first seen in rows. Rows outside both vocabularies are counted in Dropped.
func Build(rows []domain.CategorizedRow) Result {
	var res Result
	bs := newAccumulator()
	pl := newAccumulator()
	seenDropped := map[string]bool{}

	for _, r := range rows {
		switch StatementOf(r.Category) {
		case domain.StatementBS:
			bs.add(r.Category, r.Amount)
		case domain.StatementPL:
			pl.add(r.Category, r.Amount)
		default:
			res.Dropped++
			if !seenDropped[r.Category] {
				seenDropped[r.Category] = true
				res.DroppedCategories = append(res.DroppedCategories, r.Category)
			}
		}
	}

	res.BS = bs.lines
	res.PL = pl.lines
	return res
}

type accumulator struct {
	index map[string]int
	lines []domain.StatementLine
}

func newAccumulator() *accumulator {
	return &accumulator{index: map[string]int{}, lines: []domain.StatementLine{}}
}

func (a *accumulator) add(category string, amount decimal.Decimal) {
	i, ok := a.index[category]
	if !ok {
		a.index[category] = len(a.lines)
		a.lines = append(a.lines, domain.StatementLine{Category: category, Total: amount})
		return
	}
	a.lines[i].Total = a.lines[i].Total.Add(amount)
}
