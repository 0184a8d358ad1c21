package statements

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/auto-journal/internal/domain"
)

func row(category string, amount int64) domain.CategorizedRow {
	return domain.CategorizedRow{
		TransactionRow: domain.TransactionRow{
			Date:        "2024-01-01",
			Description: "tx",
			Amount:      decimal.NewFromInt(amount),
			Source:      domain.SourceSheet,
		},
		Category:  category,
		Statement: StatementOf(category),
	}
}

func assertLines(t *testing.T, want map[string]int64, order []string, got []domain.StatementLine) {
	t.Helper()
	require.Len(t, got, len(order))
	for i, cat := range order {
		assert.Equal(t, cat, got[i].Category)
		assert.True(t, decimal.NewFromInt(want[cat]).Equal(got[i].Total), "%s: got %s", cat, got[i].Total)
	}
}

func TestStatementOf(t *testing.T) {
	tests := []struct {
		category string
		want     domain.Statement
	}{
		{"現金", domain.StatementBS},
		{"固定資産", domain.StatementBS},
		{"売上", domain.StatementPL},
		{"電気料金", domain.StatementPL},
		{"雑費", domain.StatementNone},
		{domain.Unclassified, domain.StatementNone},
		{" 現金", domain.StatementNone},
		{"", domain.StatementNone},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, StatementOf(tt.category))
		})
	}
}

func TestVocabulariesAreDisjoint(t *testing.T) {
	bs := map[string]bool{}
	for _, a := range BSAccounts {
		bs[a] = true
	}
	for _, a := range PLAccounts {
		assert.False(t, bs[a], a)
	}
}

func TestBuild(t *testing.T) {
	rows := []domain.CategorizedRow{
		row("旅費交通費", -500),
		row("現金", 1000),
		row("売上", 3000),
		row("旅費交通費", -300),
		row("預金", 200),
		row("現金", -100),
	}

	res := Build(rows)

	assertLines(t, map[string]int64{"現金": 900, "預金": 200}, []string{"現金", "預金"}, res.BS)
	assertLines(t, map[string]int64{"旅費交通費": -800, "売上": 3000}, []string{"旅費交通費", "売上"}, res.PL)
	assert.Zero(t, res.Dropped)
	assert.Empty(t, res.DroppedCategories)
}

func TestBuild_DropsUnknownCategories(t *testing.T) {
	rows := []domain.CategorizedRow{
		row("雑費", -100),
		row("現金", 50),
		row(domain.Unclassified, 10),
		row("雑費", -20),
	}

	res := Build(rows)

	assertLines(t, map[string]int64{"現金": 50}, []string{"現金"}, res.BS)
	assert.Empty(t, res.PL)
	assert.Equal(t, 3, res.Dropped)
	assert.Equal(t, []string{"雑費", domain.Unclassified}, res.DroppedCategories)
}

func TestBuild_TotalsMatchIncludedRows(t *testing.T) {
	rows := []domain.CategorizedRow{
		row("売上", 100), row("仕入", -40), row("交際費", -7), row("不明", 999), row("買掛金", 15),
	}

	res := Build(rows)

	var included, total decimal.Decimal
	for _, r := range rows {
		if StatementOf(r.Category) != domain.StatementNone {
			included = included.Add(r.Amount)
		}
	}
	for _, l := range append(append([]domain.StatementLine{}, res.BS...), res.PL...) {
		total = total.Add(l.Total)
	}
	assert.True(t, included.Equal(total))
	// every category appears once, so lines plus drops account for every row
	assert.Equal(t, len(rows), len(res.BS)+len(res.PL)+res.Dropped)
}

func TestBuild_Empty(t *testing.T) {
	res := Build(nil)

	assert.NotNil(t, res.BS)
	assert.NotNil(t, res.PL)
	assert.Empty(t, res.BS)
	assert.Empty(t, res.PL)
	assert.Zero(t, res.Dropped)
}
