package receipts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/auto-journal/internal/domain"
)

func TestExtractFields(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Fields
	}{
		{
			name: "store date amount",
			text: "CafeX\n2024-01-01\n¥500",
			want: Fields{Store: "CafeX", Date: "2024-01-01", Amount: 500, AmountFound: true},
		},
		{
			name: "no amount line",
			text: "StoreY\n2024-01-02\nno amount line",
			want: Fields{Store: "StoreY", Date: "2024-01-02", Amount: 0},
		},
		{
			name: "full width marker and commas",
			text: "コンビニ\n2024/03/05\n￥1,280",
			want: Fields{Store: "コンビニ", Date: "2024/03/05", Amount: 1280, AmountFound: true},
		},
		{
			name: "non numeric marker line skipped",
			text: "Shop\n2024-01-03\n合計 ¥ 300\n¥ 300",
			want: Fields{Store: "Shop", Date: "2024-01-03", Amount: 300, AmountFound: true},
		},
		{
			name: "first numeric marker line wins",
			text: "Shop\n2024-01-03\n¥100\n¥200",
			want: Fields{Store: "Shop", Date: "2024-01-03", Amount: 100, AmountFound: true},
		},
		{
			name: "blank lines and padding dropped",
			text: "\n  Bakery  \n\n 2024-02-02 \n   ¥ 450  \n",
			want: Fields{Store: "Bakery", Date: "2024-02-02", Amount: 450, AmountFound: true},
		},
		{
			name: "single line",
			text: "OnlyStore",
			want: Fields{Store: "OnlyStore", Date: Unknown},
		},
		{
			name: "empty text",
			text: "",
			want: Fields{Store: Unknown, Date: Unknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFields(tt.text))
		})
	}
}

func TestRowFromFields(t *testing.T) {
	row := RowFromFields(Fields{Store: "CafeX", Date: "2024-01-01", Amount: 500, AmountFound: true})

	assert.Equal(t, "2024-01-01", row.Date)
	assert.Equal(t, "payment at CafeX", row.Description)
	assert.True(t, decimal.NewFromInt(500).Equal(row.Amount))
	assert.Equal(t, domain.SourceReceipt, row.Source)
}
