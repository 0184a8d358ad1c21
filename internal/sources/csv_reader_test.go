package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func TestBankCSVReader_Read(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		wantRows    []domain.TransactionRow
		wantSkipped []int // line numbers
	}{
		{
			name: "valid rows keep file order",
			lines: []string{
				"日付,取引内容,金額",
				"2024-01-10,振込 カ)ヤマダ,120000",
				"2024-01-11,電気料金 口座振替,-8400",
			},
			wantRows: []domain.TransactionRow{
				{Date: "2024-01-10", Description: "振込 カ)ヤマダ", Amount: decimal.NewFromInt(120000), Source: domain.SourceBank},
				{Date: "2024-01-11", Description: "電気料金 口座振替", Amount: decimal.NewFromInt(-8400), Source: domain.SourceBank},
			},
		},
		{
			name: "quoted thousands separator",
			lines: []string{
				"date,description,amount",
				`2024-02-01,Office rent,"-1,250.50"`,
			},
			wantRows: []domain.TransactionRow{
				{Date: "2024-02-01", Description: "Office rent", Amount: decimal.RequireFromString("-1250.50"), Source: domain.SourceBank},
			},
		},
		{
			name: "malformed rows are skipped not fatal",
			lines: []string{
				"date,description,amount",
				"2024-03-01,Coffee beans,abc",
				"2024-03-02,,100",
				"2024-03-03,Only two",
				"2024-03-04,Stationery,-980",
			},
			wantRows: []domain.TransactionRow{
				{Date: "2024-03-04", Description: "Stationery", Amount: decimal.NewFromInt(-980), Source: domain.SourceBank},
			},
			wantSkipped: []int{2, 3, 4},
		},
		{
			name:  "header only",
			lines: []string{"date,description,amount"},
		},
		{
			name: "blank separator rows ignored",
			lines: []string{
				"date,description,amount",
				",,",
				"2024-04-01,Deposit,500",
			},
			wantRows: []domain.TransactionRow{
				{Date: "2024-04-01", Description: "Deposit", Amount: decimal.NewFromInt(500), Source: domain.SourceBank},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, []byte(strings.Join(tt.lines, "\n")))

			got, err := NewBankCSVReader(path, "utf-8").Read(context.Background())
			require.NoError(t, err)

			assertRows(t, tt.wantRows, got.Rows)
			var lines []int
			for _, s := range got.Skipped {
				assert.True(t, errors.Is(s, domain.ErrParse), "skip reason %v should be a parse error", s)
				lines = append(lines, s.Line)
			}
			assert.Equal(t, tt.wantSkipped, lines)
		})
	}
}

func TestBankCSVReader_ShiftJIS(t *testing.T) {
	content := "日付,取引内容,金額\n2024-05-01,水道料金,-3200\n"
	encoded, err := japanese.ShiftJIS.NewEncoder().String(content)
	require.NoError(t, err)
	path := writeTempFile(t, []byte(encoded))

	got, err := NewBankCSVReader(path, "shift_jis").Read(context.Background())
	require.NoError(t, err)

	require.Len(t, got.Rows, 1)
	assert.Equal(t, "水道料金", got.Rows[0].Description)
}

func TestBankCSVReader_UTF8BOM(t *testing.T) {
	path := writeTempFile(t, []byte("\xef\xbb\xbfdate,description,amount\n2024-05-02,Refund,10\n"))

	got, err := NewBankCSVReader(path, "utf-8").Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "2024-05-02", got.Rows[0].Date)
}

func TestBankCSVReader_FileErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := NewBankCSVReader(filepath.Join(t.TempDir(), "missing.csv"), "utf-8").Read(context.Background())
		assert.True(t, errors.Is(err, domain.ErrSourceUnavailable), "got %v", err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTempFile(t, nil)
		got, err := NewBankCSVReader(path, "utf-8").Read(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got.Rows)
	})

	t.Run("unsupported encoding", func(t *testing.T) {
		path := writeTempFile(t, []byte("a,b,c\n"))
		_, err := NewBankCSVReader(path, "euc-jp").Read(context.Background())
		assert.Error(t, err)
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"500", "500", false},
		{"¥1,200", "1200", false},
		{"￥ 980", "980", false},
		{"-3,000円", "-3000", false},
		{"△450", "-450", false},
		{"▲1,000", "-1000", false},
		{"12.5", "12.5", false},
		{"", "", true},
		{"no amount line", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrParse))
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

// Helper functions

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.csv")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func assertRows(t *testing.T, want, got []domain.TransactionRow) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Date, got[i].Date, "row %d date", i)
		assert.Equal(t, want[i].Description, got[i].Description, "row %d description", i)
		assert.True(t, want[i].Amount.Equal(got[i].Amount), "row %d amount: got %s want %s", i, got[i].Amount, want[i].Amount)
		assert.Equal(t, want[i].Source, got[i].Source, "row %d source", i)
	}
}
