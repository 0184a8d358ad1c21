package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheetsAPI serves the handful of Sheets v4 endpoints the client touches.
type fakeSheetsAPI struct {
	mu          sync.Mutex
	spreadsheet string
	values      map[string][][]interface{} // sheet title -> values
	cleared     []string
	updates     map[string][][]interface{} // range -> values
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	id, rest, _ := strings.Cut(path, "/")
	if id != f.spreadsheet {
		writeAPIError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		resp := sheets.Spreadsheet{SpreadsheetId: id}
		for title := range f.values {
			resp.Sheets = append(resp.Sheets, &sheets.Sheet{Properties: &sheets.SheetProperties{Title: title}})
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasPrefix(rest, "values/") && strings.HasSuffix(rest, ":clear"):
		rng := strings.TrimSuffix(strings.TrimPrefix(rest, "values/"), ":clear")
		f.cleared = append(f.cleared, rng)
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{ClearedRange: rng})

	case strings.HasPrefix(rest, "values/") && r.Method == http.MethodPut:
		rng := strings.TrimPrefix(rest, "values/")
		body, _ := io.ReadAll(r.Body)
		var vr sheets.ValueRange
		_ = json.Unmarshal(body, &vr)
		f.updates[rng] = vr.Values
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{UpdatedRows: int64(len(vr.Values))})

	case strings.HasPrefix(rest, "values/") && r.Method == http.MethodGet:
		title := strings.Trim(strings.TrimPrefix(rest, "values/"), "'")
		vals, ok := f.values[title]
		if !ok {
			writeAPIError(w, http.StatusBadRequest, "Unable to parse range: "+title)
			return
		}
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Range: title, Values: vals})

	default:
		writeAPIError(w, http.StatusNotImplemented, "unexpected "+r.Method+" "+r.URL.Path)
	}
}

func writeAPIError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{"code": code, "message": msg},
	})
}

func newTestClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewClientWithService(svc)
}

func newFakeAPI() *fakeSheetsAPI {
	return &fakeSheetsAPI{
		spreadsheet: "book-1",
		values: map[string][][]interface{}{
			"Transactions": {
				{"日付", "取引内容", "金額"},
				{"2024-01-05", "売上入金", 12000.0},
			},
			"Journal": nil,
		},
		updates: map[string][][]interface{}{},
	}
}

func TestClient_ReadValues(t *testing.T) {
	client := newTestClient(t, newFakeAPI())

	got, err := client.ReadValues(context.Background(), "book-1", "Transactions")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "取引内容", got[0][1])
	assert.Equal(t, 12000.0, got[1][2])
}

func TestClient_ReadValues_Missing(t *testing.T) {
	client := newTestClient(t, newFakeAPI())

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := client.ReadValues(context.Background(), "book-1", "Nope")
		assert.True(t, errors.Is(err, domain.ErrSourceUnavailable), "got %v", err)
	})

	t.Run("unknown spreadsheet", func(t *testing.T) {
		_, err := client.ReadValues(context.Background(), "book-404", "Transactions")
		assert.True(t, errors.Is(err, domain.ErrSourceUnavailable), "got %v", err)
	})
}

func TestClient_WriteTable(t *testing.T) {
	api := newFakeAPI()
	client := newTestClient(t, api)

	table := domain.Table{
		Header: []string{"Category", "Total"},
		Rows:   [][]string{{"現金", "500"}},
	}

	n, err := client.WriteTable(context.Background(), "book-1", "Journal", "A1", table)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "data rows only, header excluded")

	assert.Equal(t, []string{"'Journal'"}, api.cleared)
	assert.Equal(t, [][]interface{}{{"Category", "Total"}, {"現金", "500"}}, api.updates["'Journal'!A1"])
}

func TestClient_WriteTable_SheetMissing(t *testing.T) {
	api := newFakeAPI()
	client := newTestClient(t, api)

	_, err := client.WriteTable(context.Background(), "book-1", "ProfitLoss", "A1", domain.Table{Header: []string{"x"}})

	assert.True(t, errors.Is(err, domain.ErrSinkUnavailable), "got %v", err)
	assert.Empty(t, api.cleared, "must not touch other sheets")
	assert.Empty(t, api.updates)
}

func TestClient_CheckSheets(t *testing.T) {
	client := newTestClient(t, newFakeAPI())

	t.Run("all present", func(t *testing.T) {
		assert.NoError(t, client.CheckSheets(context.Background(), "book-1", "Journal", "Transactions"))
	})

	t.Run("some missing", func(t *testing.T) {
		err := client.CheckSheets(context.Background(), "book-1", "Journal", "BalanceSheet", "ProfitLoss")
		assert.ErrorIs(t, err, domain.ErrSinkUnavailable)
		assert.ErrorContains(t, err, `"BalanceSheet", "ProfitLoss"`)
	})

	t.Run("unknown spreadsheet", func(t *testing.T) {
		err := client.CheckSheets(context.Background(), "book-404", "Journal")
		assert.ErrorIs(t, err, domain.ErrSinkUnavailable)
	})
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Sheet1'", quoteSheet("Sheet1"))
	assert.Equal(t, "'Bob''s Book'", quoteSheet("Bob's Book"))
}
