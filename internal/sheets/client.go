// Package sheets wraps the Google Sheets API for the two operations the journal needs:
// reading every value of a worksheet and overwriting a worksheet from an anchor cell.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/dvloznov/auto-journal/internal/domain"
	"github.com/dvloznov/auto-journal/internal/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client is safe for concurrent use; build one per process and share it.
type Client struct {
	service *sheets.Service
}

// NewClient creates a Sheets client. With a service-account key file it authenticates
// as that account; otherwise Application Default Credentials are used.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption

	if credentialsFile != "" {
		jsonKey, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("NewClient: read service account key: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("NewClient: parse service account key: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx))))
	} else {
		opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewClient: create sheets service: %w", err)
	}
	return &Client{service: srv}, nil
}

// NewClientWithService wraps an already configured service (tests, custom endpoints).
func NewClientWithService(srv *sheets.Service) *Client {
	return &Client{service: srv}
}

// ReadValues returns every populated row of the named sheet. Numbers come back
// unformatted (float64), dates as their displayed text, everything else as string.
func (c *Client) ReadValues(ctx context.Context, spreadsheetID, sheet string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, quoteSheet(sheet)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("ReadValues: spreadsheet %s sheet %q: %w: %v", spreadsheetID, sheet, domain.ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("ReadValues: spreadsheet %s sheet %q: %w", spreadsheetID, sheet, err)
	}
	return resp.Values, nil
}

// WriteTable replaces the content of sheet with table, starting at anchor (e.g. "A1").
// The sheet must already exist; it is never created. Returns the number of data rows
// written, header excluded.
func (c *Client) WriteTable(ctx context.Context, spreadsheetID, sheet, anchor string, table domain.Table) (int, error) {
	log := logger.FromContext(ctx)

	if err := c.CheckSheets(ctx, spreadsheetID, sheet); err != nil {
		return 0, fmt.Errorf("WriteTable: %w", err)
	}

	if _, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, quoteSheet(sheet), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return 0, fmt.Errorf("WriteTable: clear sheet %q: %w", sheet, err)
	}

	values := table.Values()
	rangeStr := quoteSheet(sheet) + "!" + anchor
	if _, err := c.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do(); err != nil {
		return 0, fmt.Errorf("WriteTable: update %s: %w", rangeStr, err)
	}

	log.Debug().Str("sheet", sheet).Int("rows", len(table.Rows)).Msg("Wrote sheet")
	return len(table.Rows), nil
}

// CheckSheets verifies with a single request that every named sheet exists. Missing
// sheets (or a missing spreadsheet) return an error wrapping domain.ErrSinkUnavailable.
func (c *Client) CheckSheets(ctx context.Context, spreadsheetID string, names ...string) error {
	ss, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("CheckSheets: spreadsheet %s: %w: %v", spreadsheetID, domain.ErrSinkUnavailable, err)
		}
		return fmt.Errorf("CheckSheets: get spreadsheet %s: %w", spreadsheetID, err)
	}

	titles := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = true
		}
	}
	var missing []string
	for _, name := range names {
		if !titles[name] {
			missing = append(missing, strconv.Quote(name))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("CheckSheets: sheets %s in spreadsheet %s: %w", strings.Join(missing, ", "), spreadsheetID, domain.ErrSinkUnavailable)
	}
	return nil
}

// isMissing reports whether err means the spreadsheet or sheet cannot be reached.
// The API answers 400 "Unable to parse range" for a sheet name that does not exist.
func isMissing(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	switch gerr.Code {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
