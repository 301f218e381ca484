package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"kakeibo/internal/core"
	"kakeibo/internal/report"
	ports "kakeibo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes each report into its own tab of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	roster        core.Roster

	mu   sync.Mutex
	tabs map[string]bool // known tab titles, loaded lazily
}

// Ensure interface conformance
var _ ports.ReportExporter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID and one of GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, roster core.Roster) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentials, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	svc, err := newSheetsService(ctx, credentials)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, roster: roster}, nil
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, credentialsJSON []byte) (*gsheet.Service, error) {
	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithUserAgent("kakeibo"))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportReport replaces the content of the report's tab, creating the tab
// on first use.
func (c *Client) ExportReport(ctx context.Context, r report.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	tab := ports.TabName(r, c.roster)
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := a1Range(tab, "A:Z")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	vr := &gsheet.ValueRange{Values: ports.Rows(r, c.roster)}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1Range(tab, "A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write tab %s: %w", tab, err)
	}

	slog.InfoContext(ctx, "Exported report to Google Sheets",
		"tab", tab,
		"rows", len(vr.Values))
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tabs == nil {
		ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("list tabs: %w", err)
		}
		c.tabs = tabTitles(ss)
	}
	if c.tabs[tab] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		// someone else may have created it; reload on next call
		c.tabs = nil
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	c.tabs[tab] = true
	return nil
}

func tabTitles(ss *gsheet.Spreadsheet) map[string]bool {
	out := make(map[string]bool)
	if ss == nil {
		return out
	}
	for _, s := range ss.Sheets {
		if s != nil && s.Properties != nil {
			out[s.Properties.Title] = true
		}
	}
	return out
}

// a1Range quotes tab so names with spaces are accepted.
func a1Range(tab, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(tab, "'", "''"), cells)
}
