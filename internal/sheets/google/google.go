// Package google stores key-value entries in a Google Sheets tab: the key in
// column A and the value in column B, one entry per row.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/kv"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Google Sheets caps a single cell at 50,000 characters.
const maxCellChars = 50000

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ kv.Store = (*Client)(nil)

// Options configures New. CredentialsJSON wins over CredentialsFile; when
// both are empty GOOGLE_APPLICATION_CREDENTIALS is used.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets-backed store using service account credentials.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Storage"
	}

	credentialsJSON, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Get implements kv.Store
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	rows, err := c.readRows(ctx)
	if err != nil {
		return "", false, err
	}
	row := findKeyRow(rows, key)
	if row < 0 {
		return "", false, nil
	}
	return cellString(rows[row], 1), true, nil
}

// Set implements kv.Store
func (c *Client) Set(ctx context.Context, key, value string) error {
	if len(value) > maxCellChars {
		return fmt.Errorf("value for %q is %d characters, sheets cells hold at most %d", key, len(value), maxCellChars)
	}
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{{key, value}}}
	if row := findKeyRow(rows, key); row >= 0 {
		rng := fmt.Sprintf("%s!A%d:B%d", c.sheetName, row+1, row+1)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("update %q: %w", key, err)
		}
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.sheetName+"!A:B", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %q: %w", key, err)
	}
	return nil
}

func (c *Client) readRows(ctx context.Context) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:B").
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.sheetName, err)
	}
	return resp.Values, nil
}

// findKeyRow returns the zero-based row whose first cell equals key, or -1.
func findKeyRow(rows [][]interface{}, key string) int {
	for i, row := range rows {
		if cellString(row, 0) == key {
			return i
		}
	}
	return -1
}

func cellString(row []interface{}, col int) string {
	if col >= len(row) || row[col] == nil {
		return ""
	}
	if s, ok := row[col].(string); ok {
		return s
	}
	return fmt.Sprint(row[col])
}
