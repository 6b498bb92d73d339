package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledgerlens/internal/core"
)

// GoogleConfig holds the spreadsheet target and credentials.
type GoogleConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
	BatchSize       int
}

// GoogleClient mirrors the ledger into one sheet of a Google spreadsheet.
type GoogleClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	batchSize     int
}

var _ Exporter = (*GoogleClient)(nil)

var header = []any{
	"Date", "Amount", "Category", "Subcategory", "Description",
	"Payee/Payer", "Account", "Row Id",
}

// NewGoogleClient builds a sheets client from service-account credentials.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.SheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	var credentials []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentials = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentials = data
	default:
		return nil, errors.New("missing mirror credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	return &GoogleClient{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		batchSize:     batchSize,
	}, nil
}

// Mirror clears the sheet and rewrites it from the snapshot, header first,
// in batches so a large ledger does not hit the per-request payload limit.
func (c *GoogleClient) Mirror(ctx context.Context, txs []core.Transaction) error {
	clearRange := fmt.Sprintf("%s!A:Z", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear mirror sheet: %w", err)
	}

	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, header)
	for _, t := range txs {
		rows = append(rows, []any{
			t.RawDate,
			core.FormatCents(t.AmountCents),
			t.Category,
			t.Subcategory,
			t.Description,
			t.PayeePayer,
			t.Account,
			t.RowID,
		})
	}

	for start := 0; start < len(rows); start += c.batchSize {
		end := start + c.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		writeRange := fmt.Sprintf("%s!A%d", c.sheetName, start+1)
		_, err := c.svc.Spreadsheets.Values.
			Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: rows[start:end]}).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write mirror rows %d-%d: %w", start+1, end, err)
		}
	}

	slog.InfoContext(ctx, "Ledger mirrored to spreadsheet",
		"rows", len(txs),
		"spreadsheet_id", c.spreadsheetID,
		"sheet", c.sheetName)
	return nil
}
