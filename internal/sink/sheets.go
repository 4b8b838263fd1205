package sink

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/moona3k/website-to-voice-agent/internal/lead"
)

// SheetsRecorder appends one row per lead to a Google Sheets spreadsheet,
// with a separate worksheet per website so each configured business keeps its
// own ledger.
type SheetsRecorder struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheetsRecorder(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*SheetsRecorder, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id missing")
	}
	svc, err := sheets.NewService(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &SheetsRecorder{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Append writes the record to its website's worksheet, creating the worksheet
// with a header row on first use.
func (s *SheetsRecorder) Append(ctx context.Context, rec lead.Record) error {
	sheet := WorksheetName(rec.WebsiteURL)
	if err := s.appendRows(ctx, sheet, recordRow(rec)); err != nil {
		if !isMissingSheet(err) {
			return err
		}
		if cerr := s.createWorksheet(ctx, sheet); cerr != nil {
			return cerr
		}
		return s.appendRows(ctx, sheet, recordRow(rec))
	}
	return nil
}

func (s *SheetsRecorder) appendRows(ctx context.Context, sheet string, rows ...[]interface{}) error {
	vr := &sheets.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, fmt.Sprintf("'%s'!A1", sheet), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append to %q: %w", sheet, err)
	}
	return nil
}

func (s *SheetsRecorder) createWorksheet(ctx context.Context, sheet string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheet},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		// A concurrent call may have created it in the meantime.
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("sheets: create worksheet %q: %w", sheet, err)
		}
		return nil
	}
	log.Printf("sheets: created worksheet %q", sheet)
	return s.appendRows(ctx, sheet, headerRow)
}

// isMissingSheet recognizes the append failure Google returns when the range
// names a worksheet that does not exist yet.
func isMissingSheet(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Unable to parse range")
}
