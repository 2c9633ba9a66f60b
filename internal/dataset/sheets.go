package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SheetsScheme prefixes source identifiers that name a Google Sheets spreadsheet.
const SheetsScheme = "gsheets://"

// SheetsSource reads a sheet of a Google Sheets spreadsheet.
type SheetsSource struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// NewSheetsService creates a read-only Sheets client. With an empty
// credentialsFile, Application Default Credentials are used.
func NewSheetsService(ctx context.Context, credentialsFile string) (*gsheet.Service, error) {
	opts := []option.ClientOption{option.WithScopes(gsheet.SpreadsheetsReadonlyScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return svc, nil
}

// NewSheetsSource creates a source for one spreadsheet.
func NewSheetsSource(svc *gsheet.Service, spreadsheetID string) *SheetsSource {
	return &SheetsSource{svc: svc, spreadsheetID: spreadsheetID}
}

// ReadSheet fetches the whole sheet with unformatted values and serial-number dates,
// so that the cells match what ExcelSource returns.
func (s *SheetsSource) ReadSheet(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheet).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %q in spreadsheet %s: %v", ErrSheetNotFound, sheet, s.spreadsheetID, err)
		}
		return nil, fmt.Errorf("%w: spreadsheet %s: %v", ErrSourceUnreadable, s.spreadsheetID, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// NewResolver returns the default resolver: "gsheets://<id>" goes to Google
// Sheets through svc, anything else is a path to a local workbook.
func NewResolver(svc *gsheet.Service) Resolver {
	return func(ctx context.Context, id string) (Source, error) {
		if spreadsheetID, ok := strings.CutPrefix(id, SheetsScheme); ok {
			if svc == nil {
				return nil, fmt.Errorf("%w: google sheets access is not configured for %s", ErrSourceUnreadable, id)
			}
			if spreadsheetID == "" {
				return nil, fmt.Errorf("%w: empty spreadsheet id", ErrSourceUnreadable)
			}
			return NewSheetsSource(svc, spreadsheetID), nil
		}
		return NewExcelSource(id), nil
	}
}

// StaticResolver always returns src, whatever the identifier.
func StaticResolver(src Source) Resolver {
	return func(context.Context, string) (Source, error) {
		return src, nil
	}
}
