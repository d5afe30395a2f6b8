package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// GoogleStore talks to one sheet in one Google spreadsheet through a
// service account.
type GoogleStore struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetName     string
}

// NewGoogleStore builds a store authenticated with a service account key
// file. The service account must have editor access to the spreadsheet.
func NewGoogleStore(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*GoogleStore, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &GoogleStore{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// ReadAll fetches the sheet's full value range. A sheet that does not
// exist yet reads as empty.
func (g *GoogleStore) ReadAll() ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.sheetName+"!A:Z").Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			// Unknown sheet name: treat as empty, WriteAll creates it.
			return nil, nil
		}
		return nil, fmt.Errorf("fetching values: %w", err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteAll clears the sheet and rewrites it from A1 with raw values.
func (g *GoogleStore) WriteAll(rows [][]string) error {
	if err := g.ensureSheet(); err != nil {
		return err
	}
	if _, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, g.sheetName+"!A:Z", &sheetsapi.ClearValuesRequest{}).Do(); err != nil {
		return fmt.Errorf("clearing sheet: %w", err)
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	_, err := g.svc.Spreadsheets.Values.
		Update(g.spreadsheetID, g.sheetName+"!A1", &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("writing values: %w", err)
	}
	return nil
}

// SetStatusValidation installs the status dropdown on the given column
// for rowCount data rows below the header.
func (g *GoogleStore) SetStatusValidation(col, rowCount int) error {
	if rowCount == 0 {
		return nil
	}
	sheetID, err := g.sheetID()
	if err != nil {
		return err
	}

	values := make([]*sheetsapi.ConditionValue, len(StatusValues))
	for i, v := range StatusValues {
		values[i] = &sheetsapi.ConditionValue{UserEnteredValue: v}
	}
	req := &sheetsapi.Request{
		SetDataValidation: &sheetsapi.SetDataValidationRequest{
			Range: &sheetsapi.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    1,
				EndRowIndex:      int64(1 + rowCount),
				StartColumnIndex: int64(col),
				EndColumnIndex:   int64(col + 1),
			},
			Rule: &sheetsapi.DataValidationRule{
				Condition: &sheetsapi.BooleanCondition{
					Type:   "ONE_OF_LIST",
					Values: values,
				},
				ShowCustomUi: true,
				Strict:       false,
			},
		},
	}
	_, err = g.svc.Spreadsheets.
		BatchUpdate(g.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: []*sheetsapi.Request{req}}).
		Do()
	if err != nil {
		return fmt.Errorf("setting status validation: %w", err)
	}
	return nil
}

// ensureSheet adds the named sheet to the spreadsheet if it is missing.
func (g *GoogleStore) ensureSheet() error {
	if _, err := g.sheetID(); err == nil {
		return nil
	}
	req := &sheetsapi.Request{
		AddSheet: &sheetsapi.AddSheetRequest{
			Properties: &sheetsapi.SheetProperties{Title: g.sheetName},
		},
	}
	_, err := g.svc.Spreadsheets.
		BatchUpdate(g.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: []*sheetsapi.Request{req}}).
		Do()
	if err != nil {
		return fmt.Errorf("creating sheet %s: %w", g.sheetName, err)
	}
	return nil
}

func (g *GoogleStore) sheetID() (int64, error) {
	meta, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Do()
	if err != nil {
		return 0, fmt.Errorf("fetching spreadsheet metadata: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && s.Properties.Title == g.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("spreadsheet has no sheet named %s", g.sheetName)
}
