package sheets

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// XLSXStore keeps the sheet in a local xlsx workbook, for teams without a
// shared Google spreadsheet.
type XLSXStore struct {
	path      string
	sheetName string
}

// NewXLSXStore returns a store backed by the workbook at path. The file is
// created on the first write.
func NewXLSXStore(path, sheetName string) *XLSXStore {
	return &XLSXStore{path: path, sheetName: sheetName}
}

// ReadAll loads every row from the workbook. A missing file or sheet reads
// as empty.
func (x *XLSXStore) ReadAll() ([][]string, error) {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening workbook %s: %w", x.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(x.sheetName)
	if err != nil {
		var sheetErr excelize.ErrSheetNotExist
		if errors.As(err, &sheetErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sheet %s: %w", x.sheetName, err)
	}
	return rows, nil
}

// WriteAll writes a fresh workbook containing only the given rows.
func (x *XLSXStore) WriteAll(rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), x.sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(x.sheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(x.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", x.path, err)
	}
	return nil
}

// SetStatusValidation installs the status dropdown on the given column.
// The workbook is reopened because WriteAll saves a fresh file.
func (x *XLSXStore) SetStatusValidation(col, rowCount int) error {
	if rowCount == 0 {
		return nil
	}
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return fmt.Errorf("opening workbook %s: %w", x.path, err)
	}
	defer f.Close()

	first, err := excelize.CoordinatesToCellName(col+1, 2)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(col+1, rowCount+1)
	if err != nil {
		return err
	}

	dv := excelize.NewDataValidation(true)
	dv.Sqref = first + ":" + last
	if err := dv.SetDropList(StatusValues); err != nil {
		return fmt.Errorf("building status dropdown: %w", err)
	}
	if err := f.AddDataValidation(x.sheetName, dv); err != nil {
		return fmt.Errorf("adding status dropdown: %w", err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("saving workbook %s: %w", x.path, err)
	}
	return nil
}
