package catalog

import (
	"context"
	"io"
	"strings"

	"classroll/models"
	"classroll/roster"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Roster"

// RowsFromExcel reads the first sheet of a workbook and joins the cells of
// every row with commas, so columns A and B become an import line
// "name,flag". Header or malformed rows are left for the import parser to drop.
func RowsFromExcel(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", errors.Wrap(err, "failed to open excel file")
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return "", errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get rows from sheet %s", sheetName)
	}

	var b strings.Builder
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ImportExcel creates className from the first sheet of a workbook.
func ImportExcel(ctx context.Context, cat Catalog, className string, r io.Reader) (*roster.Store, roster.ImportReport, error) {
	raw, err := RowsFromExcel(r)
	if err != nil {
		return nil, roster.ImportReport{}, err
	}
	return Import(ctx, cat, className, raw)
}

// ExportExcel writes the roster as a workbook with a header row.
func ExportExcel(snap roster.Snapshot, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return errors.Wrap(err, "failed to name sheet")
	}

	header := []interface{}{"Number", "Name", "Present"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for i, st := range snap.Students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{st.Number, st.Name, st.PresenceFlag()}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write student %d", st.Number)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return &models.PersistenceError{Op: "export", Class: snap.ClassName, Err: err}
	}
	return nil
}
