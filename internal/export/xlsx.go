package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/posso-labs/leadscout/internal/model"
)

// WriteLeadsXLSX writes all leads as a single-sheet workbook with the same
// columns as the CSV export. An empty store writes nothing at all.
func WriteLeadsXLSX(w io.Writer, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range leadColumns {
		header.AddCell().SetString(col)
	}
	for _, l := range leads {
		row := sheet.AddRow()
		for _, field := range leadRow(l) {
			row.AddCell().SetString(field)
		}
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}
