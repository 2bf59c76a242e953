package extract

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"gradergo/internal/models"
)

// extractSpreadsheet emits one block per populated row per sheet, sheets in
// workbook order and rows top to bottom. Rows with no non-empty cell are
// skipped.
func extractSpreadsheet(raw []byte) (*models.ExtractedDocument, error) {
	if isOLECompound(raw) {
		return nil, unsupportedf("password-protected workbook")
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, corruptf("open xlsx workbook: %v", err)
	}
	defer f.Close()

	doc := &models.ExtractedDocument{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, corruptf("read sheet %q: %v", sheet, err)
		}
		for _, row := range rows {
			if !rowPopulated(row) {
				continue
			}
			doc.Blocks = append(doc.Blocks, models.TextBlock{
				Kind: models.BlockCellRow,
				Text: strings.Join(row, tableCellDelimiter),
			})
		}
	}
	return doc, nil
}

func rowPopulated(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}
