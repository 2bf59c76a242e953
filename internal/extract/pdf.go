package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"gradergo/internal/models"
)

// extractPDF emits one block per page, in page order, with text in the
// reading order the file encodes. A page with no extractable text becomes
// an empty block, not an error; there is no OCR fallback.
func extractPDF(raw []byte) (doc *models.ExtractedDocument, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = corruptf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
			return nil, unsupportedf("password-protected pdf")
		}
		return nil, corruptf("open pdf: %v", err)
	}

	doc = &models.ExtractedDocument{}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			if s, err := page.GetPlainText(nil); err == nil {
				text = s
			}
		}
		doc.Blocks = append(doc.Blocks, models.TextBlock{Kind: models.BlockPageText, Text: text})
	}
	return doc, nil
}
