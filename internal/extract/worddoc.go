package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"gradergo/internal/models"
)

const tableCellDelimiter = " | "

type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Texts []string `xml:"r>t"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Texts []string `xml:"p>r>t"`
}

// extractWordDoc emits one block per paragraph in document order, then one
// block per table row with cells joined by " | ", tables after body text.
func extractWordDoc(raw []byte) (*models.ExtractedDocument, error) {
	if isOLECompound(raw) {
		return nil, unsupportedf("password-protected document")
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, corruptf("open docx container: %v", err)
	}
	data, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return nil, corruptf("read word/document.xml: %v", err)
	}

	var wdoc docxDocument
	if err := xml.Unmarshal(data, &wdoc); err != nil {
		return nil, corruptf("parse word/document.xml: %v", err)
	}

	doc := &models.ExtractedDocument{}
	for _, para := range wdoc.Body.Paragraphs {
		doc.Blocks = append(doc.Blocks, models.TextBlock{
			Kind: models.BlockParagraph,
			Text: strings.Join(para.Texts, ""),
		})
	}
	for _, table := range wdoc.Body.Tables {
		for _, row := range table.Rows {
			cells := make([]string, len(row.Cells))
			for i, cell := range row.Cells {
				cells[i] = strings.Join(cell.Texts, "")
			}
			doc.Blocks = append(doc.Blocks, models.TextBlock{
				Kind: models.BlockTableRow,
				Text: strings.Join(cells, tableCellDelimiter),
			})
		}
	}
	return doc, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
