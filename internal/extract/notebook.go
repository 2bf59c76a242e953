package extract

import (
	"encoding/json"
	"strings"

	"gradergo/internal/models"
)

type nbNotebook struct {
	NBFormat int      `json:"nbformat"`
	Cells    []nbCell `json:"cells"`
}

type nbCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// extractNotebook emits one block per markdown cell and one per code cell,
// in cell order. Code cells keep their source text only; execution outputs
// are not part of the canonical document.
func extractNotebook(raw []byte) (*models.ExtractedDocument, error) {
	var nb nbNotebook
	if err := json.Unmarshal(raw, &nb); err != nil {
		return nil, corruptf("parse notebook: %v", err)
	}
	if nb.NBFormat > 0 && nb.NBFormat < 4 {
		return nil, unsupportedf("nbformat %d notebooks are not supported", nb.NBFormat)
	}
	if nb.Cells == nil {
		return nil, corruptf("notebook has no cell list")
	}

	doc := &models.ExtractedDocument{}
	for _, cell := range nb.Cells {
		text, err := cellSource(cell.Source)
		if err != nil {
			return nil, corruptf("parse cell source: %v", err)
		}
		switch cell.CellType {
		case "markdown":
			doc.Blocks = append(doc.Blocks, models.TextBlock{Kind: models.BlockMarkdownCell, Text: text})
		case "code":
			doc.Blocks = append(doc.Blocks, models.TextBlock{Kind: models.BlockCodeCell, Text: text})
		}
	}
	return doc, nil
}

// cellSource handles both nbformat source encodings: a single string or a
// list of line strings.
func cellSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", err
	}
	return strings.Join(lines, ""), nil
}
