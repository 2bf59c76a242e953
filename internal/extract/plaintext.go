package extract

import (
	"bytes"
	"unicode/utf8"

	"gradergo/internal/models"
)

// extractPlainText wraps the decoded file content in a single raw-text
// block. Content that is not valid text is a hard failure, never a silent
// empty document.
func extractPlainText(raw []byte) (*models.ExtractedDocument, error) {
	if !utf8.Valid(raw) || bytes.ContainsRune(raw, 0) {
		return nil, corruptf("content is not valid utf-8 text")
	}
	return &models.ExtractedDocument{
		Blocks: []models.TextBlock{{Kind: models.BlockRawText, Text: string(raw)}},
	}, nil
}
