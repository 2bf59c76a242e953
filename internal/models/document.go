package models

import "strings"

// RawFile is an uploaded file held in memory for the duration of one batch.
type RawFile struct {
	Name    string
	Content []byte
}

type BlockKind string

const (
	BlockMarkdownCell BlockKind = "markdown-cell"
	BlockCodeCell     BlockKind = "code-cell"
	BlockParagraph    BlockKind = "paragraph"
	BlockTableRow     BlockKind = "table-row"
	BlockPageText     BlockKind = "page-text"
	BlockSlideText    BlockKind = "slide-text"
	BlockCellRow      BlockKind = "cell-row"
	BlockRawText      BlockKind = "raw-text"
)

// TextBlock is one unit of canonical extracted text, tagged with the
// structural element it came from.
type TextBlock struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// QuestionSpan marks where a question begins in the document's full text.
// Start is a byte offset into FullText().
type QuestionSpan struct {
	Label string `json:"label"`
	Start int    `json:"start"`
}

// ExtractedDocument is the canonical form produced by the extractors.
// Blocks keep source order. StudentID, StudentName and Questions are filled
// in by metadata identification, not by extraction.
type ExtractedDocument struct {
	Blocks      []TextBlock    `json:"blocks"`
	StudentID   string         `json:"student_id,omitempty"`
	StudentName string         `json:"student_name,omitempty"`
	Questions   []QuestionSpan `json:"questions,omitempty"`
}

// FullText joins all block texts with a newline. Question span offsets
// index into this string.
func (d *ExtractedDocument) FullText() string {
	if d == nil || len(d.Blocks) == 0 {
		return ""
	}
	parts := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, "\n")
}
