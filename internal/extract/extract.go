// Package extract turns raw uploaded files into canonical text blocks.
//
// Supported formats:
//   - .ipynb — Jupyter notebook (one block per markdown/code cell)
//   - .docx  — Word document (paragraphs, then table rows)
//   - .pdf   — PDF (one block per page, reading order, no OCR)
//   - .pptx  — slide deck (one block per slide)
//   - .xlsx  — spreadsheet (one block per populated row per sheet)
//   - plain text and source code (whole file as one block)
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"gradergo/internal/models"
)

// Format is the closed set of supported container formats.
type Format string

const (
	FormatNotebook    Format = "notebook"
	FormatWordDoc     Format = "worddoc"
	FormatPDF         Format = "pdf"
	FormatSlides      Format = "slides"
	FormatSpreadsheet Format = "spreadsheet"
	FormatPlainText   Format = "plaintext"
)

type extractorFunc func(raw []byte) (*models.ExtractedDocument, error)

// Indirection so tests can count or stub extractor invocations.
var extractors = map[Format]extractorFunc{
	FormatNotebook:    extractNotebook,
	FormatWordDoc:     extractWordDoc,
	FormatPDF:         extractPDF,
	FormatSlides:      extractSlides,
	FormatSpreadsheet: extractSpreadsheet,
	FormatPlainText:   extractPlainText,
}

var plainTextExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true,
	".py": true, ".go": true, ".java": true, ".c": true, ".cpp": true,
	".h": true, ".hpp": true, ".js": true, ".ts": true, ".r": true,
	".sql": true, ".sh": true, ".csv": true, ".json": true,
}

// FormatForFilename resolves the container format from the filename
// extension, case-insensitively.
func FormatForFilename(filename string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".ipynb":
		return FormatNotebook, true
	case ".docx":
		return FormatWordDoc, true
	case ".pdf":
		return FormatPDF, true
	case ".pptx":
		return FormatSlides, true
	case ".xlsx":
		return FormatSpreadsheet, true
	}
	if plainTextExtensions[ext] {
		return FormatPlainText, true
	}
	return "", false
}

// Dispatch is the single entry point for extraction. The size check runs
// before any parsing so an oversized upload never reaches a parser, and an
// unknown extension never invokes an extractor. Extraction is deterministic
// for identical bytes; there are no retries.
func Dispatch(filename string, raw []byte, maxBytes int64) (*models.ExtractedDocument, error) {
	if maxBytes > 0 && int64(len(raw)) >= maxBytes {
		return nil, newError(KindTooLarge, fmt.Errorf("%s: %d bytes (limit %d)", filename, len(raw), maxBytes))
	}
	format, ok := FormatForFilename(filename)
	if !ok {
		return nil, newError(KindUnknownFormat, fmt.Errorf("unrecognized extension on %q", filename))
	}
	return extractors[format](raw)
}

// OOXML containers (.docx/.pptx/.xlsx) that are password protected are
// stored as OLE compound files instead of zip archives.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func isOLECompound(raw []byte) bool {
	return bytes.HasPrefix(raw, oleMagic)
}
