package extract

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradergo/internal/models"
)

// buildPDF assembles a one-page document from the given object bodies,
// computing byte offsets for the cross-reference table.
func buildPDF(t *testing.T, objects []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefStart)
	return buf.Bytes()
}

func minimalPDF(t *testing.T) []byte {
	return buildPDF(t, []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	})
}

func TestExtractPDFPageBlocks(t *testing.T) {
	doc, err := extractPDF(minimalPDF(t))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)

	// A page without extractable text still yields its (empty) block.
	assert.Equal(t, models.BlockPageText, doc.Blocks[0].Kind)
	assert.Equal(t, "", doc.Blocks[0].Text)
}

func TestExtractPDFCorrupt(t *testing.T) {
	_, err := extractPDF([]byte("%PDF-1.4\ngarbage with no xref"))
	assert.Equal(t, KindCorruptFile, KindOf(err))

	_, err = extractPDF([]byte("not a pdf at all"))
	assert.Equal(t, KindCorruptFile, KindOf(err))
}

func TestExtractPDFBrokenXref(t *testing.T) {
	raw := minimalPDF(t)
	// Point startxref at a bogus offset; the reader may error or panic,
	// either way this must classify as a corrupt file.
	broken := bytes.Replace(raw, []byte("startxref\n"), []byte("startxref\n9"), 1)
	_, err := extractPDF(broken)
	assert.Equal(t, KindCorruptFile, KindOf(err))
}
