// Package metadata annotates extracted documents with the student identity
// and question boundaries found in their text. Identification is heuristic
// and never fails: a document without detectable metadata is graded
// anonymously as a whole.
package metadata

import (
	"regexp"
	"sort"
	"strings"

	"gradergo/internal/models"
)

// Label patterns in priority order. Submissions put identity lines near the
// top in prose blocks, so only prose-like block kinds are scanned.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Net\s*ID\s*[:=]\s*(\S+)`),
	regexp.MustCompile(`(?i)Student\s*ID\s*[:=]\s*(\S+)`),
	regexp.MustCompile(`(?i)\bID\s*[:=]\s*(\S+)`),
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Author\s*[:=]\s*(.+?)\s*$`),
	regexp.MustCompile(`(?im)Student\s*Name\s*[:=]\s*(.+?)\s*$`),
	regexp.MustCompile(`(?im)\bName\s*[:=]\s*(.+?)\s*$`),
	regexp.MustCompile(`(?im)Submitted\s+by\s*[:=]\s*(.+?)\s*$`),
}

var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:question|problem)\s*(\d+(?:\.\w+)?)`),
	regexp.MustCompile(`(?i)\bq(\d+(?:\.\w+)?)\b`),
}

var identityBlockKinds = map[models.BlockKind]bool{
	models.BlockMarkdownCell: true,
	models.BlockParagraph:    true,
	models.BlockRawText:      true,
}

// Identify returns an annotated copy of doc. It is a pure function of the
// input and idempotent: metadata is recomputed from scratch, never appended.
func Identify(doc *models.ExtractedDocument) *models.ExtractedDocument {
	if doc == nil {
		return nil
	}
	out := *doc
	out.StudentID, out.StudentName = studentInfo(doc.Blocks)
	out.Questions = questionSpans(doc.FullText())
	return &out
}

// studentInfo scans prose blocks in document order; the first match wins.
func studentInfo(blocks []models.TextBlock) (id, name string) {
	for _, block := range blocks {
		if !identityBlockKinds[block.Kind] {
			continue
		}
		if id == "" {
			for _, pat := range idPatterns {
				if m := pat.FindStringSubmatch(block.Text); m != nil {
					id = strings.TrimSpace(m[1])
					break
				}
			}
		}
		if name == "" {
			for _, pat := range namePatterns {
				if m := pat.FindStringSubmatch(block.Text); m != nil {
					name = cleanName(m[1])
					if name != "" {
						break
					}
				}
			}
		}
		if id != "" && name != "" {
			break
		}
	}
	return id, name
}

var (
	spaceRun    = regexp.MustCompile(`\s+`)
	parenthetic = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]\s*`)
)

func cleanName(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = parenthetic.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return ""
	}
	return s
}

// questionSpans locates question markers in the full text. Duplicate labels
// after the first occurrence are ignored so repeated headers in a table of
// contents or an appendix do not restart a question.
func questionSpans(fullText string) []models.QuestionSpan {
	if fullText == "" {
		return nil
	}
	type hit struct {
		label string
		start int
	}
	var hits []hit
	for _, pat := range questionPatterns {
		for _, m := range pat.FindAllStringSubmatchIndex(fullText, -1) {
			hits = append(hits, hit{
				label: strings.ToLower(fullText[m[2]:m[3]]),
				start: m[0],
			})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	seen := make(map[string]bool, len(hits))
	var spans []models.QuestionSpan
	for _, h := range hits {
		if seen[h.label] {
			continue
		}
		seen[h.label] = true
		spans = append(spans, models.QuestionSpan{Label: h.label, Start: h.start})
	}
	return spans
}
