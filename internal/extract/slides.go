package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gradergo/internal/models"
)

var slidePathPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractSlides emits one block per slide, concatenating every text run on
// the slide in its encoded order.
func extractSlides(raw []byte) (*models.ExtractedDocument, error) {
	if isOLECompound(raw) {
		return nil, unsupportedf("password-protected presentation")
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, corruptf("open pptx container: %v", err)
	}

	type slideEntry struct {
		num  int
		name string
	}
	var slides []slideEntry
	for _, f := range zr.File {
		if m := slidePathPattern.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slideEntry{num: n, name: f.Name})
		}
	}
	if len(slides) == 0 {
		return nil, unsupportedf("no slides in presentation")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	doc := &models.ExtractedDocument{}
	for _, slide := range slides {
		data, err := readZipFile(zr, slide.name)
		if err != nil {
			return nil, corruptf("read %s: %v", slide.name, err)
		}
		text, err := slideText(data)
		if err != nil {
			return nil, corruptf("parse %s: %v", slide.name, err)
		}
		doc.Blocks = append(doc.Blocks, models.TextBlock{Kind: models.BlockSlideText, Text: text})
	}
	return doc, nil
}

// slideText walks the slide XML in token order, collecting the content of
// every <a:t> run.
func slideText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var runs []string
	inRun := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inRun = false
			}
		case xml.CharData:
			if inRun {
				runs = append(runs, string(t))
			}
		}
	}
	return strings.Join(runs, "\n"), nil
}
