// Package docxutil implements the office-document capabilities: extracting
// an HTML markup representation from DOCX bytes, and laying that markup into
// a printable A4-equivalent region rendered to PDF.
package docxutil

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

// Extractor converts DOCX bytes to HTML markup. DOCX is a zip archive; the
// document content lives in word/document.xml. Legacy binary .doc files are
// not zip archives and fail here, which is the intended failure point for
// bytes that do not match their declared format.
type Extractor struct{}

// NewExtractor creates a markup extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// wordprocessingml structures, reduced to what the markup needs. Field tags
// use local names only, so the namespace prefix does not matter.
type xmlDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    xmlBody  `xml:"body"`
}

type xmlBody struct {
	Paragraphs []xmlParagraph `xml:"p"`
}

type xmlParagraph struct {
	Props xmlParaProps `xml:"pPr"`
	Runs  []xmlRun     `xml:"r"`
}

type xmlParaProps struct {
	Style struct {
		Val string `xml:"val,attr"`
	} `xml:"pStyle"`
}

type xmlRun struct {
	Props xmlRunProps `xml:"rPr"`
	Texts []string    `xml:"t"`
}

type xmlRunProps struct {
	Bold      *struct{} `xml:"b"`
	Italic    *struct{} `xml:"i"`
	Underline *struct{} `xml:"u"`
}

// ToMarkup extracts the document's content as HTML markup: one <p> per
// paragraph (headings become <h1>-<h3>), runs wrapped in <b>/<i>/<u>
// according to their properties, text HTML-escaped.
func (e *Extractor) ToMarkup(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx archive: %w", err)
	}

	var docXML []byte
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("open word/document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("read word/document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("document has no word/document.xml entry")
	}

	var doc xmlDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", fmt.Errorf("parse document xml: %w", err)
	}

	var sb strings.Builder
	for _, para := range doc.Body.Paragraphs {
		text := renderRuns(para.Runs)
		if strings.TrimSpace(stripTags(text)) == "" {
			continue
		}

		open, close := "<p>", "</p>"
		switch para.Props.Style.Val {
		case "Heading1", "Title":
			open, close = "<h1>", "</h1>"
		case "Heading2":
			open, close = "<h2>", "</h2>"
		case "Heading3":
			open, close = "<h3>", "</h3>"
		}

		sb.WriteString(open)
		sb.WriteString(text)
		sb.WriteString(close)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func renderRuns(runs []xmlRun) string {
	var sb strings.Builder
	for _, run := range runs {
		text := html.EscapeString(strings.Join(run.Texts, ""))
		if text == "" {
			continue
		}
		if run.Props.Bold != nil {
			text = "<b>" + text + "</b>"
		}
		if run.Props.Italic != nil {
			text = "<i>" + text + "</i>"
		}
		if run.Props.Underline != nil {
			text = "<u>" + text + "</u>"
		}
		sb.WriteString(text)
	}
	return sb.String()
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(markup string) string {
	return tagPattern.ReplaceAllString(markup, "")
}

// IsEmptyMarkup reports whether markup carries no visible content once tags
// and whitespace are removed. The office pipeline treats this as
// "no content found" and fails before any PDF work starts.
func IsEmptyMarkup(markup string) bool {
	text := stripTags(markup)
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	return strings.TrimSpace(text) == ""
}
