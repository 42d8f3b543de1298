package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// Section is a unit of source text with optional page provenance. Markdown,
// text, and HTML files yield one unpaged section; PDFs yield one section per
// page so citations can carry page numbers.
type Section struct {
	Text    string
	Page    int
	HasPage bool
}

// SupportedExtensions lists the file types the ingestor reads.
var SupportedExtensions = []string{".md", ".txt", ".html", ".htm", ".pdf"}

// Supported reports whether the file extension is ingestible.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ReadSections loads a document into sections according to its extension.
func ReadSections(path string) ([]Section, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		return readPlain(path)
	case ".html", ".htm":
		return readHTML(path)
	case ".pdf":
		return readPDF(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

func readPlain(path string) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []Section{{Text: string(data)}}, nil
}

func readHTML(path string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	doc.Find("script, style, nav, footer").Remove()

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, p, li, td, th").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	})

	text := strings.TrimSpace(b.String())
	if text == "" {
		// Fallback for documents without the usual structural elements.
		text = strings.TrimSpace(doc.Text())
	}
	return []Section{{Text: text}}, nil
}

func readPDF(path string) ([]Section, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sections := make([]Section, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sections = append(sections, Section{Text: text, Page: i, HasPage: true})
	}
	return sections, nil
}
