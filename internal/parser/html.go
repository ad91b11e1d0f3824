package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"
)

func (p *Parser) parseHTML(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse HTML: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ToValidUTF8(string(raw), "")))
	if err != nil {
		return nil, fmt.Errorf("Failed to parse HTML: %w", err)
	}

	doc.Find("script, style, meta, link").Remove()

	metadata := map[string]any{
		"html_structure": map[string]any{
			"headings":   doc.Find("h1, h2, h3, h4, h5, h6").Length(),
			"paragraphs": doc.Find("p").Length(),
			"tables":     doc.Find("table").Length(),
			"lists":      doc.Find("ul, ol").Length(),
		},
	}
	if title := doc.Find("title").First(); title.Length() > 0 {
		metadata["title"] = strings.TrimSpace(title.Text())
	}

	cleaned, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("Failed to parse HTML: %w", err)
	}

	converted, err := html2text.FromString(cleaned, html2text.Options{OmitLinks: true, TextOnly: true})
	if err != nil {
		return nil, fmt.Errorf("Failed to parse HTML: %w", err)
	}

	text := compactLines(converted)
	if text == "" {
		return nil, noText("HTML")
	}

	return &Result{Text: text, Metadata: metadata}, nil
}

// compactLines trims every line and drops the blank ones.
func compactLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
