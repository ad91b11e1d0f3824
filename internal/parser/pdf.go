package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	api.DisableConfigDir()
}

var pdfInfoKeys = map[string]string{
	"author":   "Author",
	"creator":  "Creator",
	"producer": "Producer",
	"subject":  "Subject",
	"title":    "Title",
}

func (p *Parser) parsePDF(path string) (*Result, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("Invalid or corrupted PDF file: %w", err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("Invalid or corrupted PDF file: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("Invalid or corrupted PDF file: %w", err)
	}

	metadata := map[string]any{"page_count": pageCount}
	if docInfo := r.Trailer().Key("Info"); !docInfo.IsNull() {
		pdfMetadata := make(map[string]any, len(pdfInfoKeys))
		for name, key := range pdfInfoKeys {
			if v := docInfo.Key(key); !v.IsNull() {
				pdfMetadata[name] = v.Text()
			} else {
				pdfMetadata[name] = nil
			}
		}
		metadata["pdf_metadata"] = pdfMetadata
	}

	var parts []string
	for i := 1; i <= r.NumPage(); i++ {
		text, err := pageText(r, i)
		if err != nil {
			p.Logger.Warnw("page extraction failed", "file_path", path, "page_num", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			// page markers let the model cite where a value came from
			parts = append(parts, fmt.Sprintf("\n[PAGE %d]\n%s", i, text))
		}
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return nil, noText("PDF")
	}

	return &Result{Text: text, Metadata: metadata}, nil
}

// pageText extracts one page. Malformed content streams make the reader
// panic, so a failure is confined to its page.
func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", n, rec)
		}
	}()

	page := r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
