package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type docxCoreProperties struct {
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
	Title    string `xml:"title"`
	Subject  string `xml:"subject"`
}

// docxBody is the text content of word/document.xml. Paragraphs only holds
// body level paragraphs; paragraphs inside tables end up in TableRows.
type docxBody struct {
	Paragraphs []string
	TableRows  []string
	TableCount int
}

func (p *Parser) parseDOCX(path string) (*Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse DOCX: %w", err)
	}
	defer zr.Close()

	var body *docxBody
	var props *docxCoreProperties
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			body, err = readZipEntry(f, parseDocumentXML)
		case "docProps/core.xml":
			props, err = readZipEntry(f, parseCoreXML)
		}
		if err != nil {
			return nil, fmt.Errorf("Failed to parse DOCX: %w", err)
		}
	}
	if body == nil {
		return nil, errors.New("Failed to parse DOCX: word/document.xml is missing")
	}

	all := append(append([]string{}, body.Paragraphs...), body.TableRows...)
	text := strings.TrimSpace(strings.Join(all, "\n"))
	if text == "" {
		return nil, noText("DOCX")
	}

	metadata := map[string]any{
		"paragraph_count": len(body.Paragraphs),
		"table_count":     body.TableCount,
	}
	if props != nil {
		metadata["docx_metadata"] = map[string]any{
			"author":   nullable(props.Creator),
			"created":  nullable(props.Created),
			"modified": nullable(props.Modified),
			"title":    nullable(props.Title),
			"subject":  nullable(props.Subject),
		}
	}

	return &Result{Text: text, Metadata: metadata}, nil
}

func readZipEntry[T any](f *zip.File, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := f.Open()
	if err != nil {
		return zero, err
	}
	defer rc.Close()
	return parse(rc)
}

func parseCoreXML(r io.Reader) (*docxCoreProperties, error) {
	var props docxCoreProperties
	if err := xml.NewDecoder(r).Decode(&props); err != nil {
		return nil, err
	}
	return &props, nil
}

// parseDocumentXML walks the WordprocessingML token stream. Cell text is the
// cell's paragraphs joined by newlines and a row is its trimmed cells joined
// by " | ".
func parseDocumentXML(r io.Reader) (*docxBody, error) {
	var (
		body      docxBody
		tblDepth  int
		inText    bool
		para      strings.Builder
		cellParas []string
		rowCells  []string
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				if tblDepth == 0 {
					body.TableCount++
				}
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					rowCells = rowCells[:0]
				}
			case "tc":
				if tblDepth == 1 {
					cellParas = cellParas[:0]
				}
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tblDepth == 0 {
					if strings.TrimSpace(para.String()) != "" {
						body.Paragraphs = append(body.Paragraphs, para.String())
					}
				} else {
					cellParas = append(cellParas, para.String())
				}
				para.Reset()
			case "tc":
				if tblDepth == 1 {
					rowCells = append(rowCells, strings.TrimSpace(strings.Join(cellParas, "\n")))
				}
			case "tr":
				if tblDepth == 1 {
					row := strings.Join(rowCells, " | ")
					if strings.TrimSpace(row) != "" {
						body.TableRows = append(body.TableRows, row)
					}
				}
			case "tbl":
				tblDepth--
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	return &body, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
