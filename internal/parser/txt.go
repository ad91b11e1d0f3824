package parser

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// cp1252Undefined holds the C1 bytes cp1252 leaves unassigned.
var cp1252Undefined = map[byte]bool{0x81: true, 0x8d: true, 0x8f: true, 0x90: true, 0x9d: true}

// decodeText returns the content of raw as a string and the name of the
// encoding it was read with. Non UTF-8 input is treated as cp1252 when it
// uses a byte cp1252 defines in the 0x80-0x9F range, which latin-1 reserves
// for control codes, and as latin-1 otherwise.
func decodeText(raw []byte) (string, string, error) {
	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}

	var (
		enc  encoding.Encoding = charmap.ISO8859_1
		name                   = "latin-1"
	)
	for _, b := range raw {
		if b >= 0x80 && b <= 0x9f && !cp1252Undefined[b] {
			enc, name = charmap.Windows1252, "cp1252"
			break
		}
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", "", err
	}
	return string(decoded), name, nil
}

func (p *Parser) parseTXT(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse text file: %w", err)
	}

	text, enc, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("Failed to decode text file with any supported encoding: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: No text content in file", ErrNoText)
	}

	return &Result{
		Text: text,
		Metadata: map[string]any{
			"encoding":   enc,
			"line_count": len(strings.Split(text, "\n")),
		},
	}, nil
}
