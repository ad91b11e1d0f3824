// Package parser turns uploaded documents into plain text plus metadata
// describing their structure.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoText          = errors.New("no text content")
)

// Error is returned for any document that cannot be parsed. Retrying the
// same file will not help.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the text of a document and whatever the format told us about it.
type Result struct {
	Text     string
	Metadata map[string]any
}

type parseFunc func(p *Parser, path string) (*Result, error)

var parsers = map[string]parseFunc{
	".pdf":  (*Parser).parsePDF,
	".docx": (*Parser).parseDOCX,
	".html": (*Parser).parseHTML,
	".htm":  (*Parser).parseHTML,
	".txt":  (*Parser).parseTXT,
}

// Supported reports whether ext (with leading dot) has a parser.
func Supported(ext string) bool {
	_, ok := parsers[strings.ToLower(ext)]
	return ok
}

type Parser struct {
	Logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Parser {
	return &Parser{Logger: logger}
}

// Parse reads the file at path, choosing the format by extension.
func (p *Parser) Parse(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("File not found: %s", path)}
	}

	ext := strings.ToLower(filepath.Ext(path))
	parse, ok := parsers[ext]
	if !ok {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedType, ext)}
	}

	p.Logger.Infow("parsing document", "file_path", path, "file_type", ext)

	result, err := parse(p, path)
	if err != nil {
		p.Logger.Errorw("parsing failed", "file_path", path, "error", err)
		return nil, &Error{Path: path, Err: err}
	}

	result.Metadata["file_size"] = info.Size()
	result.Metadata["file_type"] = ext
	result.Metadata["text_length"] = utf8.RuneCountInString(result.Text)
	result.Metadata["word_count"] = len(strings.Fields(result.Text))

	p.Logger.Infow("parsing completed",
		"file_path", path,
		"text_length", result.Metadata["text_length"],
		"word_count", result.Metadata["word_count"],
	)

	return result, nil
}

func noText(format string) error {
	return fmt.Errorf("%w: No text content extracted from %s", ErrNoText, format)
}
