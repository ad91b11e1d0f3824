package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

var _ textsplitter.TextSplitter = (*Splitter)(nil)

// Splitter cuts text into fixed size windows of characters that overlap by
// chunkOverlap. The last window always ends at the end of the text.
type Splitter struct {
	chunkLength  int
	chunkOverlap int
}

func NewSplitter(chunkLength, chunkOverlap int) (*Splitter, error) {
	if chunkLength <= 0 {
		return &Splitter{}, fmt.Errorf("chunkLength must be greater than 0")
	}

	if chunkLength <= chunkOverlap {
		return &Splitter{}, fmt.Errorf("chunkLength must be greater than chunkOverlap")
	}

	if chunkOverlap < 0 {
		return &Splitter{}, fmt.Errorf("chunkOverlap must not be negative")
	}

	return &Splitter{
		chunkLength:  chunkLength,
		chunkOverlap: chunkOverlap,
	}, nil
}

func (s *Splitter) SplitText(t string) ([]string, error) {
	runes := []rune(t)
	chunks := make([]string, 0)

	for start := 0; start < len(runes); start += s.chunkLength - s.chunkOverlap {
		end := start + s.chunkLength
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks, nil
}

// splitDocument loads text as a langchain document and splits it.
func splitDocument(ctx context.Context, text string, splitter *Splitter) ([]schema.Document, error) {
	return documentloaders.NewText(strings.NewReader(text)).LoadAndSplit(ctx, splitter)
}
