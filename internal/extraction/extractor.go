// Package extraction pulls template fields out of parsed document text with
// a language model.
package extraction

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"legalreview/internal/llm"
	"legalreview/models"
)

const (
	DefaultChunkSize    = 50000
	DefaultChunkOverlap = 500
)

// Error marks a failure of the extraction itself. The worker does not retry
// these.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Extractor struct {
	Model        llm.Model
	Logger       *zap.SugaredLogger
	ChunkSize    int
	ChunkOverlap int
	Concurrency  int
}

func NewExtractor(model llm.Model, concurrency int, logger *zap.SugaredLogger) *Extractor {
	return &Extractor{
		Model:        model,
		Logger:       logger,
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Concurrency:  concurrency,
	}
}

// Extract returns one field per template field, in template order.
func (e *Extractor) Extract(ctx context.Context, text string, fields []models.FieldDefinition) ([]models.ExtractedField, error) {
	if len([]rune(text)) <= e.ChunkSize {
		return e.extractChunk(ctx, text, fields)
	}

	splitter, err := NewSplitter(e.ChunkSize, e.ChunkOverlap)
	if err != nil {
		return nil, &Error{Err: err}
	}
	docs, err := splitDocument(ctx, text, splitter)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("splitting text: %w", err)}
	}

	e.Logger.Infow("extracting from chunks", "chunks", len(docs), "model", e.Model.Name())

	results := make([][]models.ExtractedField, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	if e.Concurrency > 0 {
		g.SetLimit(e.Concurrency)
	}
	for i, doc := range docs {
		g.Go(func() error {
			out, err := e.extractChunk(gctx, doc.PageContent, fields)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i+1, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// context errors stay unwrapped so the worker retries them
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var extractionErr *Error
		if errors.As(err, &extractionErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &Error{Err: err}
	}

	return MergeChunkResults(results, fields), nil
}

func (e *Extractor) extractChunk(ctx context.Context, text string, fields []models.FieldDefinition) ([]models.ExtractedField, error) {
	response, err := e.Model.Generate(ctx, BuildPrompt(text, fields))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Err: fmt.Errorf("LLM extraction failed: %w", err)}
	}

	out, err := ParseResponse(response, fields)
	if err != nil {
		e.Logger.Warnw("unparseable model response", "model", e.Model.Name(), "error", err)
		return nil, &Error{Err: err}
	}

	return out, nil
}

// MergeChunkResults keeps, per field, the most confident non-empty value
// seen across chunks.
func MergeChunkResults(results [][]models.ExtractedField, fields []models.FieldDefinition) []models.ExtractedField {
	merged := make([]models.ExtractedField, 0, len(fields))
	for _, def := range fields {
		var (
			best  models.ExtractedField
			found bool
		)
		for _, chunk := range results {
			for _, f := range chunk {
				if f.FieldID != def.FieldID || f.RawValue == nil || *f.RawValue == "" {
					continue
				}
				if !found || f.ConfidenceScore > best.ConfidenceScore {
					best = f
					found = true
				}
			}
		}
		if !found {
			best = emptyField(def.FieldID)
		}
		merged = append(merged, best)
	}
	return merged
}
