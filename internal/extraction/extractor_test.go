package extraction_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"legalreview/internal/extraction"
	"legalreview/models"
)

// promptModel answers according to the document text embedded in the prompt.
type promptModel struct {
	mu      sync.Mutex
	prompts []string
	answer  func(prompt string) (string, error)
}

func (m *promptModel) Name() string { return "fake" }

func (m *promptModel) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.answer(prompt)
}

// stalledModel never answers before the context ends.
type stalledModel struct{}

func (stalledModel) Name() string { return "stalled" }

func (stalledModel) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

var _ = Describe("Extractor", func() {
	var logger = zap.NewNop().Sugar()

	It("extracts short documents with a single call", func() {
		model := &promptModel{answer: func(string) (string, error) {
			return `[{"field_id": "party_a", "raw_value": "Acme Ltd", "confidence_score": 0.95}]`, nil
		}}
		ex := extraction.NewExtractor(model, 2, logger)

		fields, err := ex.Extract(context.Background(), "Agreement between Acme Ltd and Beta LLC", contractFields)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.prompts).To(HaveLen(1))
		Expect(fields).To(HaveLen(3))
		Expect(*fields[0].NormalizedValue).To(Equal("Acme Ltd"))
	})

	It("splits long documents and keeps the most confident value", func() {
		model := &promptModel{answer: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "FIRST"):
				return `[{"field_id": "party_a", "raw_value": "Acme", "confidence_score": 0.6},
					{"field_id": "fee", "raw_value": "", "confidence_score": 0.99}]`, nil
			case strings.Contains(prompt, "SECOND"):
				return `[{"field_id": "party_a", "raw_value": "Acme Ltd", "confidence_score": 0.9},
					{"field_id": "fee", "raw_value": "100", "confidence_score": 0.4}]`, nil
			}
			return `[]`, nil
		}}
		ex := &extraction.Extractor{Model: model, Logger: logger, ChunkSize: 20, ChunkOverlap: 2, Concurrency: 2}

		text := "FIRST" + strings.Repeat(".", 15) + "SECOND" + strings.Repeat(".", 14)
		fields, err := ex.Extract(context.Background(), text, contractFields)
		Expect(err).NotTo(HaveOccurred())
		Expect(len(model.prompts)).To(BeNumerically(">", 1))

		Expect(*fields[0].RawValue).To(Equal("Acme Ltd"))
		Expect(fields[0].ConfidenceScore).To(Equal(0.9))
		Expect(fields[1].RawValue).To(BeNil())
		Expect(*fields[2].RawValue).To(Equal("100"))
	})

	It("wraps model failures as extraction errors", func() {
		model := &promptModel{answer: func(string) (string, error) {
			return "", errors.New("quota exceeded")
		}}
		ex := extraction.NewExtractor(model, 1, logger)

		_, err := ex.Extract(context.Background(), "text", contractFields)
		var extractionErr *extraction.Error
		Expect(errors.As(err, &extractionErr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("quota exceeded"))
	})

	It("wraps unparseable answers as extraction errors", func() {
		model := &promptModel{answer: func(string) (string, error) {
			return "no idea", nil
		}}
		ex := extraction.NewExtractor(model, 1, logger)

		_, err := ex.Extract(context.Background(), "text", contractFields)
		var extractionErr *extraction.Error
		Expect(errors.As(err, &extractionErr)).To(BeTrue())
		Expect(err).To(MatchError(extraction.ErrNoJSONArray))
	})

	DescribeTable("leaves timeouts retryable",
		func(text string) {
			ex := &extraction.Extractor{Model: stalledModel{}, Logger: logger, ChunkSize: 20, ChunkOverlap: 2, Concurrency: 2}
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := ex.Extract(ctx, text, contractFields)
			Expect(err).To(MatchError(context.DeadlineExceeded))

			var extractionErr *extraction.Error
			Expect(errors.As(err, &extractionErr)).To(BeFalse())
		},
		Entry("single chunk", "short text"),
		Entry("many chunks", strings.Repeat("x", 100)),
	)

	It("keeps chunk failures as extraction errors", func() {
		model := &promptModel{answer: func(string) (string, error) {
			return "", errors.New("quota exceeded")
		}}
		ex := &extraction.Extractor{Model: model, Logger: logger, ChunkSize: 20, ChunkOverlap: 2, Concurrency: 2}

		_, err := ex.Extract(context.Background(), strings.Repeat("x", 100), contractFields)
		var extractionErr *extraction.Error
		Expect(errors.As(err, &extractionErr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("quota exceeded"))
	})
})

var _ = Describe("MergeChunkResults", func() {
	It("fills fields no chunk found", func() {
		merged := extraction.MergeChunkResults(nil, contractFields)
		Expect(merged).To(HaveLen(3))
		for _, f := range merged {
			Expect(f.RawValue).To(BeNil())
			Expect(f.ConfidenceScore).To(BeZero())
		}
	})

	It("ignores empty values even when confident", func() {
		results := [][]models.ExtractedField{
			{{FieldID: "fee", RawValue: ptr(""), ConfidenceScore: 1}},
			{{FieldID: "fee", RawValue: ptr("12"), ConfidenceScore: 0.3}},
		}
		merged := extraction.MergeChunkResults(results, contractFields)
		Expect(*merged[2].RawValue).To(Equal("12"))
	})
})
