package extraction_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"legalreview/internal/extraction"
	"legalreview/models"
)

var contractFields = []models.FieldDefinition{
	{FieldID: "party_a", FieldName: "Party A", FieldType: models.FieldText, Required: true},
	{FieldID: "effective_date", FieldName: "Effective Date", FieldType: models.FieldDate},
	{FieldID: "fee", FieldName: "Fee", FieldType: models.FieldNumber},
}

var _ = Describe("ParseResponse", func() {
	It("reads a fenced JSON block and keeps template order", func() {
		response := "Here you go:\n```json\n" + `[
  {"field_id": "fee", "raw_value": "1,000", "confidence_score": 0.7, "citations": [{"source": "page 2", "text_snippet": "fee of 1,000"}]},
  {"field_id": "party_a", "raw_value": "Acme Ltd", "confidence_score": 0.9}
]` + "\n```"

		fields, err := extraction.ParseResponse(response, contractFields)
		Expect(err).NotTo(HaveOccurred())
		Expect(fields).To(HaveLen(3))

		Expect(fields[0].FieldID).To(Equal("party_a"))
		Expect(*fields[0].RawValue).To(Equal("Acme Ltd"))
		Expect(fields[0].ConfidenceScore).To(Equal(0.9))
		Expect(fields[0].Citations).To(BeEmpty())

		Expect(fields[1].FieldID).To(Equal("effective_date"))
		Expect(fields[1].RawValue).To(BeNil())
		Expect(fields[1].NormalizedValue).To(BeNil())
		Expect(fields[1].ConfidenceScore).To(BeZero())

		Expect(*fields[2].NormalizedValue).To(Equal("1000"))
		Expect(fields[2].Citations).To(ConsistOf(models.Citation{Source: "page 2", TextSnippet: "fee of 1,000"}))
	})

	It("falls back to a bare array", func() {
		fields, err := extraction.ParseResponse(`[{"field_id": "fee", "raw_value": 250}]`, contractFields)
		Expect(err).NotTo(HaveOccurred())
		Expect(*fields[2].RawValue).To(Equal("250"))
		Expect(fields[2].ConfidenceScore).To(Equal(0.5))
	})

	It("clamps confidence and drops unknown or duplicate fields", func() {
		response := `[
			{"field_id": "party_a", "raw_value": "Acme", "confidence_score": 1.7},
			{"field_id": "party_a", "raw_value": "Other", "confidence_score": 0.2},
			{"field_id": "governing_law", "raw_value": "England"},
			{"raw_value": "orphan"},
			{"field_id": "fee", "raw_value": "5", "confidence_score": "-3"}
		]`

		fields, err := extraction.ParseResponse(response, contractFields)
		Expect(err).NotTo(HaveOccurred())
		Expect(fields).To(HaveLen(3))
		Expect(*fields[0].RawValue).To(Equal("Acme"))
		Expect(fields[0].ConfidenceScore).To(Equal(1.0))
		Expect(fields[2].ConfidenceScore).To(BeZero())
	})

	It("fails without a JSON array", func() {
		_, err := extraction.ParseResponse("I could not find anything.", contractFields)
		Expect(err).To(MatchError(extraction.ErrNoJSONArray))
	})

	It("fails on malformed JSON", func() {
		_, err := extraction.ParseResponse(`[{"field_id": }]`, contractFields)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Failed to parse LLM response as JSON"))
	})
})

var _ = Describe("BuildPrompt", func() {
	It("describes every field and shows two examples", func() {
		prompt := extraction.BuildPrompt("This Agreement is made between Acme Ltd and Beta LLC.", contractFields)

		Expect(prompt).To(ContainSubstring("- **Party A** (ID: `party_a`)"))
		Expect(prompt).To(ContainSubstring("  - Required: Yes"))
		Expect(prompt).To(ContainSubstring("  - Description: Extract this field value"))
		Expect(prompt).To(ContainSubstring("  - Validation: {}"))
		Expect(prompt).To(ContainSubstring("Acme Ltd and Beta LLC"))
		Expect(prompt).To(ContainSubstring(`"field_id": "effective_date"`))
		Expect(prompt).NotTo(ContainSubstring(`"field_id": "fee"`))
	})

	It("uses the field's own extraction prompt", func() {
		fields := []models.FieldDefinition{{
			FieldID: "term", FieldName: "Term", FieldType: models.FieldText,
			ExtractionPrompt: ptr("Initial term in months"),
		}}
		Expect(extraction.BuildPrompt("text", fields)).To(ContainSubstring("Description: Initial term in months"))
	})
})
