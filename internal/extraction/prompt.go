package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"legalreview/models"
)

// maxPromptText caps how much document text goes into one prompt.
const maxPromptText = 30000

type outputExample struct {
	FieldID         string            `json:"field_id"`
	RawValue        string            `json:"raw_value"`
	ConfidenceScore float64           `json:"confidence_score"`
	Citations       []models.Citation `json:"citations"`
}

// BuildPrompt renders the extraction prompt for text and fields.
func BuildPrompt(text string, fields []models.FieldDefinition) string {
	descriptions := make([]string, 0, len(fields))
	for _, f := range fields {
		required := "No"
		if f.Required {
			required = "Yes"
		}

		description := "Extract this field value"
		if f.ExtractionPrompt != nil && *f.ExtractionPrompt != "" {
			description = *f.ExtractionPrompt
		}

		rules := f.ValidationRules
		if rules == nil {
			rules = map[string]any{}
		}
		rulesJSON, _ := json.Marshal(rules)

		descriptions = append(descriptions, fmt.Sprintf(
			"- **%s** (ID: `%s`)\n  - Type: %s\n  - Required: %s\n  - Description: %s\n  - Validation: %s",
			f.FieldName, f.FieldID, f.FieldType, required, description, rulesJSON,
		))
	}

	examples := make([]outputExample, 0, 2)
	for i, f := range fields {
		if i == 2 {
			break
		}
		examples = append(examples, outputExample{
			FieldID:         f.FieldID,
			RawValue:        "<extracted value>",
			ConfidenceScore: 0.95,
			Citations: []models.Citation{{
				Source:      "page 1, section 2",
				TextSnippet: "<relevant text snippet>",
			}},
		})
	}
	examplesJSON, _ := json.MarshalIndent(examples, "", "  ")

	var b strings.Builder
	b.WriteString("You are a legal document analysis AI specialized in extracting structured information from legal documents.\n\n")
	b.WriteString("**TASK**: Extract the following fields from the provided document:\n\n")
	b.WriteString(strings.Join(descriptions, "\n"))
	b.WriteString("\n\n**DOCUMENT TEXT**:\n```\n")
	b.WriteString(truncateRunes(text, maxPromptText))
	b.WriteString("\n```\n\n")
	b.WriteString(`**EXTRACTION INSTRUCTIONS**:
1. For each field, extract the most relevant value from the document
2. If a field value is not found, set raw_value to null
3. Provide a confidence score (0.0 to 1.0) for each extraction
4. Include citations showing where in the document you found the information
5. For DATE fields, normalize to YYYY-MM-DD format
6. For NUMBER fields, extract numeric values only
7. For BOOLEAN fields, return "true" or "false"
8. For LIST fields, return comma-separated values

**OUTPUT FORMAT** (JSON array):
` + "```json\n")
	b.Write(examplesJSON)
	b.WriteString("\n```\n\n")
	b.WriteString(`**IMPORTANT**:
- Return ONLY the JSON array, no additional text
- Include ALL fields from the list, even if value is null
- Be precise with citations - include page numbers or section references
- Confidence should reflect certainty of extraction

**YOUR JSON OUTPUT**:
` + "```json\n")

	return b.String()
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
