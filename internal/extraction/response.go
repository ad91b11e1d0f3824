package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"

	"legalreview/models"
)

var ErrNoJSONArray = errors.New("No JSON array found in response")

var (
	fencedArray = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")
	rawArray    = regexp.MustCompile(`(?s)(\[.*\])`)
)

const defaultConfidence = 0.5

// ParseResponse turns a model answer into one ExtractedField per template
// field, in template order. Entries for unknown fields are dropped and
// fields the model skipped come back empty with zero confidence.
func ParseResponse(response string, fields []models.FieldDefinition) ([]models.ExtractedField, error) {
	var payload string
	if m := fencedArray.FindStringSubmatch(response); m != nil {
		payload = m[1]
	} else if m := rawArray.FindStringSubmatch(response); m != nil {
		payload = m[1]
	} else {
		return nil, ErrNoJSONArray
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("Failed to parse LLM response as JSON: %w", err)
	}

	byID := make(map[string]models.ExtractedField, len(items))
	for _, item := range items {
		fieldID, _ := item["field_id"].(string)
		if fieldID == "" {
			continue
		}

		def, ok := fieldByID(fields, fieldID)
		if !ok {
			continue
		}
		if _, seen := byID[fieldID]; seen {
			continue
		}

		raw := stringValue(item["raw_value"])
		byID[fieldID] = models.ExtractedField{
			FieldID:         fieldID,
			RawValue:        raw,
			NormalizedValue: Normalize(raw, def.FieldType),
			ConfidenceScore: confidence(item["confidence_score"]),
			Citations:       citations(item["citations"]),
		}
	}

	out := make([]models.ExtractedField, 0, len(fields))
	for _, def := range fields {
		if f, ok := byID[def.FieldID]; ok {
			out = append(out, f)
			continue
		}
		out = append(out, emptyField(def.FieldID))
	}

	return out, nil
}

func emptyField(fieldID string) models.ExtractedField {
	return models.ExtractedField{
		FieldID:   fieldID,
		Citations: []models.Citation{},
	}
}

func fieldByID(fields []models.FieldDefinition, id string) (models.FieldDefinition, bool) {
	for _, f := range fields {
		if f.FieldID == id {
			return f, true
		}
	}
	return models.FieldDefinition{}, false
}

// stringValue renders scalar JSON values the way they appeared in the
// answer; models sometimes emit numbers and booleans unquoted.
func stringValue(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if ps := stringValue(p); ps != nil {
				parts = append(parts, *ps)
			}
		}
		s = strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		s = string(b)
	}
	return &s
}

func confidence(v any) float64 {
	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(parsed) {
			return defaultConfidence
		}
		c = parsed
	default:
		return defaultConfidence
	}

	return clamp(c, 0, 1)
}

func clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func citations(v any) []models.Citation {
	list, _ := v.([]any)
	out := make([]models.Citation, 0, len(list))
	for _, item := range list {
		switch t := item.(type) {
		case map[string]any:
			source, _ := t["source"].(string)
			snippet, _ := t["text_snippet"].(string)
			if source == "" && snippet == "" {
				continue
			}
			out = append(out, models.Citation{Source: source, TextSnippet: snippet})
		case string:
			if t != "" {
				out = append(out, models.Citation{TextSnippet: t})
			}
		}
	}
	return out
}
