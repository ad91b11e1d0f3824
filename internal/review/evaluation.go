package review

import (
	"strings"

	"github.com/google/uuid"

	"legalreview/models"
)

// Label is a human-provided ground truth for one document field.
type Label struct {
	DocumentID  uuid.UUID `json:"document_id" binding:"required"`
	FieldID     string    `json:"field_id" binding:"required"`
	GroundTruth string    `json:"ground_truth"`
}

// Evaluate scores the table's final values against labels.
func Evaluate(table *Table, labels []Label) models.EvaluationMetrics {
	metrics := models.EvaluationMetrics{PerFieldScores: map[string]float64{}}
	if len(labels) == 0 {
		return metrics
	}

	var exact, matched, covered int
	fieldTotal := map[string]int{}
	fieldMatched := map[string]int{}

	for _, label := range labels {
		fieldTotal[label.FieldID]++

		predicted := table.FinalValue(label.DocumentID, label.FieldID)
		if predicted == nil {
			continue
		}
		covered++

		if *predicted == label.GroundTruth {
			exact++
		}
		if canonical(*predicted) == canonical(label.GroundTruth) {
			matched++
			fieldMatched[label.FieldID]++
		}
	}

	total := float64(len(labels))
	metrics.ExactMatch = float64(exact) / total
	metrics.FieldAccuracy = float64(matched) / total
	metrics.Coverage = float64(covered) / total
	for fieldID, n := range fieldTotal {
		metrics.PerFieldScores[fieldID] = float64(fieldMatched[fieldID]) / float64(n)
	}

	return metrics
}

func canonical(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
