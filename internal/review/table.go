// Package review assembles the document by field review table and scores
// it against human labels.
package review

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"legalreview/models"
)

// Cell is one document's value for one template field.
type Cell struct {
	FieldName       string              `json:"field_name"`
	ExtractedValue  *string             `json:"extracted_value"`
	NormalizedValue *string             `json:"normalized_value"`
	ConfidenceScore float64             `json:"confidence_score"`
	ReviewStatus    models.ReviewStatus `json:"review_status"`
	ManualValue     *string             `json:"manual_value"`
	FinalValue      *string             `json:"final_value"`
	Citations       []models.Citation   `json:"citations"`
}

type Row struct {
	DocumentID   uuid.UUID       `json:"document_id"`
	DocumentName string          `json:"document_name"`
	Fields       map[string]Cell `json:"fields"`
}

type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`

	fieldIDs []string
}

// BuildTable lays documents out as rows and template fields as columns.
// extractions is keyed by document id, reviews by extracted record id then
// field id.
func BuildTable(
	template *models.FieldTemplate,
	documents []models.Document,
	extractions map[uuid.UUID]models.ExtractedRecord,
	reviews map[uuid.UUID]map[string]models.ReviewRecord,
) *Table {
	table := &Table{
		Columns:  template.FieldNames(),
		Rows:     make([]Row, 0, len(documents)),
		fieldIDs: make([]string, 0, len(template.Fields)),
	}
	for _, f := range template.Fields {
		table.fieldIDs = append(table.fieldIDs, f.FieldID)
	}

	for _, doc := range documents {
		row := Row{
			DocumentID:   doc.ID,
			DocumentName: doc.Filename,
			Fields:       make(map[string]Cell, len(template.Fields)),
		}

		record, ok := extractions[doc.ID]
		completed := ok && record.ExtractionStatus == models.ExtractionCompleted

		for _, def := range template.Fields {
			if !completed {
				row.Fields[def.FieldID] = emptyCell(def.FieldName, models.ReviewNotExtracted)
				continue
			}

			review, reviewed := reviews[record.ID][def.FieldID]
			row.Fields[def.FieldID] = fieldCell(def, record, review, reviewed)
		}

		table.Rows = append(table.Rows, row)
	}

	return table
}

func fieldCell(def models.FieldDefinition, record models.ExtractedRecord, review models.ReviewRecord, reviewed bool) Cell {
	extracted, found := record.Field(def.FieldID)
	if !found {
		cell := emptyCell(def.FieldName, models.ReviewMissingData)
		if reviewed {
			cell.ManualValue = review.ManualValue
			cell.FinalValue = review.ManualValue
		}
		return cell
	}

	cell := Cell{
		FieldName:       def.FieldName,
		ExtractedValue:  extracted.RawValue,
		NormalizedValue: extracted.NormalizedValue,
		ConfidenceScore: extracted.ConfidenceScore,
		ReviewStatus:    models.ReviewPending,
		FinalValue:      extracted.NormalizedValue,
		Citations:       extracted.Citations,
	}
	if cell.Citations == nil {
		cell.Citations = []models.Citation{}
	}

	if reviewed {
		cell.ReviewStatus = review.ReviewStatus
		cell.ManualValue = review.ManualValue
		if review.ManualValue != nil && *review.ManualValue != "" {
			cell.FinalValue = review.ManualValue
		}
	}

	return cell
}

func emptyCell(name string, status models.ReviewStatus) Cell {
	return Cell{
		FieldName:    name,
		ReviewStatus: status,
		Citations:    []models.Citation{},
	}
}

// FinalValue returns the value a reviewer signed off on for one document
// and field, or nil.
func (t *Table) FinalValue(documentID uuid.UUID, fieldID string) *string {
	for _, row := range t.Rows {
		if row.DocumentID != documentID {
			continue
		}
		if cell, ok := row.Fields[fieldID]; ok {
			return cell.FinalValue
		}
		return nil
	}
	return nil
}

// LoadTable reads the project's documents, their extractions against
// template and any reviews, and builds the table.
func LoadTable(db *gorm.DB, projectID uuid.UUID, template *models.FieldTemplate) (*Table, error) {
	documents, err := models.GetProjectDocumentsInUploadOrder(db, projectID)
	if err != nil {
		return nil, err
	}

	extractions, err := models.GetProjectExtractions(db, projectID, template.ID)
	if err != nil {
		return nil, err
	}

	recordIDs := make([]uuid.UUID, 0, len(extractions))
	for _, record := range extractions {
		recordIDs = append(recordIDs, record.ID)
	}

	reviews, err := models.GetReviewsByRecord(db, recordIDs)
	if err != nil {
		return nil, err
	}

	return BuildTable(template, documents, extractions, reviews), nil
}
