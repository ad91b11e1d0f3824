package models

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Citation struct {
	Source      string `json:"source"`
	TextSnippet string `json:"text_snippet"`
}

// ExtractedField is the model output for one field of the template.
type ExtractedField struct {
	FieldID         string     `json:"field_id"`
	RawValue        *string    `json:"raw_value"`
	NormalizedValue *string    `json:"normalized_value"`
	ConfidenceScore float64    `json:"confidence_score"`
	Citations       []Citation `json:"citations"`
}

// ExtractedRecord holds one extraction run of a document against a
// template. There is at most one record per (document, template); reruns
// overwrite it.
type ExtractedRecord struct {
	Generic

	DocumentID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_extracted_document_template" json:"document_id"`
	Document         *Document        `json:"-"`
	FieldTemplateID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_extracted_document_template" json:"field_template_id"`
	FieldTemplate    *FieldTemplate   `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	TemplateVersion  int              `gorm:"not null;default:1" json:"template_version"`
	ExtractionStatus ExtractionStatus `gorm:"size:20;not null;default:PENDING" json:"extraction_status"`
	ExtractedFields  []ExtractedField `gorm:"type:jsonb;serializer:json" json:"extracted_fields"`
	ErrorMessage     *string          `json:"error_message"`

	ReviewRecords []ReviewRecord `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// HasField reports whether the extraction produced an entry for fieldID.
// A record with no fields yet accepts any field.
func (r *ExtractedRecord) HasField(fieldID string) bool {
	if len(r.ExtractedFields) == 0 {
		return true
	}
	_, ok := r.Field(fieldID)
	return ok
}

func (r *ExtractedRecord) Field(fieldID string) (ExtractedField, bool) {
	for _, f := range r.ExtractedFields {
		if f.FieldID == fieldID {
			return f, true
		}
	}
	return ExtractedField{}, false
}

func GetExtractedRecordByID(db *gorm.DB, id uuid.UUID) (*ExtractedRecord, error) {
	var record ExtractedRecord
	err := db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &record, nil
}

func GetExtractedRecord(db *gorm.DB, documentID, templateID uuid.UUID) (*ExtractedRecord, error) {
	var record ExtractedRecord
	err := db.Where("document_id = ? AND field_template_id = ?", documentID, templateID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &record, nil
}

func GetLatestDocumentExtraction(db *gorm.DB, documentID uuid.UUID) (*ExtractedRecord, error) {
	var record ExtractedRecord
	err := db.Where("document_id = ?", documentID).Order("created_at DESC").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &record, nil
}

func ListDocumentExtractions(db *gorm.DB, documentID uuid.UUID) ([]ExtractedRecord, error) {
	records := make([]ExtractedRecord, 0)
	err := db.Where("document_id = ?", documentID).Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// GetProjectExtractions returns the records of every project document for
// the given template, keyed by document id.
func GetProjectExtractions(db *gorm.DB, projectID, templateID uuid.UUID) (map[uuid.UUID]ExtractedRecord, error) {
	var records []ExtractedRecord
	err := db.Joins("JOIN documents ON documents.id = extracted_records.document_id").
		Where("documents.project_id = ? AND extracted_records.field_template_id = ?", projectID, templateID).
		Order("extracted_records.created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	byDocument := make(map[uuid.UUID]ExtractedRecord, len(records))
	for _, r := range records {
		byDocument[r.DocumentID] = r
	}

	return byDocument, nil
}

// StartExtraction creates the (document, template) record, or resets an
// existing one, in the IN_PROGRESS state.
func StartExtraction(db *gorm.DB, documentID, templateID uuid.UUID, templateVersion int) (*ExtractedRecord, error) {
	record := ExtractedRecord{
		DocumentID:       documentID,
		FieldTemplateID:  templateID,
		TemplateVersion:  templateVersion,
		ExtractionStatus: ExtractionInProgress,
	}
	record.ID = uuid.New()

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}, {Name: "field_template_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"extraction_status": ExtractionInProgress,
			"template_version":  templateVersion,
			"error_message":     nil,
			"updated_at":        gorm.Expr("NOW()"),
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	return GetExtractedRecord(db, documentID, templateID)
}

func CompleteExtraction(db *gorm.DB, record *ExtractedRecord, fields []ExtractedField) error {
	record.ExtractedFields = fields
	record.ExtractionStatus = ExtractionCompleted
	record.ErrorMessage = nil

	return db.Model(record).Select("extracted_fields", "extraction_status", "error_message").Updates(record).Error
}

func FailExtraction(db *gorm.DB, record *ExtractedRecord, message string) error {
	record.ExtractionStatus = ExtractionFailed
	record.ErrorMessage = &message

	return db.Model(record).Select("extraction_status", "error_message").Updates(record).Error
}
