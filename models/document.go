package models

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Documents are uploaded legal files. FilePath is a storage key, not a
// filesystem path, so the same row works with any storage backend.
type Document struct {
	Generic

	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project      *Project       `json:"-"`
	Filename     string         `gorm:"size:500;not null" json:"filename"`
	FileType     string         `gorm:"size:50;not null" json:"file_type"`
	FileSize     int64          `gorm:"not null" json:"file_size"`
	FilePath     string         `gorm:"not null" json:"-"`
	UploadStatus UploadStatus   `gorm:"size:20;not null;default:UPLOADED" json:"upload_status"`
	ParsedText   *string        `json:"-"`
	FileMetadata map[string]any `gorm:"type:jsonb;serializer:json" json:"-"`
	ErrorMessage *string        `json:"error_message"`

	ExtractedRecords []ExtractedRecord `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func CreateDocument(db *gorm.DB, document *Document) error {
	if document.UploadStatus == "" {
		document.UploadStatus = UploadUploaded
	}

	return db.Create(document).Error
}

func GetDocumentByID(db *gorm.DB, id uuid.UUID) (*Document, error) {
	var document Document
	err := db.Where("id = ?", id).First(&document).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &document, nil
}

func ListProjectDocuments(db *gorm.DB, projectID uuid.UUID, offset, limit int) ([]Document, error) {
	documents := make([]Document, 0)
	err := db.Where("project_id = ?", projectID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&documents).Error
	if err != nil {
		return nil, err
	}

	return documents, nil
}

// GetProjectDocumentsInUploadOrder returns every document of the project,
// oldest first, as rows of the review table.
func GetProjectDocumentsInUploadOrder(db *gorm.DB, projectID uuid.UUID) ([]Document, error) {
	documents := make([]Document, 0)
	err := db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&documents).Error
	if err != nil {
		return nil, err
	}

	return documents, nil
}

func GetParsedProjectDocuments(db *gorm.DB, projectID uuid.UUID) ([]Document, error) {
	documents := make([]Document, 0)
	err := db.Where("project_id = ? AND upload_status = ?", projectID, UploadParsed).Order("created_at ASC").Find(&documents).Error
	if err != nil {
		return nil, err
	}

	return documents, nil
}

func SetDocumentStatus(db *gorm.DB, document *Document, status UploadStatus, errorMessage *string) error {
	document.UploadStatus = status
	document.ErrorMessage = errorMessage

	return db.Model(document).Updates(map[string]any{
		"upload_status": status,
		"error_message": errorMessage,
	}).Error
}

// MarkDocumentParsed stores the parser output and merges its metadata into
// whatever was recorded at upload time.
func MarkDocumentParsed(db *gorm.DB, document *Document, text string, metadata map[string]any) error {
	merged := make(map[string]any, len(document.FileMetadata)+len(metadata))
	for k, v := range document.FileMetadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}

	document.ParsedText = &text
	document.FileMetadata = merged
	document.UploadStatus = UploadParsed
	document.ErrorMessage = nil

	return db.Model(document).Select("parsed_text", "file_metadata", "upload_status", "error_message").Updates(document).Error
}

func DeleteDocument(db *gorm.DB, document *Document) error {
	return db.Delete(document).Error
}
