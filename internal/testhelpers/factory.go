package testhelpers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	g "github.com/onsi/gomega"
	"gorm.io/gorm"

	"legalreview/internal/storage"
	"legalreview/models"
)

// ContractFields is a small template used across specs.
var ContractFields = []models.FieldDefinition{
	{FieldID: "party_a", FieldName: "Party A", FieldType: models.FieldText, Required: true},
	{FieldID: "effective_date", FieldName: "Effective Date", FieldType: models.FieldDate},
	{FieldID: "fee", FieldName: "Fee", FieldType: models.FieldNumber},
}

func CreateTemplate(db *gorm.DB, name string) *models.FieldTemplate {
	template, err := models.CreateFieldTemplate(db, name, ContractFields)
	g.Expect(err).NotTo(g.HaveOccurred())
	return template
}

func CreateProject(db *gorm.DB, name string, templateID *uuid.UUID) *models.Project {
	project, err := models.CreateProject(db, name, nil, templateID)
	g.Expect(err).NotTo(g.HaveOccurred())
	return project
}

// CreateDocument stores content under the document's key and inserts the
// row with the given status.
func CreateDocument(db *gorm.DB, store storage.Storage, projectID uuid.UUID, filename, content string, status models.UploadStatus) *models.Document {
	document := &models.Document{
		ProjectID:    projectID,
		Filename:     filename,
		FileType:     strings.ToLower(filepath.Ext(filename)),
		UploadStatus: status,
		FileMetadata: map[string]any{"original_filename": filename},
	}
	document.ID = uuid.New()
	document.FilePath = storage.DocumentKey(projectID, document.ID, filename)

	if store != nil {
		n, err := store.Save(context.Background(), document.FilePath, strings.NewReader(content), 0)
		g.Expect(err).NotTo(g.HaveOccurred())
		document.FileSize = n
	}
	if status == models.UploadParsed {
		document.ParsedText = &content
	}

	g.Expect(models.CreateDocument(db, document)).To(g.Succeed())
	return document
}
