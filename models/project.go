package models

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project groups documents that are reviewed against the same field
// template.
type Project struct {
	Generic

	Name            string         `gorm:"size:255;not null;index" json:"name"`
	Description     *string        `json:"description"`
	FieldTemplateID *uuid.UUID     `gorm:"type:uuid;index" json:"field_template_id"`
	FieldTemplate   *FieldTemplate `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Status          ProjectStatus  `gorm:"size:20;not null;default:ACTIVE" json:"status"`

	Documents         []Document         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	EvaluationResults []EvaluationResult `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ProjectStats are the counters shown on the project detail page.
type ProjectStats struct {
	DocumentCount  int64 `json:"document_count"`
	ExtractedCount int64 `json:"extracted_count"`
	PendingCount   int64 `json:"pending_count"`
}

func CreateProject(db *gorm.DB, name string, description *string, templateID *uuid.UUID) (*Project, error) {
	project := Project{
		Name:            name,
		Description:     description,
		FieldTemplateID: templateID,
		Status:          ProjectActive,
	}

	if err := db.Create(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

func GetProjectByID(db *gorm.DB, id uuid.UUID) (*Project, error) {
	var project Project
	err := db.Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &project, nil
}

func GetActiveProjectByID(db *gorm.DB, id uuid.UUID) (*Project, error) {
	var project Project
	err := db.Where("id = ? AND status = ?", id, ProjectActive).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &project, nil
}

func ListProjects(db *gorm.DB, offset, limit int) ([]Project, error) {
	projects := make([]Project, 0)
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return projects, nil
}

// GetActiveProjectsUsingTemplate returns the projects whose extractions must
// be refreshed when the template changes.
func GetActiveProjectsUsingTemplate(db *gorm.DB, templateID uuid.UUID) ([]Project, error) {
	projects := make([]Project, 0)
	err := db.Where("field_template_id = ? AND status = ?", templateID, ProjectActive).Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return projects, nil
}

func GetProjectStats(db *gorm.DB, projectID uuid.UUID) (*ProjectStats, error) {
	var stats ProjectStats

	err := db.Model(&Document{}).Where("project_id = ?", projectID).Count(&stats.DocumentCount).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&ExtractedRecord{}).
		Joins("JOIN documents ON documents.id = extracted_records.document_id").
		Where("documents.project_id = ? AND extracted_records.extraction_status = ?", projectID, ExtractionCompleted).
		Distinct("extracted_records.id").
		Count(&stats.ExtractedCount).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&Document{}).
		Joins("LEFT JOIN extracted_records ON extracted_records.document_id = documents.id").
		Where("documents.project_id = ?", projectID).
		Where("extracted_records.id IS NULL OR extracted_records.extraction_status IN ?",
			[]ExtractionStatus{ExtractionPending, ExtractionInProgress}).
		Distinct("documents.id").
		Count(&stats.PendingCount).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func SaveProject(db *gorm.DB, project *Project) error {
	return db.Save(project).Error
}
