package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EvaluationMetrics struct {
	FieldAccuracy  float64            `json:"field_accuracy"`
	ExactMatch     float64            `json:"exact_match"`
	Coverage       float64            `json:"coverage"`
	PerFieldScores map[string]float64 `json:"per_field_scores"`
}

type EvaluationResult struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"project_id"`
	EvaluationType  string            `gorm:"size:50;not null" json:"evaluation_type"`
	Metrics         EvaluationMetrics `gorm:"type:jsonb;serializer:json;not null" json:"metrics"`
	HumanLabelsPath *string           `json:"-"`
	CreatedAt       time.Time         `gorm:"not null;index" json:"created_at"`
}

func (e *EvaluationResult) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func CreateEvaluationResult(db *gorm.DB, result *EvaluationResult) error {
	return db.Create(result).Error
}

func ListProjectEvaluations(db *gorm.DB, projectID uuid.UUID) ([]EvaluationResult, error) {
	results := make([]EvaluationResult, 0)
	err := db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}

	return results, nil
}
