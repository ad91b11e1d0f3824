package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewRecord is a reviewer's verdict on one extracted field.
type ReviewRecord struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ExtractedRecordID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_review_record_field" json:"extracted_record_id"`
	FieldID           string       `gorm:"size:100;not null;uniqueIndex:idx_review_record_field" json:"field_id"`
	ReviewStatus      ReviewStatus `gorm:"size:20;not null" json:"review_status"`
	ManualValue       *string      `json:"manual_value"`
	ReviewerNotes     *string      `json:"reviewer_notes"`
	ReviewedBy        *string      `gorm:"size:100" json:"reviewed_by"`
	ReviewedAt        time.Time    `gorm:"not null;index" json:"reviewed_at"`
}

func (r *ReviewRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.ReviewedAt.IsZero() {
		r.ReviewedAt = time.Now().UTC()
	}
	return nil
}

// ReviewInput is the reviewer-supplied part of a ReviewRecord.
type ReviewInput struct {
	ExtractedRecordID uuid.UUID
	FieldID           string
	ReviewStatus      ReviewStatus
	ManualValue       *string
	ReviewerNotes     *string
	ReviewedBy        *string
}

// UpsertReview creates the review for (record, field) or overwrites the
// existing one. created reports which of the two happened.
func UpsertReview(db *gorm.DB, in ReviewInput) (review *ReviewRecord, created bool, err error) {
	var existing ReviewRecord
	err = db.Where("extracted_record_id = ? AND field_id = ?", in.ExtractedRecordID, in.FieldID).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if err == nil {
		existing.ReviewStatus = in.ReviewStatus
		existing.ManualValue = in.ManualValue
		existing.ReviewerNotes = in.ReviewerNotes
		if in.ReviewedBy != nil {
			existing.ReviewedBy = in.ReviewedBy
		}
		existing.ReviewedAt = time.Now().UTC()

		if err := db.Save(&existing).Error; err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}

	review = &ReviewRecord{
		ExtractedRecordID: in.ExtractedRecordID,
		FieldID:           in.FieldID,
		ReviewStatus:      in.ReviewStatus,
		ManualValue:       in.ManualValue,
		ReviewerNotes:     in.ReviewerNotes,
		ReviewedBy:        in.ReviewedBy,
	}
	if err := db.Create(review).Error; err != nil {
		return nil, false, err
	}

	return review, true, nil
}

func ListExtractionReviews(db *gorm.DB, extractedRecordID uuid.UUID) ([]ReviewRecord, error) {
	reviews := make([]ReviewRecord, 0)
	err := db.Where("extracted_record_id = ?", extractedRecordID).Order("reviewed_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

// GetReviewsByRecord loads the reviews of all given records grouped by
// record id and then by field id.
func GetReviewsByRecord(db *gorm.DB, recordIDs []uuid.UUID) (map[uuid.UUID]map[string]ReviewRecord, error) {
	grouped := make(map[uuid.UUID]map[string]ReviewRecord)
	if len(recordIDs) == 0 {
		return grouped, nil
	}

	var reviews []ReviewRecord
	if err := db.Where("extracted_record_id IN ?", recordIDs).Find(&reviews).Error; err != nil {
		return nil, err
	}

	for _, r := range reviews {
		if grouped[r.ExtractedRecordID] == nil {
			grouped[r.ExtractedRecordID] = make(map[string]ReviewRecord)
		}
		grouped[r.ExtractedRecordID][r.FieldID] = r
	}

	return grouped, nil
}
