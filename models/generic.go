package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Generic carries the columns every table shares. IDs are generated on the
// application side so that storage keys can be derived before insert.
type Generic struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (g *Generic) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// AutoMigrate creates or updates every table in dependency order.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&FieldTemplate{},
		&Project{},
		&Document{},
		&ExtractedRecord{},
		&ReviewRecord{},
		&EvaluationResult{},
	)
}
