package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNoFields         = errors.New("Template must define at least one field")
	ErrDuplicateFieldID = errors.New("Field IDs must be unique within template")

	ErrInvalidFieldDefinition = errors.New("invalid field definition")
)

// FieldDefinition describes one column of the review table and tells the
// extractor what to look for.
type FieldDefinition struct {
	FieldID          string         `json:"field_id" yaml:"field_id" binding:"required"`
	FieldName        string         `json:"field_name" yaml:"field_name" binding:"required"`
	FieldType        FieldType      `json:"field_type" yaml:"field_type" binding:"required"`
	Required         bool           `json:"required" yaml:"required"`
	ValidationRules  map[string]any `json:"validation_rules,omitempty" yaml:"validation_rules,omitempty"`
	Normalization    *string        `json:"normalization,omitempty" yaml:"normalization,omitempty"`
	ExtractionPrompt *string        `json:"extraction_prompt,omitempty" yaml:"extraction_prompt,omitempty"`
}

// FieldTemplate is a versioned extraction schema shared by projects.
type FieldTemplate struct {
	Generic

	Name    string            `gorm:"size:255;not null;index" json:"name"`
	Version int               `gorm:"not null;default:1" json:"version"`
	Fields  []FieldDefinition `gorm:"type:jsonb;serializer:json;not null" json:"fields"`
}

// ValidateFieldDefinitions checks the invariants every stored template holds.
func ValidateFieldDefinitions(fields []FieldDefinition) error {
	if len(fields) == 0 {
		return ErrNoFields
	}

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.FieldID == "" || f.FieldName == "" {
			return fmt.Errorf("%w: field_id and field_name are required", ErrInvalidFieldDefinition)
		}
		if !f.FieldType.Valid() {
			return fmt.Errorf("%w: field %q has invalid field_type %q", ErrInvalidFieldDefinition, f.FieldID, f.FieldType)
		}
		if _, ok := seen[f.FieldID]; ok {
			return ErrDuplicateFieldID
		}
		seen[f.FieldID] = struct{}{}
	}

	return nil
}

// FieldsEqual reports whether two definition lists are equivalent. Empty and
// missing validation rules compare equal, and rules are compared in their
// stored JSON form so YAML integers match jsonb numbers.
func FieldsEqual(a, b []FieldDefinition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(normalizedDefinition(a[i]), normalizedDefinition(b[i])) {
			return false
		}
	}
	return true
}

func normalizedDefinition(f FieldDefinition) FieldDefinition {
	if len(f.ValidationRules) == 0 {
		f.ValidationRules = nil
		return f
	}

	data, err := json.Marshal(f.ValidationRules)
	if err != nil {
		return f
	}
	var rules map[string]any
	if err := json.Unmarshal(data, &rules); err == nil {
		f.ValidationRules = rules
	}
	return f
}

// Field returns the definition with the given id.
func (t *FieldTemplate) Field(fieldID string) (FieldDefinition, bool) {
	for _, f := range t.Fields {
		if f.FieldID == fieldID {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

func (t *FieldTemplate) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.FieldName)
	}
	return names
}

func CreateFieldTemplate(db *gorm.DB, name string, fields []FieldDefinition) (*FieldTemplate, error) {
	if err := ValidateFieldDefinitions(fields); err != nil {
		return nil, err
	}

	template := FieldTemplate{
		Name:    name,
		Version: 1,
		Fields:  fields,
	}

	if err := db.Create(&template).Error; err != nil {
		return nil, err
	}

	return &template, nil
}

func GetFieldTemplateByID(db *gorm.DB, id uuid.UUID) (*FieldTemplate, error) {
	var template FieldTemplate
	err := db.Where("id = ?", id).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &template, nil
}

func GetFieldTemplateByName(db *gorm.DB, name string) (*FieldTemplate, error) {
	var template FieldTemplate
	err := db.Where("name = ?", name).Order("created_at ASC").First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &template, nil
}

func ListFieldTemplates(db *gorm.DB, offset, limit int) ([]FieldTemplate, error) {
	templates := make([]FieldTemplate, 0)
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&templates).Error
	if err != nil {
		return nil, err
	}

	return templates, nil
}

// UpdateFieldTemplateFields replaces the definitions and bumps the version
// when they differ from the stored ones. It reports whether anything
// changed.
func UpdateFieldTemplateFields(db *gorm.DB, template *FieldTemplate, fields []FieldDefinition) (bool, error) {
	return UpdateFieldTemplate(db, template, nil, fields)
}

// UpdateFieldTemplate applies a rename and a field change in one
// transaction. A nil name or nil fields leaves that part alone. The
// returned bool reports whether the fields, and so the version, changed.
func UpdateFieldTemplate(db *gorm.DB, template *FieldTemplate, name *string, fields []FieldDefinition) (bool, error) {
	fieldsChanged := false
	if fields != nil {
		if err := ValidateFieldDefinitions(fields); err != nil {
			return false, err
		}
		fieldsChanged = !FieldsEqual(template.Fields, fields)
	}
	renamed := name != nil && *name != template.Name

	if !renamed && !fieldsChanged {
		return false, nil
	}

	updated := *template
	if renamed {
		updated.Name = *name
	}
	if fieldsChanged {
		updated.Fields = fields
		updated.Version++
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if renamed {
			if err := tx.Model(&updated).Update("name", updated.Name).Error; err != nil {
				return err
			}
		}
		if fieldsChanged {
			return tx.Model(&updated).Select("fields", "version", "updated_at").Updates(&updated).Error
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	*template = updated
	return fieldsChanged, nil
}

// TemplateInUse reports whether any project references the template.
func TemplateInUse(db *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&Project{}).Where("field_template_id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func DeleteFieldTemplate(db *gorm.DB, template *FieldTemplate) error {
	return db.Delete(template).Error
}
