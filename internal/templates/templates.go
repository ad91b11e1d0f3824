// Package templates loads field templates from YAML files and applies them
// to the database.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"legalreview/models"
)

// File is the on-disk form of a field template.
type File struct {
	Name   string                   `yaml:"name"`
	Fields []models.FieldDefinition `yaml:"fields"`
}

type Outcome string

const (
	Created   Outcome = "created"
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
)

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}

	if strings.TrimSpace(f.Name) == "" {
		return nil, fmt.Errorf("%s: template name is required", path)
	}
	if err := models.ValidateFieldDefinitions(f.Fields); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &f, nil
}

// LoadDir loads every .yaml and .yml file in dir, in file name order.
func LoadDir(dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([]*File, 0, len(names))
	for _, name := range names {
		f, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	return files, nil
}

// Upsert creates the template named by f, or bumps the version of the
// existing one when its fields differ.
func Upsert(db *gorm.DB, f *File) (*models.FieldTemplate, Outcome, error) {
	existing, err := models.GetFieldTemplateByName(db, f.Name)
	if err != nil {
		return nil, "", err
	}

	if existing == nil {
		created, err := models.CreateFieldTemplate(db, f.Name, f.Fields)
		if err != nil {
			return nil, "", err
		}
		return created, Created, nil
	}

	changed, err := models.UpdateFieldTemplateFields(db, existing, f.Fields)
	if err != nil {
		return nil, "", err
	}
	if !changed {
		return existing, Unchanged, nil
	}

	return existing, Updated, nil
}
