package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeParseDocument    = "document:parse"
	TypeExtractDocument  = "document:extract"
	TypeReextractProject = "project:reextract"
)

type ParseDocumentPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}

func NewParseDocumentTask(documentID uuid.UUID, opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(ParseDocumentPayload{DocumentID: documentID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeParseDocument, payloadBytes, opts...), nil
}

type ExtractDocumentPayload struct {
	DocumentID      uuid.UUID `json:"document_id"`
	FieldTemplateID uuid.UUID `json:"field_template_id"`
}

func NewExtractDocumentTask(documentID, templateID uuid.UUID, opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(ExtractDocumentPayload{
		DocumentID:      documentID,
		FieldTemplateID: templateID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeExtractDocument, payloadBytes, opts...), nil
}

type ReextractProjectPayload struct {
	ProjectID uuid.UUID `json:"project_id"`
}

func NewReextractProjectTask(projectID uuid.UUID, opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(ReextractProjectPayload{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeReextractProject, payloadBytes, opts...), nil
}
