// Package tasks holds the background jobs that parse uploaded documents and
// extract fields from them, plus the queue client the API uses to start
// them.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/internal/extraction"
	"legalreview/internal/parser"
	"legalreview/internal/storage"
	"legalreview/models"
)

const (
	parseRetryDelay   = 60 * time.Second
	extractRetryDelay = 120 * time.Second
)

// FieldExtractor pulls template fields out of document text.
type FieldExtractor interface {
	Extract(ctx context.Context, text string, fields []models.FieldDefinition) ([]models.ExtractedField, error)
}

// TaskProcessor holds dependencies for our task handlers
type TaskProcessor struct {
	DB        *gorm.DB
	Storage   storage.Storage
	Parser    *parser.Parser
	Extractor FieldExtractor
	Enqueuer  Enqueuer
	Logger    *zap.SugaredLogger
}

// RetryDelay waits a fixed time per task type between attempts.
func RetryDelay(n int, err error, t *asynq.Task) time.Duration {
	switch t.Type() {
	case TypeParseDocument:
		return parseRetryDelay
	case TypeExtractDocument:
		return extractRetryDelay
	}
	return asynq.DefaultRetryDelayFunc(n, err, t)
}

func (p *TaskProcessor) HandleParseDocumentTask(ctx context.Context, t *asynq.Task) error {
	var payload ParseDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	logger := p.Logger.With("document_id", payload.DocumentID, "task_id", taskID(t))
	logger.Infow("parsing document")

	document, err := models.GetDocumentByID(p.DB, payload.DocumentID)
	if err != nil {
		return err
	}
	if document == nil {
		logger.Errorw("document not found")
		writeResult(t, errorResult("Document not found"))
		return nil
	}

	if err := models.SetDocumentStatus(p.DB, document, models.UploadParsing, nil); err != nil {
		return err
	}

	result, err := p.parse(ctx, document)
	if err != nil {
		var parseErr *parser.Error
		if errors.As(err, &parseErr) {
			logger.Errorw("parsing failed", "error", err)
			p.failDocument(document, "Parsing failed: "+err.Error())
			writeResult(t, errorResult(err.Error()))
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}

		logger.Errorw("parse task failed", "error", err)
		p.failDocument(document, "Unexpected error: "+err.Error())
		return err
	}

	if err := models.MarkDocumentParsed(p.DB, document, result.Text, result.Metadata); err != nil {
		return err
	}

	logger.Infow("document parsed",
		"text_length", result.Metadata["text_length"],
		"word_count", result.Metadata["word_count"],
	)

	project, err := models.GetProjectByID(p.DB, document.ProjectID)
	if err != nil {
		logger.Errorw("failed to load project", "error", err)
	} else if project != nil && project.FieldTemplateID != nil {
		if _, err := p.Enqueuer.EnqueueExtractDocument(ctx, document.ID, *project.FieldTemplateID); err != nil {
			logger.Errorw("failed to enqueue extraction", "template_id", *project.FieldTemplateID, "error", err)
		} else {
			logger.Infow("extraction queued", "template_id", *project.FieldTemplateID)
		}
	}

	writeResult(t, map[string]any{
		"status":      "success",
		"document_id": document.ID,
		"text_length": result.Metadata["text_length"],
		"metadata":    result.Metadata,
	})

	return nil
}

func (p *TaskProcessor) parse(ctx context.Context, document *models.Document) (*parser.Result, error) {
	path, cleanup, err := p.Storage.Fetch(ctx, document.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &parser.Error{Path: document.FilePath, Err: fmt.Errorf("File not found: %s", document.FilePath)}
		}
		return nil, err
	}
	defer cleanup()

	return p.Parser.Parse(path)
}

func (p *TaskProcessor) failDocument(document *models.Document, message string) {
	if err := models.SetDocumentStatus(p.DB, document, models.UploadFailed, &message); err != nil {
		p.Logger.Errorw("failed to mark document as failed", "document_id", document.ID, "error", err)
	}
}

func (p *TaskProcessor) HandleExtractDocumentTask(ctx context.Context, t *asynq.Task) error {
	var payload ExtractDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	logger := p.Logger.With(
		"document_id", payload.DocumentID,
		"template_id", payload.FieldTemplateID,
		"task_id", taskID(t),
	)
	logger.Infow("extracting document")

	document, err := models.GetDocumentByID(p.DB, payload.DocumentID)
	if err != nil {
		return err
	}
	if document == nil {
		logger.Errorw("document not found")
		writeResult(t, errorResult("Document not found"))
		return nil
	}
	if document.UploadStatus != models.UploadParsed {
		logger.Warnw("document not parsed", "status", document.UploadStatus)
		writeResult(t, errorResult("Document not yet parsed"))
		return nil
	}
	if document.ParsedText == nil || *document.ParsedText == "" {
		logger.Errorw("no parsed text")
		writeResult(t, errorResult("No parsed text available"))
		return nil
	}

	template, err := models.GetFieldTemplateByID(p.DB, payload.FieldTemplateID)
	if err != nil {
		return err
	}
	if template == nil {
		logger.Errorw("template not found")
		writeResult(t, errorResult("Field template not found"))
		return nil
	}

	record, err := models.StartExtraction(p.DB, document.ID, template.ID, template.Version)
	if err != nil {
		return err
	}

	fields, err := p.Extractor.Extract(ctx, *document.ParsedText, template.Fields)
	if err != nil {
		if isExtractionError(err) {
			logger.Errorw("extraction failed", "error", err)
			p.failExtraction(record, "Extraction failed: "+err.Error())
			writeResult(t, errorResult(err.Error()))
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}

		logger.Errorw("extraction task failed", "error", err)
		p.failExtraction(record, "Unexpected error: "+err.Error())
		return err
	}

	if err := models.CompleteExtraction(p.DB, record, fields); err != nil {
		return err
	}

	logger.Infow("extraction completed", "extracted_record_id", record.ID, "fields_extracted", len(fields))

	writeResult(t, map[string]any{
		"status":              "success",
		"extracted_record_id": record.ID,
		"fields_extracted":    len(fields),
	})

	return nil
}

func (p *TaskProcessor) failExtraction(record *models.ExtractedRecord, message string) {
	if err := models.FailExtraction(p.DB, record, message); err != nil {
		p.Logger.Errorw("failed to mark extraction as failed", "extracted_record_id", record.ID, "error", err)
	}
}

func (p *TaskProcessor) HandleReextractProjectTask(ctx context.Context, t *asynq.Task) error {
	var payload ReextractProjectPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	logger := p.Logger.With("project_id", payload.ProjectID, "task_id", taskID(t))

	project, err := models.GetProjectByID(p.DB, payload.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		writeResult(t, errorResult("Project not found"))
		return nil
	}
	if project.FieldTemplateID == nil {
		writeResult(t, errorResult("Project does not have a field template"))
		return nil
	}

	documents, err := models.GetParsedProjectDocuments(p.DB, project.ID)
	if err != nil {
		return err
	}

	queued := 0
	for _, document := range documents {
		if _, err := p.Enqueuer.EnqueueExtractDocument(ctx, document.ID, *project.FieldTemplateID); err != nil {
			logger.Errorw("failed to enqueue extraction", "document_id", document.ID, "error", err)
			continue
		}
		queued++
	}

	logger.Infow("project re-extraction queued", "documents_queued", queued)
	writeResult(t, map[string]any{"documents_queued": queued})

	return nil
}

func errorResult(message string) map[string]any {
	return map[string]any{"status": "error", "message": message}
}

func isExtractionError(err error) bool {
	var extractionErr *extraction.Error
	return errors.As(err, &extractionErr)
}

func taskID(t *asynq.Task) string {
	if w := t.ResultWriter(); w != nil {
		return w.TaskID()
	}
	return ""
}

func writeResult(t *asynq.Task, result any) {
	w := t.ResultWriter()
	if w == nil {
		return
	}

	b, err := json.Marshal(result)
	if err != nil {
		return
	}
	_, _ = w.Write(b)
}
