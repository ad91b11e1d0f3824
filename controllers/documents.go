package controllers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/core"
	"legalreview/internal/parser"
	"legalreview/internal/storage"
	"legalreview/internal/tasks"
	"legalreview/models"
)

const textPreviewLength = 500

type DocumentsController struct {
	DB         *gorm.DB
	Logger     *zap.SugaredLogger
	Config     *core.Config
	Storage    storage.Storage
	Enqueuer   tasks.Enqueuer
	Pagination Pagination
}

type documentDetail struct {
	models.Document
	ParsedTextPreview *string                  `json:"parsed_text_preview"`
	Metadata          map[string]any           `json:"metadata"`
	ExtractionStatus  *models.ExtractionStatus `json:"extraction_status"`
}

func (dc DocumentsController) UploadDocument(c *gin.Context) {
	projectID, ok := paramUUID(c, "project_id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		RespondUnprocessable(c, fmt.Errorf("file is required: %w", err))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !dc.Config.IsAllowedFileType(ext) || !parser.Supported(ext) {
		RespondBadRequest(c, fmt.Sprintf("File type '%s' not allowed. Supported types: %s",
			ext, strings.Join(dc.Config.AllowedFileTypes, ", ")))
		return
	}

	if file.Size > dc.Config.MaxUploadSize {
		dc.respondTooLarge(c)
		return
	}

	project, err := models.GetActiveProjectByID(dc.DB, projectID)
	if err != nil {
		dc.Logger.Errorw("failed to load project", "project_id", projectID, "error", err)
		RespondInternalErr(c, err)
		return
	}
	if project == nil {
		RespondNotFound(c, fmt.Sprintf("Active project with ID %s not found", projectID))
		return
	}

	document := &models.Document{
		ProjectID: project.ID,
		Filename:  file.Filename,
		FileType:  ext,
		FileMetadata: map[string]any{
			"original_filename": file.Filename,
			"content_type":      file.Header.Get("Content-Type"),
		},
	}
	document.ID = uuid.New()
	document.FilePath = storage.DocumentKey(project.ID, document.ID, file.Filename)

	src, err := file.Open()
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	defer src.Close()

	ctx := c.Request.Context()
	size, err := dc.Storage.Save(ctx, document.FilePath, src, dc.Config.MaxUploadSize)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			dc.respondTooLarge(c)
			return
		}
		dc.Logger.Errorw("failed to store upload", "document_id", document.ID, "error", err)
		RespondInternalErr(c, errors.New("Failed to save uploaded file"))
		return
	}
	document.FileSize = size

	if err := models.CreateDocument(dc.DB, document); err != nil {
		dc.Logger.Errorw("failed to create document", "document_id", document.ID, "error", err)
		if delErr := dc.Storage.Delete(ctx, document.FilePath); delErr != nil {
			dc.Logger.Warnw("failed to remove orphaned upload", "file_path", document.FilePath, "error", delErr)
		}
		RespondInternalErr(c, err)
		return
	}

	if _, err := dc.Enqueuer.EnqueueParseDocument(ctx, document.ID); err != nil {
		dc.Logger.Errorw("failed to queue parsing", "document_id", document.ID, "error", err)
	}

	dc.Logger.Infow("document uploaded",
		"document_id", document.ID,
		"project_id", project.ID,
		"file_type", ext,
		"file_size", size,
	)
	c.JSON(http.StatusCreated, document)
}

func (dc DocumentsController) respondTooLarge(c *gin.Context) {
	RespondErr(c, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("File exceeds maximum size of %gMB", float64(dc.Config.MaxUploadSize)/1024/1024))
}

func (dc DocumentsController) ListProjectDocuments(c *gin.Context) {
	projectID, ok := paramUUID(c, "project_id")
	if !ok {
		return
	}

	skip, limit, ok := dc.Pagination.Parse(c)
	if !ok {
		return
	}

	project, err := models.GetProjectByID(dc.DB, projectID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if project == nil {
		RespondNotFound(c, fmt.Sprintf("Project with ID %s not found", projectID))
		return
	}

	documents, err := models.ListProjectDocuments(dc.DB, project.ID, skip, limit)
	if err != nil {
		dc.Logger.Errorw("failed to list documents", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, documents)
}

func (dc DocumentsController) GetDocument(c *gin.Context) {
	document, ok := dc.loadDocument(c)
	if !ok {
		return
	}

	detail := documentDetail{
		Document: *document,
		Metadata: document.FileMetadata,
	}
	if document.ParsedText != nil {
		preview := *document.ParsedText
		if runes := []rune(preview); len(runes) > textPreviewLength {
			preview = string(runes[:textPreviewLength])
		}
		detail.ParsedTextPreview = &preview
	}

	latest, err := models.GetLatestDocumentExtraction(dc.DB, document.ID)
	if err != nil {
		dc.Logger.Errorw("failed to load extraction", "document_id", document.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}
	if latest != nil {
		detail.ExtractionStatus = &latest.ExtractionStatus
	}

	c.JSON(http.StatusOK, detail)
}

// DeleteDocument removes the row even when the stored file cannot be
// removed.
func (dc DocumentsController) DeleteDocument(c *gin.Context) {
	document, ok := dc.loadDocument(c)
	if !ok {
		return
	}

	if err := dc.Storage.Delete(c.Request.Context(), document.FilePath); err != nil {
		dc.Logger.Warnw("failed to delete stored file", "document_id", document.ID, "file_path", document.FilePath, "error", err)
	}

	if err := models.DeleteDocument(dc.DB, document); err != nil {
		dc.Logger.Errorw("failed to delete document", "document_id", document.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	dc.Logger.Infow("document deleted", "document_id", document.ID)
	c.Status(http.StatusNoContent)
}

func (dc DocumentsController) DownloadDocument(c *gin.Context) {
	document, ok := dc.loadDocument(c)
	if !ok {
		return
	}

	rc, err := dc.Storage.Open(c.Request.Context(), document.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			RespondNotFound(c, "Document file not found on disk")
			return
		}
		dc.Logger.Errorw("failed to open stored file", "document_id", document.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": document.Filename})
	c.DataFromReader(http.StatusOK, document.FileSize, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (dc DocumentsController) loadDocument(c *gin.Context) (*models.Document, bool) {
	id, ok := paramUUID(c, "document_id")
	if !ok {
		return nil, false
	}

	document, err := models.GetDocumentByID(dc.DB, id)
	if err != nil {
		dc.Logger.Errorw("failed to load document", "document_id", id, "error", err)
		RespondInternalErr(c, err)
		return nil, false
	}
	if document == nil {
		RespondNotFound(c, fmt.Sprintf("Document with ID %s not found", id))
		return nil, false
	}

	return document, true
}
