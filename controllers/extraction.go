package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/internal/tasks"
	"legalreview/models"
)

type ExtractionController struct {
	DB       *gorm.DB
	Logger   *zap.SugaredLogger
	Enqueuer tasks.Enqueuer
}

type extractRequest struct {
	FieldTemplateID uuid.UUID `json:"field_template_id" binding:"required"`
	ForceReprocess  bool      `json:"force_reprocess"`
}

func (ec ExtractionController) ExtractDocument(c *gin.Context) {
	documentID, ok := paramUUID(c, "document_id")
	if !ok {
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondUnprocessable(c, err)
		return
	}

	document, err := models.GetDocumentByID(ec.DB, documentID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if document == nil {
		RespondNotFound(c, fmt.Sprintf("Document with ID %s not found", documentID))
		return
	}
	if document.UploadStatus != models.UploadParsed {
		RespondBadRequest(c, fmt.Sprintf("Document must be parsed before extraction. Current status: %s", document.UploadStatus))
		return
	}

	template, err := models.GetFieldTemplateByID(ec.DB, req.FieldTemplateID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if template == nil {
		RespondNotFound(c, fmt.Sprintf("Field template with ID %s not found", req.FieldTemplateID))
		return
	}

	if !req.ForceReprocess {
		existing, err := models.GetExtractedRecord(ec.DB, document.ID, template.ID)
		if err != nil {
			RespondInternalErr(c, err)
			return
		}
		if existing != nil {
			ec.Logger.Infow("extraction already exists", "document_id", document.ID, "record_id", existing.ID)
			RespondErr(c, http.StatusConflict, "Document already extracted. Use force_reprocess=true to re-extract.")
			return
		}
	}

	status, err := ec.Enqueuer.EnqueueExtractDocument(c.Request.Context(), document.ID, template.ID)
	if err != nil {
		ec.Logger.Errorw("failed to queue extraction", "document_id", document.ID, "error", err)
		RespondErr(c, http.StatusInternalServerError, "Failed to queue extraction task")
		return
	}

	ec.Logger.Infow("extraction queued", "document_id", document.ID, "task_id", status.TaskID)
	c.JSON(http.StatusAccepted, status)
}

// ExtractProject queues every parsed document of the project. The returned
// task id is synthetic; the per-document tasks are tracked individually.
func (ec ExtractionController) ExtractProject(c *gin.Context) {
	projectID, ok := paramUUID(c, "project_id")
	if !ok {
		return
	}

	force, ok := queryBool(c, "force_reprocess")
	if !ok {
		return
	}

	project, err := models.GetProjectByID(ec.DB, projectID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if project == nil {
		RespondNotFound(c, fmt.Sprintf("Project with ID %s not found", projectID))
		return
	}
	if project.FieldTemplateID == nil {
		RespondBadRequest(c, "Project does not have a field template assigned")
		return
	}

	documents, err := models.GetParsedProjectDocuments(ec.DB, project.ID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if len(documents) == 0 {
		RespondBadRequest(c, "No parsed documents found in project")
		return
	}

	var existing map[uuid.UUID]models.ExtractedRecord
	if !force {
		existing, err = models.GetProjectExtractions(ec.DB, project.ID, *project.FieldTemplateID)
		if err != nil {
			RespondInternalErr(c, err)
			return
		}
	}

	queued := 0
	for _, document := range documents {
		if _, done := existing[document.ID]; done {
			continue
		}

		if _, err := ec.Enqueuer.EnqueueExtractDocument(c.Request.Context(), document.ID, *project.FieldTemplateID); err != nil {
			ec.Logger.Errorw("failed to queue extraction", "document_id", document.ID, "error", err)
			continue
		}
		queued++
	}

	ec.Logger.Infow("project extraction queued", "project_id", project.ID, "queued_count", queued)
	c.JSON(http.StatusAccepted, tasks.TaskStatus{
		TaskID:   "project-" + project.ID.String(),
		TaskType: tasks.TaskTypeName(tasks.TypeReextractProject),
		Status:   models.ExtractionPending,
		Result:   gin.H{"documents_queued": queued},
	})
}

func (ec ExtractionController) ListDocumentExtractions(c *gin.Context) {
	documentID, ok := paramUUID(c, "document_id")
	if !ok {
		return
	}

	document, err := models.GetDocumentByID(ec.DB, documentID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if document == nil {
		RespondNotFound(c, fmt.Sprintf("Document with ID %s not found", documentID))
		return
	}

	records, err := models.ListDocumentExtractions(ec.DB, document.ID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (ec ExtractionController) GetExtraction(c *gin.Context) {
	recordID, ok := paramUUID(c, "record_id")
	if !ok {
		return
	}

	record, err := models.GetExtractedRecordByID(ec.DB, recordID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if record == nil {
		RespondNotFound(c, fmt.Sprintf("Extraction record with ID %s not found", recordID))
		return
	}

	c.JSON(http.StatusOK, record)
}
