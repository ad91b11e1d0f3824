package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/internal/review"
	"legalreview/models"
)

var (
	errRecordNotFound = errors.New("extracted record not found")
	errFieldNotFound  = errors.New("field not found in extracted record")
)

type ReviewController struct {
	DB     *gorm.DB
	Logger *zap.SugaredLogger
}

type reviewRequest struct {
	ExtractedRecordID uuid.UUID           `json:"extracted_record_id" binding:"required"`
	FieldID           string              `json:"field_id" binding:"required"`
	ReviewStatus      models.ReviewStatus `json:"review_status" binding:"required"`
	ManualValue       *string             `json:"manual_value"`
	ReviewerNotes     *string             `json:"reviewer_notes"`
}

type bulkReviewError struct {
	ExtractedRecordID uuid.UUID `json:"extracted_record_id"`
	FieldID           string    `json:"field_id"`
	Error             string    `json:"error"`
}

type bulkReviewResponse struct {
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Total   int               `json:"total"`
	Errors  []bulkReviewError `json:"errors"`
}

func (rc ReviewController) CreateReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondUnprocessable(c, err)
		return
	}
	if !req.ReviewStatus.Valid() {
		RespondErr(c, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid review status %q", req.ReviewStatus))
		return
	}

	saved, created, err := rc.saveReview(req, CurrentReviewer(c))
	switch {
	case errors.Is(err, errRecordNotFound):
		RespondNotFound(c, fmt.Sprintf("Extracted record with ID %s not found", req.ExtractedRecordID))
		return
	case errors.Is(err, errFieldNotFound):
		RespondBadRequest(c, fmt.Sprintf("Field '%s' not found in extracted record", req.FieldID))
		return
	case err != nil:
		rc.Logger.Errorw("failed to save review", "extracted_record_id", req.ExtractedRecordID, "field_id", req.FieldID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	rc.Logger.Infow("review saved", "review_id", saved.ID, "created", created)
	c.JSON(http.StatusCreated, saved)
}

// CreateReviews applies every review it can and reports the rest.
func (rc ReviewController) CreateReviews(c *gin.Context) {
	var reqs []reviewRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		RespondUnprocessable(c, err)
		return
	}

	reviewer := CurrentReviewer(c)
	resp := bulkReviewResponse{Total: len(reqs), Errors: []bulkReviewError{}}

	for _, req := range reqs {
		var (
			created bool
			err     error
		)
		if req.ReviewStatus.Valid() {
			_, created, err = rc.saveReview(req, reviewer)
		} else {
			err = fmt.Errorf("invalid review status %q", req.ReviewStatus)
		}

		if err != nil {
			rc.Logger.Warnw("bulk review item failed", "extracted_record_id", req.ExtractedRecordID, "field_id", req.FieldID, "error", err)
			resp.Errors = append(resp.Errors, bulkReviewError{
				ExtractedRecordID: req.ExtractedRecordID,
				FieldID:           req.FieldID,
				Error:             err.Error(),
			})
			continue
		}

		if created {
			resp.Created++
		} else {
			resp.Updated++
		}
	}

	rc.Logger.Infow("bulk review completed", "created", resp.Created, "updated", resp.Updated, "errors", len(resp.Errors))
	c.JSON(http.StatusCreated, resp)
}

func (rc ReviewController) saveReview(req reviewRequest, reviewer *string) (*models.ReviewRecord, bool, error) {
	record, err := models.GetExtractedRecordByID(rc.DB, req.ExtractedRecordID)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, errRecordNotFound
	}
	if !record.HasField(req.FieldID) {
		return nil, false, errFieldNotFound
	}

	return models.UpsertReview(rc.DB, models.ReviewInput{
		ExtractedRecordID: record.ID,
		FieldID:           req.FieldID,
		ReviewStatus:      req.ReviewStatus,
		ManualValue:       req.ManualValue,
		ReviewerNotes:     req.ReviewerNotes,
		ReviewedBy:        reviewer,
	})
}

func (rc ReviewController) ListExtractionReviews(c *gin.Context) {
	recordID, ok := paramUUID(c, "extracted_record_id")
	if !ok {
		return
	}

	record, err := models.GetExtractedRecordByID(rc.DB, recordID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if record == nil {
		RespondNotFound(c, fmt.Sprintf("Extracted record with ID %s not found", recordID))
		return
	}

	reviews, err := models.ListExtractionReviews(rc.DB, record.ID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

func (rc ReviewController) GetReviewTable(c *gin.Context) {
	table, ok := rc.loadTable(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, table)
}

func (rc ReviewController) ExportReviewTable(c *gin.Context) {
	table, ok := rc.loadTable(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("review-%s.csv", c.Param("project_id"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if err := review.ExportCSV(c.Writer, table); err != nil {
		rc.Logger.Errorw("failed to write review export", "project_id", c.Param("project_id"), "error", err)
	}
}

func (rc ReviewController) loadTable(c *gin.Context) (*review.Table, bool) {
	project, template, ok := loadProjectTemplate(c, rc.DB, rc.Logger)
	if !ok {
		return nil, false
	}

	table, err := review.LoadTable(rc.DB, project.ID, template)
	if err != nil {
		rc.Logger.Errorw("failed to build review table", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return nil, false
	}

	rc.Logger.Infow("review table built", "project_id", project.ID, "document_count", len(table.Rows), "field_count", len(table.Columns))
	return table, true
}

// loadProjectTemplate resolves :project_id and the template it is
// reviewed against.
func loadProjectTemplate(c *gin.Context, db *gorm.DB, logger *zap.SugaredLogger) (*models.Project, *models.FieldTemplate, bool) {
	projectID, ok := paramUUID(c, "project_id")
	if !ok {
		return nil, nil, false
	}

	project, err := models.GetProjectByID(db, projectID)
	if err != nil {
		logger.Errorw("failed to load project", "project_id", projectID, "error", err)
		RespondInternalErr(c, err)
		return nil, nil, false
	}
	if project == nil {
		RespondNotFound(c, fmt.Sprintf("Project with ID %s not found", projectID))
		return nil, nil, false
	}
	if project.FieldTemplateID == nil {
		RespondBadRequest(c, "Project does not have a field template")
		return nil, nil, false
	}

	template, err := models.GetFieldTemplateByID(db, *project.FieldTemplateID)
	if err != nil || template == nil {
		if err == nil {
			err = errors.New("Field template not found")
		}
		logger.Errorw("failed to load project template", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return nil, nil, false
	}

	return project, template, true
}
