package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/internal/review"
	"legalreview/internal/storage"
	"legalreview/models"
)

const evaluationTypeHumanLabels = "human_labels"

type EvaluationController struct {
	DB      *gorm.DB
	Logger  *zap.SugaredLogger
	Storage storage.Storage
}

type evaluationRequest struct {
	HumanLabels []review.Label `json:"human_labels" binding:"required,dive"`
}

// Evaluate scores the project's current review table against human labels
// and keeps both the labels and the result.
func (ec EvaluationController) Evaluate(c *gin.Context) {
	project, template, ok := loadProjectTemplate(c, ec.DB, ec.Logger)
	if !ok {
		return
	}

	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondUnprocessable(c, err)
		return
	}

	table, err := review.LoadTable(ec.DB, project.ID, template)
	if err != nil {
		ec.Logger.Errorw("failed to build review table", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	result := &models.EvaluationResult{
		ID:             uuid.New(),
		ProjectID:      project.ID,
		EvaluationType: evaluationTypeHumanLabels,
		Metrics:        review.Evaluate(table, req.HumanLabels),
	}

	labels, err := json.Marshal(req.HumanLabels)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}

	key := storage.EvaluationLabelsKey(project.ID, result.ID)
	if _, err := ec.Storage.Save(c.Request.Context(), key, bytes.NewReader(labels), 0); err != nil {
		ec.Logger.Errorw("failed to store evaluation labels", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}
	result.HumanLabelsPath = &key

	if err := models.CreateEvaluationResult(ec.DB, result); err != nil {
		ec.Logger.Errorw("failed to save evaluation", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	ec.Logger.Infow("evaluation completed",
		"project_id", project.ID,
		"evaluation_id", result.ID,
		"labels", len(req.HumanLabels),
		"field_accuracy", result.Metrics.FieldAccuracy,
	)
	c.JSON(http.StatusCreated, result)
}

func (ec EvaluationController) ListEvaluations(c *gin.Context) {
	projectID, ok := paramUUID(c, "project_id")
	if !ok {
		return
	}

	project, err := models.GetProjectByID(ec.DB, projectID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}
	if project == nil {
		RespondNotFound(c, "Project with ID "+projectID.String()+" not found")
		return
	}

	results, err := models.ListProjectEvaluations(ec.DB, project.ID)
	if err != nil {
		RespondInternalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
