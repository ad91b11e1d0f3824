package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/internal/tasks"
	"legalreview/models"
)

type FieldTemplatesController struct {
	DB         *gorm.DB
	Logger     *zap.SugaredLogger
	Enqueuer   tasks.Enqueuer
	Pagination Pagination
}

type createTemplateRequest struct {
	Name   string                   `json:"name" binding:"required,min=1,max=255"`
	Fields []models.FieldDefinition `json:"fields" binding:"required,min=1,dive"`
}

type updateTemplateRequest struct {
	Name   *string                  `json:"name" binding:"omitempty,min=1,max=255"`
	Fields []models.FieldDefinition `json:"fields" binding:"omitempty,min=1,dive"`
}

func (fc FieldTemplatesController) CreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondUnprocessable(c, err)
		return
	}

	template, err := models.CreateFieldTemplate(fc.DB, req.Name, req.Fields)
	if err != nil {
		if fc.respondValidationErr(c, err) {
			return
		}
		fc.Logger.Errorw("failed to create field template", "error", err)
		RespondInternalErr(c, err)
		return
	}

	fc.Logger.Infow("field template created", "template_id", template.ID, "field_count", len(template.Fields))
	c.JSON(http.StatusCreated, template)
}

func (fc FieldTemplatesController) ListTemplates(c *gin.Context) {
	skip, limit, ok := fc.Pagination.Parse(c)
	if !ok {
		return
	}

	templates, err := models.ListFieldTemplates(fc.DB, skip, limit)
	if err != nil {
		fc.Logger.Errorw("failed to list field templates", "error", err)
		RespondInternalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

func (fc FieldTemplatesController) GetTemplate(c *gin.Context) {
	template, ok := fc.loadTemplate(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, template)
}

// UpdateTemplate bumps the version whenever the fields change and can
// re-extract every active project that uses the template.
func (fc FieldTemplatesController) UpdateTemplate(c *gin.Context) {
	template, ok := fc.loadTemplate(c)
	if !ok {
		return
	}

	reextract, ok := queryBool(c, "trigger_re_extraction")
	if !ok {
		return
	}

	var req updateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondUnprocessable(c, err)
		return
	}

	fieldsChanged, err := models.UpdateFieldTemplate(fc.DB, template, req.Name, req.Fields)
	if err != nil {
		if fc.respondValidationErr(c, err) {
			return
		}
		fc.Logger.Errorw("failed to update field template", "template_id", template.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	if fieldsChanged && reextract {
		projects, err := models.GetActiveProjectsUsingTemplate(fc.DB, template.ID)
		if err != nil {
			fc.Logger.Errorw("failed to load projects for re-extraction", "template_id", template.ID, "error", err)
			RespondInternalErr(c, err)
			return
		}

		for _, project := range projects {
			if _, err := fc.Enqueuer.EnqueueReextractProject(c.Request.Context(), project.ID); err != nil {
				fc.Logger.Errorw("failed to queue project re-extraction", "project_id", project.ID, "error", err)
			}
		}
		fc.Logger.Infow("re-extraction triggered", "template_id", template.ID, "projects", len(projects))
	}

	fc.Logger.Infow("field template updated", "template_id", template.ID, "version", template.Version)
	c.JSON(http.StatusOK, template)
}

func (fc FieldTemplatesController) DeleteTemplate(c *gin.Context) {
	template, ok := fc.loadTemplate(c)
	if !ok {
		return
	}

	inUse, err := models.TemplateInUse(fc.DB, template.ID)
	if err != nil {
		fc.Logger.Errorw("failed to check template usage", "template_id", template.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}
	if inUse {
		RespondBadRequest(c, "Cannot delete template that is being used by projects")
		return
	}

	if err := models.DeleteFieldTemplate(fc.DB, template); err != nil {
		fc.Logger.Errorw("failed to delete field template", "template_id", template.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (fc FieldTemplatesController) loadTemplate(c *gin.Context) (*models.FieldTemplate, bool) {
	id, ok := paramUUID(c, "template_id")
	if !ok {
		return nil, false
	}

	template, err := models.GetFieldTemplateByID(fc.DB, id)
	if err != nil {
		fc.Logger.Errorw("failed to load field template", "template_id", id, "error", err)
		RespondInternalErr(c, err)
		return nil, false
	}
	if template == nil {
		RespondNotFound(c, fmt.Sprintf("Field template with ID %s not found", id))
		return nil, false
	}

	return template, true
}

func (fc FieldTemplatesController) respondValidationErr(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, models.ErrDuplicateFieldID), errors.Is(err, models.ErrNoFields):
		RespondBadRequest(c, err.Error())
		return true
	case errors.Is(err, models.ErrInvalidFieldDefinition):
		RespondErr(c, http.StatusUnprocessableEntity, err.Error())
		return true
	}
	return false
}
