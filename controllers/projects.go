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

type ProjectsController struct {
	DB         *gorm.DB
	Logger     *zap.SugaredLogger
	Enqueuer   tasks.Enqueuer
	Pagination Pagination
}

type createProjectRequest struct {
	Name            string     `json:"name" binding:"required,min=1,max=255"`
	Description     *string    `json:"description"`
	FieldTemplateID *uuid.UUID `json:"field_template_id"`
}

type updateProjectRequest struct {
	Name            *string               `json:"name" binding:"omitempty,min=1,max=255"`
	Description     *string               `json:"description"`
	FieldTemplateID *uuid.UUID            `json:"field_template_id"`
	Status          *models.ProjectStatus `json:"status"`
}

type projectDetail struct {
	models.Project
	models.ProjectStats
}

func (pc ProjectsController) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondUnprocessable(c, err)
		return
	}

	if req.FieldTemplateID != nil && !pc.templateExists(c, *req.FieldTemplateID) {
		return
	}

	project, err := models.CreateProject(pc.DB, req.Name, req.Description, req.FieldTemplateID)
	if err != nil {
		pc.Logger.Errorw("failed to create project", "error", err)
		RespondInternalErr(c, err)
		return
	}

	pc.Logger.Infow("project created", "project_id", project.ID, "name", project.Name)
	c.JSON(http.StatusCreated, project)
}

func (pc ProjectsController) ListProjects(c *gin.Context) {
	skip, limit, ok := pc.Pagination.Parse(c)
	if !ok {
		return
	}

	projects, err := models.ListProjects(pc.DB, skip, limit)
	if err != nil {
		pc.Logger.Errorw("failed to list projects", "error", err)
		RespondInternalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

func (pc ProjectsController) GetProject(c *gin.Context) {
	project, ok := pc.loadProject(c)
	if !ok {
		return
	}

	stats, err := models.GetProjectStats(pc.DB, project.ID)
	if err != nil {
		pc.Logger.Errorw("failed to count project documents", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, projectDetail{Project: *project, ProjectStats: *stats})
}

func (pc ProjectsController) UpdateProject(c *gin.Context) {
	project, ok := pc.loadProject(c)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondUnprocessable(c, err)
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		RespondErr(c, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid project status %q", *req.Status))
		return
	}

	templateChanged := false
	if req.FieldTemplateID != nil {
		if !pc.templateExists(c, *req.FieldTemplateID) {
			return
		}
		templateChanged = project.FieldTemplateID == nil || *project.FieldTemplateID != *req.FieldTemplateID
		project.FieldTemplateID = req.FieldTemplateID
	}
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if err := models.SaveProject(pc.DB, project); err != nil {
		pc.Logger.Errorw("failed to update project", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	if templateChanged && project.Status == models.ProjectActive {
		if _, err := pc.Enqueuer.EnqueueReextractProject(c.Request.Context(), project.ID); err != nil {
			pc.Logger.Errorw("failed to queue project re-extraction", "project_id", project.ID, "error", err)
		}
	}

	pc.Logger.Infow("project updated", "project_id", project.ID)
	c.JSON(http.StatusOK, project)
}

// DeleteProject archives the project; documents and results are kept.
func (pc ProjectsController) DeleteProject(c *gin.Context) {
	project, ok := pc.loadProject(c)
	if !ok {
		return
	}

	project.Status = models.ProjectArchived
	if err := models.SaveProject(pc.DB, project); err != nil {
		pc.Logger.Errorw("failed to archive project", "project_id", project.ID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	pc.Logger.Infow("project archived", "project_id", project.ID)
	c.Status(http.StatusNoContent)
}

func (pc ProjectsController) loadProject(c *gin.Context) (*models.Project, bool) {
	id, ok := paramUUID(c, "project_id")
	if !ok {
		return nil, false
	}

	project, err := models.GetProjectByID(pc.DB, id)
	if err != nil {
		pc.Logger.Errorw("failed to load project", "project_id", id, "error", err)
		RespondInternalErr(c, err)
		return nil, false
	}
	if project == nil {
		RespondNotFound(c, fmt.Sprintf("Project %s not found", id))
		return nil, false
	}

	return project, true
}

func (pc ProjectsController) templateExists(c *gin.Context, id uuid.UUID) bool {
	template, err := models.GetFieldTemplateByID(pc.DB, id)
	if err != nil {
		pc.Logger.Errorw("failed to load field template", "template_id", id, "error", err)
		RespondInternalErr(c, err)
		return false
	}
	if template == nil {
		RespondBadRequest(c, fmt.Sprintf("Field template with ID %s not found", id))
		return false
	}
	return true
}
