package controllers

import (
	"github.com/gin-gonic/gin"
)

type Router struct {
	HealthController         *HealthController
	ProjectsController       *ProjectsController
	FieldTemplatesController *FieldTemplatesController
	DocumentsController      *DocumentsController
	ExtractionController     *ExtractionController
	ReviewController         *ReviewController
	EvaluationController     *EvaluationController
	TasksController          *TasksController
}

func (r Router) RegisterRoutes(router gin.IRouter) {
	router.GET("/", r.HealthController.Root)
	router.GET("/health", r.HealthController.Status)

	v1 := router.Group("/api/v1", ReviewerID)

	projects := v1.Group("/projects")
	projects.POST("", r.ProjectsController.CreateProject)
	projects.GET("", r.ProjectsController.ListProjects)
	projects.GET("/:project_id", r.ProjectsController.GetProject)
	projects.PUT("/:project_id", r.ProjectsController.UpdateProject)
	projects.DELETE("/:project_id", r.ProjectsController.DeleteProject)

	templates := v1.Group("/field-templates")
	templates.POST("", r.FieldTemplatesController.CreateTemplate)
	templates.GET("", r.FieldTemplatesController.ListTemplates)
	templates.GET("/:template_id", r.FieldTemplatesController.GetTemplate)
	templates.PUT("/:template_id", r.FieldTemplatesController.UpdateTemplate)
	templates.DELETE("/:template_id", r.FieldTemplatesController.DeleteTemplate)

	documents := v1.Group("/documents")
	documents.POST("/projects/:project_id/documents/upload", r.DocumentsController.UploadDocument)
	documents.GET("/projects/:project_id/documents", r.DocumentsController.ListProjectDocuments)
	documents.GET("/:document_id", r.DocumentsController.GetDocument)
	documents.DELETE("/:document_id", r.DocumentsController.DeleteDocument)
	documents.GET("/:document_id/download", r.DocumentsController.DownloadDocument)

	extraction := v1.Group("/extraction")
	extraction.POST("/documents/:document_id/extract", r.ExtractionController.ExtractDocument)
	extraction.POST("/projects/:project_id/extract-all", r.ExtractionController.ExtractProject)
	extraction.GET("/documents/:document_id/extractions", r.ExtractionController.ListDocumentExtractions)
	extraction.GET("/extractions/:record_id", r.ExtractionController.GetExtraction)

	reviews := v1.Group("/review")
	reviews.POST("/reviews", r.ReviewController.CreateReview)
	reviews.POST("/reviews/bulk", r.ReviewController.CreateReviews)
	reviews.GET("/extractions/:extracted_record_id/reviews", r.ReviewController.ListExtractionReviews)
	reviews.GET("/projects/:project_id/review-table", r.ReviewController.GetReviewTable)
	reviews.GET("/projects/:project_id/review-table/export", r.ReviewController.ExportReviewTable)

	evaluation := v1.Group("/evaluation")
	evaluation.POST("/projects/:project_id/evaluate", r.EvaluationController.Evaluate)
	evaluation.GET("/projects/:project_id/evaluations", r.EvaluationController.ListEvaluations)

	v1.GET("/tasks/:task_id", r.TasksController.GetTask)
}
