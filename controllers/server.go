package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/core"
	"legalreview/internal/storage"
	"legalreview/internal/tasks"
)

// Dependencies are the services shared by every controller.
type Dependencies struct {
	DB       *gorm.DB
	Config   *core.Config
	Logger   *zap.SugaredLogger
	Storage  storage.Storage
	Enqueuer tasks.Enqueuer
}

// NewServer builds the gin engine with middleware and all routes.
func NewServer(deps Dependencies) *gin.Engine {
	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		panic(err)
	}
	engine.MaxMultipartMemory = 8 << 20

	engine.Use(
		gin.Logger(),
		Recovery(deps.Logger),
		ErrorDetails(deps.Config.Debug),
		CORS(deps.Config.AllowedOrigins),
	)

	pagination := Pagination{
		DefaultLimit: deps.Config.DefaultPageSize,
		MaxLimit:     deps.Config.MaxPageSize,
	}
	logger := deps.Logger

	router := Router{
		HealthController: &HealthController{
			DB:          deps.DB,
			Logger:      logger.With("controller", "health"),
			Environment: deps.Config.Environment,
		},
		ProjectsController: &ProjectsController{
			DB:         deps.DB,
			Logger:     logger.With("controller", "projects"),
			Enqueuer:   deps.Enqueuer,
			Pagination: pagination,
		},
		FieldTemplatesController: &FieldTemplatesController{
			DB:         deps.DB,
			Logger:     logger.With("controller", "field_templates"),
			Enqueuer:   deps.Enqueuer,
			Pagination: pagination,
		},
		DocumentsController: &DocumentsController{
			DB:         deps.DB,
			Logger:     logger.With("controller", "documents"),
			Config:     deps.Config,
			Storage:    deps.Storage,
			Enqueuer:   deps.Enqueuer,
			Pagination: pagination,
		},
		ExtractionController: &ExtractionController{
			DB:       deps.DB,
			Logger:   logger.With("controller", "extraction"),
			Enqueuer: deps.Enqueuer,
		},
		ReviewController: &ReviewController{
			DB:     deps.DB,
			Logger: logger.With("controller", "review"),
		},
		EvaluationController: &EvaluationController{
			DB:      deps.DB,
			Logger:  logger.With("controller", "evaluation"),
			Storage: deps.Storage,
		},
		TasksController: &TasksController{
			Logger:   logger.With("controller", "tasks"),
			Enqueuer: deps.Enqueuer,
		},
	}

	router.RegisterRoutes(engine)
	return engine
}
