package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"legalreview/core"
)

type HealthController struct {
	DB          *gorm.DB
	Logger      *zap.SugaredLogger
	Environment string
}

func (h HealthController) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Legal Tabular Review API",
		"version": core.Version,
		"docs":    "/docs",
		"health":  "/health",
	})
}

func (h HealthController) Status(c *gin.Context) {
	err := h.DB.Raw(`SELECT 1`).Row().Err()

	if err != nil {
		h.Logger.Errorw("database unreachable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":      "unhealthy",
			"environment": h.Environment,
			"version":     core.Version,
			"database":    "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"environment": h.Environment,
		"version":     core.Version,
		"database":    "ok",
	})
}
