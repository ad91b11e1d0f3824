package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legalreview/internal/tasks"
)

type TasksController struct {
	Logger   *zap.SugaredLogger
	Enqueuer tasks.Enqueuer
}

func (tc TasksController) GetTask(c *gin.Context) {
	taskID := c.Param("task_id")

	status, err := tc.Enqueuer.TaskStatus(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			RespondNotFound(c, fmt.Sprintf("Task %s not found", taskID))
			return
		}
		tc.Logger.Errorw("failed to read task status", "task_id", taskID, "error", err)
		RespondInternalErr(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
