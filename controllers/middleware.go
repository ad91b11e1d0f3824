package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	reviewerKey    = "reviewerID"
	reviewerHeader = "X-Reviewer-ID"
)

// CORS answers preflight requests and echoes allowed origins.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, "+reviewerHeader)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
			c.Writer.Header().Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ErrorDetails decides whether internal error messages reach clients.
func ErrorDetails(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(debugKey, debug)
		c.Next()
	}
}

// Recovery turns panics into the regular 500 response.
func Recovery(logger *zap.SugaredLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Errorw("unhandled panic",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", recovered,
		)
		RespondInternalErr(c, fmt.Errorf("%v", recovered))
	})
}

func ReviewerID(c *gin.Context) {
	if id := strings.TrimSpace(c.GetHeader(reviewerHeader)); id != "" {
		c.Set(reviewerKey, id)
	}
	c.Next()
}

// CurrentReviewer is the reviewer named by the request, if any.
func CurrentReviewer(c *gin.Context) *string {
	id := c.GetString(reviewerKey)
	if id == "" {
		return nil
	}
	return &id
}
