package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	ErrInvalidUUID       = errors.New("Invalid UUID")
	ErrInvalidPagination = errors.New("skip must be >= 0 and limit must be >= 1")
)

const debugKey = "debug"

type errorResponse struct {
	Detail string `json:"detail"`
}

type internalErrorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func RespondErr(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}

func RespondNotFound(c *gin.Context, detail string) {
	RespondErr(c, http.StatusNotFound, detail)
}

func RespondBadRequest(c *gin.Context, detail string) {
	RespondErr(c, http.StatusBadRequest, detail)
}

// RespondUnprocessable reports a request that could not be decoded.
func RespondUnprocessable(c *gin.Context, err error) {
	RespondErr(c, http.StatusUnprocessableEntity, err.Error())
}

// RespondInternalErr hides err unless the server runs in debug mode.
func RespondInternalErr(c *gin.Context, err error) {
	message := "An error occurred"
	if c.GetBool(debugKey) && err != nil {
		message = err.Error()
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, internalErrorResponse{
		Detail: "Internal server error",
		Error:  message,
	})
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondUnprocessable(c, ErrInvalidUUID)
		return uuid.Nil, false
	}
	return id, true
}

// Pagination holds the page size limits of list endpoints.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// Parse reads skip and limit from the query string. limit is capped at
// MaxLimit.
func (p Pagination) Parse(c *gin.Context) (skip, limit int, ok bool) {
	skip, limit = 0, p.DefaultLimit

	if v := c.Query("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			RespondUnprocessable(c, ErrInvalidPagination)
			return 0, 0, false
		}
		skip = n
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			RespondUnprocessable(c, ErrInvalidPagination)
			return 0, 0, false
		}
		limit = n
	}

	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}

	return skip, limit, true
}

func queryBool(c *gin.Context, name string) (bool, bool) {
	v := c.Query(name)
	if v == "" {
		return false, true
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		RespondErr(c, http.StatusUnprocessableEntity, name+" must be a boolean")
		return false, false
	}
	return b, true
}
