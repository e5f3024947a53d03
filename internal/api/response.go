package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/errcode"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// FromError maps domain sentinel errors onto HTTP statuses. Anything
// unclassified becomes a 500 with a generic message so internals never
// leak to clients.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errcode.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, errcode.ErrConflict):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, errcode.ErrInvalidTransition):
		Error(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errcode.ErrUnauthorized):
		Unauthorized(c)
	case errors.Is(err, errcode.ErrForbidden):
		Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, errcode.ErrUnsupportedMedia):
		Error(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, errcode.ErrPreconditionFailed):
		Error(c, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, errcode.ErrUpstream):
		Error(c, http.StatusBadGateway, "upstream service failed")
	default:
		Internal(c, "internal error")
	}
}
