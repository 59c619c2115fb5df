package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mfreitas/salesdash/internal/domain/dto"
	"github.com/mfreitas/salesdash/internal/logger"
)

// ErrorHandler is a Gin middleware that converts errors attached to the
// context (via c.Error) into a standardized JSON error response.
//
// Behavior:
//   - Runs the rest of the chain first.
//   - If handlers attached errors and no response was written yet,
//     responds 500 with the last error's message.
//
// Handlers that map domain errors to specific status codes respond
// directly; this middleware is the fallback for unhandled errors.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	last := c.Errors.Last()
	logger.L().Error().Err(last.Err).Str("path", c.Request.URL.Path).Msg("unhandled request error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("internal error", last.Err))
}
