package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/rewind-photos/internal/models"
	"go.uber.org/zap"
)

// ErrorHandler handles panics and errors
func ErrorHandler(logger *zap.Logger, development bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		stack := string(debug.Stack())
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", ctx.Request.URL.Path),
			zap.String("method", ctx.Request.Method),
			zap.String("stack", stack),
		)

		resp := models.ErrorResponse{
			Error:   "Internal server error",
			Message: "An unexpected error occurred",
		}
		if development {
			resp.Message = fmt.Sprint(recovered)
			resp.Stack = stack
		}
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}

// NotFound answers unmatched routes with a JSON body.
func NotFound() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not Found",
			Message: fmt.Sprintf("Cannot %s %s", ctx.Request.Method, ctx.Request.URL.Path),
		})
	}
}
