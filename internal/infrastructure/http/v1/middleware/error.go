package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/apperror"
	appctx "github.com/abbakari/works/internal/core/context"
	"github.com/abbakari/works/pkg/logger"
)

// ErrorHandler renders the last error attached to the context as JSON.
// Internal causes are logged, never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		err := c.Errors.Last().Err
		traceID := ""
		if t := appctx.GetTrace(ctx); t != nil {
			traceID = t.TraceID
		}
		requestID := appctx.GetRequestID(ctx)

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil || appErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Error(ctx, "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			details := appErr.Details
			if details == nil {
				details = map[string]any{}
			}
			c.JSON(appErr.HTTPStatus, gin.H{
				"code":       appErr.Code,
				"message":    appErr.Message,
				"details":    details,
				"trace_id":   traceID,
				"request_id": requestID,
			})
			return
		}

		logger.Error(ctx, "unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":       apperror.CodeInternal,
			"message":    "Internal server error",
			"details":    map[string]any{},
			"trace_id":   traceID,
			"request_id": requestID,
		})
	}
}
