package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/apperror"
	appctx "github.com/abbakari/works/internal/core/context"
	"github.com/abbakari/works/pkg/logger"
)

// Recovery turns a panic into a 500 response and logs the stack.
// ErrorHandler is unwound by the panic, so the response is written here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered",
				"panic", rec,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			traceID := ""
			if t := appctx.GetTrace(ctx); t != nil {
				traceID = t.TraceID
			}
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":     apperror.CodeInternal,
				"message":  "Internal server error",
				"details":  map[string]any{},
				"trace_id": traceID,
			})
		}()
		c.Next()
	}
}
