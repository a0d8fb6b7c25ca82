package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/fundraising-backend/internal/interface/http/response"
	"github.com/ignatzorin/fundraising-backend/internal/logger"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

// Recovery перехватывает panic в хэндлере и отвечает 500 в общем конверте.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.L().WithFields(logrus.Fields{
					"panic": r,
					"path":  c.Request.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("Panic in handler")
				response.Error(c, apperror.New(apperror.ErrCodeInternal, "panic"))
			}
		}()
		c.Next()
	}
}
