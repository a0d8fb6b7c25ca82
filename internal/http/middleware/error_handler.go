package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/fundraising-backend/internal/interface/http/response"
	"github.com/ignatzorin/fundraising-backend/internal/logger"
	"github.com/ignatzorin/fundraising-backend/internal/pkg/apperror"
)

// ErrorHandler логирует ошибки, накопленные в c.Errors, и отвечает клиенту,
// если хэндлер сам ничего не записал. Причина внутренних ошибок наружу не уходит.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		logger.L().WithFields(logrus.Fields{
			"error":  err.Error(),
			"code":   apperror.CodeOf(err.Err),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Request error")

		if c.Writer.Written() {
			return
		}

		c.JSON(http.StatusInternalServerError, response.Response{
			Success: false,
			Error: &response.ErrorInfo{
				Code:    string(apperror.ErrCodeInternal),
				Message: "внутренняя ошибка сервера",
			},
		})
	}
}
