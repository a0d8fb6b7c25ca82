package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/fundraising-backend/internal/interface/http/response"
	"github.com/ignatzorin/fundraising-backend/internal/service"
)

// ContextEmployeeKey - ключ, под которым в gin.Context лежит entity.Employee.
const ContextEmployeeKey = "employee"

// AuthMiddleware проверяет JWT access токен и кладёт сотрудника в контекст.
// Роль проверяет движок: здесь только подлинность токена.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			return
		}

		employee, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "токен невалиден")
			return
		}

		c.Set(ContextEmployeeKey, employee)
		c.Next()
	}
}
