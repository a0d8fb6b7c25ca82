package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
	"github.com/ignatzorin/fundraising-backend/internal/http/middleware"
)

func currentEmployee(c *gin.Context) (entity.Employee, bool) {
	raw, exists := c.Get(middleware.ContextEmployeeKey)
	if !exists {
		return entity.Employee{}, false
	}
	employee, ok := raw.(entity.Employee)
	if !ok || employee.ID == uuid.Nil {
		return entity.Employee{}, false
	}
	return employee, true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
