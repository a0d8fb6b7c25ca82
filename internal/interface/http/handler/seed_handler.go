package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/fundraising-backend/internal/interface/http/response"
	"github.com/ignatzorin/fundraising-backend/internal/service"
)

// SeedHandler создаёт демо-данные. Роут регистрируется только в development.
type SeedHandler struct {
	seedService *service.SeedService
}

func NewSeedHandler(seedService *service.SeedService) *SeedHandler {
	return &SeedHandler{seedService: seedService}
}

type SeedRequest struct {
	NumTransactions int `json:"num_transactions"`
}

// Seed - POST /api/seed
func (h *SeedHandler) Seed(c *gin.Context) {
	var req SeedRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}
	if req.NumTransactions < 1 {
		req.NumTransactions = 5
	}
	if req.NumTransactions > 100 {
		req.NumTransactions = 100
	}

	result, err := h.seedService.SeedDemo(c.Request.Context(), req.NumTransactions)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}
