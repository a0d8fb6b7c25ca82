package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/fundraising-backend/internal/interface/http/dto"
	"github.com/ignatzorin/fundraising-backend/internal/interface/http/response"
	"github.com/ignatzorin/fundraising-backend/internal/usecase/withdrawal"
)

type TransactionHandler struct {
	engine *withdrawal.Engine
}

func NewTransactionHandler(engine *withdrawal.Engine) *TransactionHandler {
	return &TransactionHandler{engine: engine}
}

// MarkProcessing - POST /api/transactions/:id/mark-processing
func (h *TransactionHandler) MarkProcessing(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	employee, ok := currentEmployee(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	var req dto.MarkProcessingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	tx, err := h.engine.MarkProcessing(c.Request.Context(), withdrawal.MarkProcessingInput{
		TransactionID: id,
		Actor:         employee,
		Notes:         req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponse(tx))
}

// Complete - POST /api/transactions/:id/complete
func (h *TransactionHandler) Complete(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	employee, ok := currentEmployee(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	var req dto.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	tx, err := h.engine.Complete(c.Request.Context(), withdrawal.CompleteInput{
		TransactionID:        id,
		Actor:                employee,
		TransactionReference: req.TransactionReference,
		ProcessingFee:        req.Fee(),
		Notes:                req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponse(tx))
}

// MarkFailed - POST /api/transactions/:id/mark-failed
func (h *TransactionHandler) MarkFailed(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	employee, ok := currentEmployee(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	var req dto.MarkFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	tx, err := h.engine.MarkFailed(c.Request.Context(), withdrawal.MarkFailedInput{
		TransactionID: id,
		Actor:         employee,
		Reason:        req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponse(tx))
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	tx, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponse(tx))
}

func (h *TransactionHandler) History(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	entries, err := h.engine.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAuditResponses(entries))
}

// ListByCampaign - GET /api/campaigns/:id/transactions?status=&limit=&offset=
func (h *TransactionHandler) ListByCampaign(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "некорректный ID кампании")
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, total, err := h.engine.ListByCampaign(c.Request.Context(), withdrawal.ListInput{
		CampaignID: campaignID,
		Status:     c.Query("status"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToTransactionResponses(items), total, limit, offset)
}

// Ledger - GET /api/campaigns/:id/ledger
func (h *TransactionHandler) Ledger(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "некорректный ID кампании")
		return
	}

	ledger, err := h.engine.Ledger(c.Request.Context(), campaignID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToLedgerResponse(ledger))
}

func transactionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "некорректный ID транзакции")
		return uuid.Nil, false
	}
	return id, true
}
