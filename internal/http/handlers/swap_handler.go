package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kuruswap-bot/backend/internal/http/dto"
	"github.com/kuruswap-bot/backend/internal/middleware"
	"github.com/kuruswap-bot/backend/internal/services"
	"go.uber.org/zap"
)

type SwapHandler struct {
	swapService *services.SwapService
	log         *zap.Logger
}

func NewSwapHandler(swapService *services.SwapService, log *zap.Logger) *SwapHandler {
	return &SwapHandler{swapService: swapService, log: log}
}

// Quote previews a swap without submitting anything: pool, rate, expected
// and minimum output for the confirmation prompt.
// POST /me/swap/quote
func (h *SwapHandler) Quote(c *fiber.Ctx) error {
	var req dto.SwapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	quote, err := h.swapService.QuoteSwap(c.Context(), middleware.GetUserID(c), req.TokenAddress, req.Amount)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.QuoteResponse{
		Pool:          quote.Pool.Hex(),
		TokenAddress:  quote.Token.Address.Hex(),
		TokenName:     quote.Token.Name,
		TokenSymbol:   quote.Token.Symbol,
		TokenDecimals: quote.Token.Decimals,
		AmountWei:     quote.AmountWei.String(),
		Rate:          quote.Rate.String(),
		ExpectedOut:   quote.ExpectedOut.String(),
		MinOut:        quote.MinOut.String(),
		SlippageBPS:   quote.SlippageBPS,
	}})
}

// Execute swaps native currency into the requested token from the active
// wallet and returns the submitted transaction hash. Confirmation arrives
// later over the event stream.
// POST /me/swap
func (h *SwapHandler) Execute(c *fiber.Ctx) error {
	var req dto.SwapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	result, err := h.swapService.ExecuteSwap(c.Context(), middleware.GetUserID(c), req.TokenAddress, req.Amount)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.SwapResponse{
		TxHash:      result.TxHash,
		ExplorerURL: result.ExplorerURL,
	}})
}

// History lists the user's recorded transactions, newest first.
// GET /me/transactions
func (h *SwapHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit > 100 {
		limit = 100
	}

	txs, err := h.swapService.History(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: txs})
}
