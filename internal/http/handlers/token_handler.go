package handlers

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/kuruswap-bot/backend/internal/http/dto"
	"github.com/kuruswap-bot/backend/internal/services"
	"go.uber.org/zap"
)

type TokenHandler struct {
	chain services.ChainBackend
	log   *zap.Logger
}

func NewTokenHandler(chain services.ChainBackend, log *zap.Logger) *TokenHandler {
	return &TokenHandler{chain: chain, log: log}
}

// GetToken probes an address for the ERC20 read interface so the front end
// can validate pasted token addresses before offering a swap.
// GET /tokens/:address
func (h *TokenHandler) GetToken(c *fiber.Ctx) error {
	address := c.Params("address")
	if !common.IsHexAddress(address) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid token address"})
	}

	meta, err := h.chain.TokenMetadata(c.Context(), common.HexToAddress(address))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: meta})
}
