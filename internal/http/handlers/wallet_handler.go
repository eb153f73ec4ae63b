package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kuruswap-bot/backend/internal/http/dto"
	"github.com/kuruswap-bot/backend/internal/middleware"
	"github.com/kuruswap-bot/backend/internal/services"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService *services.WalletService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, log: log}
}

// CreateWallet generates a fresh keypair for the user. The response carries
// the address and label only; the key never leaves custody.
// POST /me/wallets
func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	var req dto.CreateWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	wallet, err := h.walletService.CreateWallet(c.Context(), middleware.GetUserID(c), req.Label)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

// ImportWallet stores an externally supplied key under a new label.
// POST /me/wallets/import
func (h *WalletHandler) ImportWallet(c *fiber.Ctx) error {
	var req dto.ImportWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	wallet, err := h.walletService.ImportWallet(c.Context(), middleware.GetUserID(c), req.Label, req.PrivateKey)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

// ListWallets returns the user's wallets in creation order.
// GET /me/wallets
func (h *WalletHandler) ListWallets(c *fiber.Ctx) error {
	wallets, err := h.walletService.ListWallets(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallets})
}

// ActivateWallet switches which wallet signs swaps.
// POST /me/wallets/:id/activate
func (h *WalletHandler) ActivateWallet(c *fiber.Ctx) error {
	walletID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet id"})
	}

	wallet, err := h.walletService.SetActiveWallet(c.Context(), middleware.GetUserID(c), walletID)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

// GetBalance reports the active wallet's native balance, plus one token's
// balance when ?token= is supplied.
// GET /me/balance
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	balances, err := h.walletService.ActiveBalance(c.Context(), middleware.GetUserID(c), c.Query("token"))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: balances})
}
