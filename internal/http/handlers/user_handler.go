package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kuruswap-bot/backend/internal/http/dto"
	"github.com/kuruswap-bot/backend/internal/middleware"
	"github.com/kuruswap-bot/backend/internal/repositories"
	"github.com/kuruswap-bot/backend/internal/services"
	"go.uber.org/zap"
)

type UserHandler struct {
	userRepo      *repositories.UserRepo
	walletService *services.WalletService
	log           *zap.Logger
}

func NewUserHandler(userRepo *repositories.UserRepo, walletService *services.WalletService, log *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, walletService: walletService, log: log}
}

// GetMe returns the user plus a summary of the active wallet, null when no
// wallet exists yet.
// GET /me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}

	me := dto.MeResponse{User: user}
	wallet, err := h.walletService.GetActiveWallet(c.Context(), userID)
	switch {
	case err == nil:
		me.ActiveWallet = wallet
	case errors.Is(err, repositories.ErrNoActiveWallet):
		// New user, no wallet yet.
	default:
		return respondServiceError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: me})
}
