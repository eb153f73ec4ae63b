package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kuruswap-bot/backend/internal/http/dto"
	"github.com/kuruswap-bot/backend/internal/middleware"
	"github.com/kuruswap-bot/backend/internal/models"
	"github.com/kuruswap-bot/backend/internal/sessions"
	"go.uber.org/zap"
)

type SessionHandler struct {
	store *sessions.Store
	log   *zap.Logger
}

func NewSessionHandler(store *sessions.Store, log *zap.Logger) *SessionHandler {
	return &SessionHandler{store: store, log: log}
}

// GetSession returns the user's conversational position; idle when nothing
// is stored or the previous session expired.
// GET /me/session
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.store.Get(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: session})
}

// UpdateSession advances the session to a new state, rejecting transitions
// the current state cannot legally reach.
// PUT /me/session
func (h *SessionHandler) UpdateSession(c *fiber.Ctx) error {
	var req dto.UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.State == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "state is required"})
	}

	session, err := h.store.Advance(c.Context(), middleware.GetUserID(c), req.State, func(s *models.Session) {
		if req.Mode != "" {
			s.Mode = req.Mode
		}
		if req.WalletLabel != "" {
			s.WalletLabel = req.WalletLabel
		}
		if req.TokenAddress != "" {
			s.TokenAddress = req.TokenAddress
		}
		if req.PoolAddress != "" {
			s.PoolAddress = req.PoolAddress
		}
		if req.Amount != "" {
			s.Amount = req.Amount
		}
	})
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: session})
}

// ClearSession cancels any in-flight flow, returning the user to idle.
// DELETE /me/session
func (h *SessionHandler) ClearSession(c *fiber.Ctx) error {
	if err := h.store.Clear(c.Context(), middleware.GetUserID(c)); err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
