package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kuruswap-bot/backend/internal/chain"
	"github.com/kuruswap-bot/backend/internal/http/dto"
	"github.com/kuruswap-bot/backend/internal/kuru"
	"github.com/kuruswap-bot/backend/internal/middleware"
	"github.com/kuruswap-bot/backend/internal/repositories"
	"github.com/kuruswap-bot/backend/internal/services"
	"github.com/kuruswap-bot/backend/internal/sessions"
	"go.uber.org/zap"
)

// respondServiceError maps domain sentinels to HTTP statuses. Anything
// unmatched is a 500 with a generic body; the cause goes to the log only.
func respondServiceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		log.Error("unhandled service error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(dto.ErrorResponse{
			Error:     "internal server error",
			RequestID: middleware.GetRequestID(c),
		})
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error:     err.Error(),
		RequestID: middleware.GetRequestID(c),
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidPrivateKey),
		errors.Is(err, services.ErrInvalidLabel),
		errors.Is(err, sessions.ErrInvalidTransition):
		return fiber.StatusBadRequest

	case errors.Is(err, repositories.ErrNotOwned):
		return fiber.StatusForbidden

	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, repositories.ErrNoActiveWallet),
		errors.Is(err, kuru.ErrNoPool):
		return fiber.StatusNotFound

	case errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, kuru.ErrQuoteUnavailable),
		errors.Is(err, chain.ErrInvalidToken):
		return fiber.StatusUnprocessableEntity

	case errors.Is(err, chain.ErrUnreachable),
		errors.Is(err, chain.ErrSubmission),
		errors.Is(err, kuru.ErrDiscoveryUnavailable):
		return fiber.StatusBadGateway

	default:
		return fiber.StatusInternalServerError
	}
}
