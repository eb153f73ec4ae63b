package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// chainProber is the reachability slice of the chain client.
type chainProber interface {
	IsReachable(ctx context.Context) bool
}

type HealthHandler struct {
	pool  *pgxpool.Pool
	chain chainProber
}

func NewHealthHandler(pool *pgxpool.Pool, chain chainProber) *HealthHandler {
	return &HealthHandler{pool: pool, chain: chain}
}

// Healthz reports database and chain connectivity. Degraded dependencies
// return 503 so the orchestrator can restart or reroute.
// GET /healthz
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	dbOK := h.pool.Ping(c.Context()) == nil
	chainOK := h.chain.IsReachable(c.Context())

	status := fiber.StatusOK
	state := "ok"
	if !dbOK || !chainOK {
		status = fiber.StatusServiceUnavailable
		state = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"db":     dbOK,
		"chain":  chainOK,
	})
}
