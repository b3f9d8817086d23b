package api

import (
	"context"

	"docchat/store"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
)

type StatusHandler struct {
	index     store.VectorIndex
	dimension int
}

func NewStatusHandler(index store.VectorIndex, dimension int) *StatusHandler {
	return &StatusHandler{
		index:     index,
		dimension: dimension,
	}
}

// HandleStatus reports whether indexing has completed for a session.
// Readiness is derived from index population: a zero-valued probe vector,
// topK 1, scoped to the session id. No status record is kept anywhere, so
// the check is idempotent and safe to poll.
func (h *StatusHandler) HandleStatus(c *fiber.Ctx) error {
	var params types.StatusParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	probe := make([]float32, h.dimension)
	matches, err := h.index.Search(context.Background(), probe, 1, params.SessionID)
	if err != nil {
		return err
	}

	return c.JSON(types.StatusResponse{Ready: len(matches) > 0})
}
