package checkin

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lobbypass/backend/internal/visitors"
	"github.com/lobbypass/backend/pkg/queue"
	"github.com/lobbypass/backend/pkg/response"
)

// Handler handles check-in/check-out HTTP endpoints.
type Handler struct {
	coordinator *Coordinator
	jobs        *queue.Queue // optional host notification queue
	logger      *zap.Logger
}

// NewHandler creates a check-in handler. jobs may be nil to disable host notifications.
func NewHandler(coordinator *Coordinator, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{coordinator: coordinator, jobs: jobs, logger: logger}
}

// CheckIn handles POST /visitors/:id/checkin.
func (h *Handler) CheckIn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid visitor id")
		return
	}

	result, err := h.coordinator.CheckIn(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, id, "check in", err)
		return
	}

	if h.jobs != nil {
		v := result.Visitor
		payload := queue.HostNotificationPayload{
			VisitorID:   v.ID,
			HostID:      v.HostID,
			Kind:        "visitor_checked_in",
			VisitorName: v.FullName,
			Message:     fmt.Sprintf("%s has checked in to see you (purpose: %s)", v.FullName, v.Purpose),
		}
		if err := h.jobs.EnqueueHostNotification(c.Request.Context(), payload); err != nil {
			// notification is best-effort; the check-in already happened
			h.logger.Warn("enqueue host notification failed", zap.Error(err), zap.String("visitor_id", v.ID.String()))
		}
	}

	response.OK(c, result)
}

// CheckOut handles POST /visitors/:id/checkout.
func (h *Handler) CheckOut(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid visitor id")
		return
	}

	result, err := h.coordinator.CheckOut(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, id, "check out", err)
		return
	}
	response.OK(c, result)
}

// Cancel handles POST /visitors/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid visitor id")
		return
	}

	visitor, err := h.coordinator.Cancel(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, id, "cancel", err)
		return
	}
	response.OK(c, visitor)
}

func (h *Handler) respondError(c *gin.Context, id uuid.UUID, op string, err error) {
	switch {
	case errors.Is(err, visitors.ErrNotFound):
		response.NotFound(c, "visitor not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error(op+" failed", zap.Error(err), zap.String("visitor_id", id.String()))
		response.Internal(c, "failed to "+op)
	}
}
