package reports

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lobbypass/backend/internal/models"
	"github.com/lobbypass/backend/internal/visitors"
	"github.com/lobbypass/backend/pkg/response"
)

// OnsiteResponse is the JSON shape for the on-site roster (evacuation list).
type OnsiteResponse struct {
	Count    int              `json:"count"`
	ByTenant map[string]int   `json:"by_tenant"`
	Visitors []models.Visitor `json:"visitors"`
}

// Handler handles reporting endpoints over visitor data.
type Handler struct {
	visitorRepo *visitors.Repository
	logger      *zap.Logger
}

// NewHandler creates a reports handler.
func NewHandler(visitorRepo *visitors.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{visitorRepo: visitorRepo, logger: logger}
}

// Onsite handles GET /visitors/onsite. Returns everyone currently checked in,
// oldest check-in first, plus per-tenant occupancy counts.
func (h *Handler) Onsite(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.visitorRepo.ListOnsite(ctx)
	if err != nil {
		h.logger.Error("onsite roster failed", zap.Error(err))
		response.Internal(c, "failed to load on-site roster")
		return
	}

	byTenant, err := h.visitorRepo.CountOnsiteByTenant(ctx)
	if err != nil {
		h.logger.Error("occupancy counts failed", zap.Error(err))
		response.Internal(c, "failed to load occupancy counts")
		return
	}

	if list == nil {
		list = []models.Visitor{}
	}
	response.OK(c, OnsiteResponse{Count: len(list), ByTenant: byTenant, Visitors: list})
}
