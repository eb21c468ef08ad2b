package tenants

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lobbypass/backend/internal/models"
	"github.com/lobbypass/backend/pkg/response"
)

// CreateRequest is the body for POST /tenants.
type CreateRequest struct {
	Name  string `json:"name" binding:"required"`
	Floor string `json:"floor"`
}

// HostLister lists the host users reachable for a tenant, for front-desk host pickers.
type HostLister interface {
	ListHostsByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.UserPublic, error)
}

// Handler handles tenant HTTP endpoints.
type Handler struct {
	repo   *Repository
	hosts  HostLister
	logger *zap.Logger
}

// NewHandler creates a tenants handler.
func NewHandler(repo *Repository, hosts HostLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, hosts: hosts, logger: logger}
}

// Create handles POST /tenants (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tenant, err := h.repo.Create(c.Request.Context(), req.Name, req.Floor)
	if err != nil {
		h.logger.Error("create tenant failed", zap.Error(err))
		response.Internal(c, "failed to create tenant")
		return
	}
	response.Created(c, tenant)
}

// List handles GET /tenants.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list tenants failed", zap.Error(err))
		response.Internal(c, "failed to list tenants")
		return
	}
	response.OK(c, list)
}

// ListHosts handles GET /tenants/:id/hosts. Returns the tenant's host users so
// the front desk can pick who a visitor is here to see.
func (h *Handler) ListHosts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tenant id")
		return
	}
	hosts, err := h.hosts.ListHostsByTenant(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list tenant hosts failed", zap.Error(err), zap.String("tenant_id", id.String()))
		response.Internal(c, "failed to list hosts")
		return
	}
	if hosts == nil {
		hosts = []models.UserPublic{}
	}
	response.OK(c, hosts)
}
