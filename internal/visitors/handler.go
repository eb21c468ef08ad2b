package visitors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lobbypass/backend/internal/models"
	"github.com/lobbypass/backend/pkg/response"
)

// HostDirectory resolves staff users named as hosts on a visit.
type HostDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TenantDirectory resolves the tenant a visit belongs to.
type TenantDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// CreateRequest is the body for POST /visitors.
type CreateRequest struct {
	FullName    string     `json:"full_name" binding:"required"`
	Email       string     `json:"email" binding:"required,email"`
	Phone       string     `json:"phone" binding:"required"`
	Company     string     `json:"company"`
	Purpose     string     `json:"purpose" binding:"required"`
	HostID      string     `json:"host_id" binding:"required"`
	TenantID    string     `json:"tenant_id" binding:"required"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Status      string     `json:"status"`     // pending (walk-in, default) or pre_registered (invited)
	GuestCode   string     `json:"guest_code"` // generated when absent
}

// UpdateRequest is the body for PATCH /visitors/:id. Absent fields are left unchanged.
type UpdateRequest struct {
	FullName    *string    `json:"full_name"`
	Email       *string    `json:"email"`
	Phone       *string    `json:"phone"`
	Company     *string    `json:"company"`
	Purpose     *string    `json:"purpose"`
	HostID      *string    `json:"host_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Handler handles visitor HTTP endpoints.
type Handler struct {
	repo    *Repository
	users   HostDirectory
	tenants TenantDirectory
	logger  *zap.Logger
}

// NewHandler creates a visitors handler.
func NewHandler(repo *Repository, users HostDirectory, tenants TenantDirectory, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, users: users, tenants: tenants, logger: logger}
}

// Create handles POST /visitors. Registers a walk-in or pre-registered visitor.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hostID, err := uuid.Parse(req.HostID)
	if err != nil {
		response.BadRequest(c, "invalid host_id")
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		response.BadRequest(c, "invalid tenant_id")
		return
	}

	status := models.StatusPending
	if req.Status != "" {
		status = models.VisitorStatus(req.Status)
		if status != models.StatusPending && status != models.StatusPreRegistered {
			response.BadRequest(c, "status must be pending or pre_registered")
			return
		}
	}

	host, err := h.users.GetByID(c.Request.Context(), hostID)
	if err != nil || host == nil {
		response.NotFound(c, "host not found")
		return
	}
	tenant, err := h.tenants.GetByID(c.Request.Context(), tenantID)
	if err != nil || tenant == nil {
		response.NotFound(c, "tenant not found")
		return
	}

	visitor, err := h.repo.Create(c.Request.Context(), &CreateParams{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		Purpose:     req.Purpose,
		HostID:      host.ID,
		HostName:    host.FullName,
		TenantID:    tenantID,
		ScheduledAt: req.ScheduledAt,
		Status:      status,
		GuestCode:   req.GuestCode,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Error())
			return
		}
		h.logger.Error("create visitor failed", zap.Error(err))
		response.Internal(c, "failed to create visitor")
		return
	}

	response.Created(c, visitor)
}

// List handles GET /visitors?status=&tenant_id=&from=&to=.
func (h *Handler) List(c *gin.Context) {
	filters, err := ParseListFilters(c.Query("status"), c.Query("tenant_id"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	list, err := h.repo.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("list visitors failed", zap.Error(err))
		response.Internal(c, "failed to list visitors")
		return
	}
	response.OK(c, list)
}

// ParseListFilters converts query values to repository filters. The legacy
// "all" status sentinel (and empty string) means no status constraint; it never
// reaches the repository as a literal value.
func ParseListFilters(status, tenantID, from, to string) (ListFilters, error) {
	var f ListFilters
	if status != "" && status != "all" {
		s := models.VisitorStatus(status)
		if !s.Valid() {
			return f, fmt.Errorf("unknown status %q", status)
		}
		f.Status = &s
	}
	if tenantID != "" {
		id, err := uuid.Parse(tenantID)
		if err != nil {
			return f, errors.New("invalid tenant_id")
		}
		f.TenantID = &id
	}
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return f, errors.New("invalid from date")
		}
		f.From = &t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return f, errors.New("invalid to date")
		}
		// bare dates are inclusive of the whole day
		if len(to) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &t
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// GetByID handles GET /visitors/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid visitor id")
		return
	}
	visitor, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "visitor not found")
			return
		}
		response.Internal(c, "failed to load visitor")
		return
	}
	response.OK(c, visitor)
}

// GetByCode handles GET /visitors/code/:code (public self-service lookup).
// The code may be either the visitor_code or the guest_code.
func (h *Handler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "code required")
		return
	}
	visitor, err := h.repo.GetByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "visitor not found")
			return
		}
		response.Internal(c, "failed to load visitor")
		return
	}
	response.OK(c, visitor)
}

// Update handles PATCH /visitors/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid visitor id")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	params := UpdateParams{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		Purpose:     req.Purpose,
		ScheduledAt: req.ScheduledAt,
	}
	if req.HostID != nil {
		hostID, err := uuid.Parse(*req.HostID)
		if err != nil {
			response.BadRequest(c, "invalid host_id")
			return
		}
		host, err := h.users.GetByID(c.Request.Context(), hostID)
		if err != nil || host == nil {
			response.NotFound(c, "host not found")
			return
		}
		params.HostID = &host.ID
		params.HostName = &host.FullName
	}

	visitor, err := h.repo.Update(c.Request.Context(), id, params)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "visitor not found")
			return
		}
		h.logger.Error("update visitor failed", zap.Error(err), zap.String("visitor_id", id.String()))
		response.Internal(c, "failed to update visitor")
		return
	}
	response.OK(c, visitor)
}
