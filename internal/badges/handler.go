package badges

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lobbypass/backend/internal/models"
	"github.com/lobbypass/backend/pkg/response"
)

const statsCacheKey = "badges:stats"

// ProvisionRequest is the body for POST /badges.
type ProvisionRequest struct {
	BadgeType string   `json:"badge_type" binding:"required"`
	Numbers   []string `json:"numbers" binding:"required,min=1"`
}

// SetStatusRequest is the body for PATCH /badges/:id/status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles badge HTTP endpoints.
type Handler struct {
	repo     *Repository
	rdb      *redis.Client // optional stats cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewHandler creates a badges handler. rdb may be nil to disable stats caching.
func NewHandler(repo *Repository, rdb *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, rdb: rdb, cacheTTL: cacheTTL, logger: logger}
}

// List handles GET /badges.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list badges failed", zap.Error(err))
		response.Internal(c, "failed to list badges")
		return
	}
	response.OK(c, list)
}

// Provision handles POST /badges. Seeds new badges into the pool.
func (h *Handler) Provision(c *gin.Context) {
	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	badgeType := models.BadgeType(req.BadgeType)
	if !badgeType.Valid() {
		response.BadRequest(c, "invalid badge_type")
		return
	}

	created, err := h.repo.Provision(c.Request.Context(), badgeType, req.Numbers)
	if err != nil {
		h.logger.Error("provision badges failed", zap.Error(err))
		response.Internal(c, "failed to provision badges")
		return
	}
	h.invalidateStats(c.Request.Context())
	response.Created(c, created)
}

// SetStatus handles PATCH /badges/:id/status. Manual administrative action:
// mark a badge lost or damaged, or reset it back to available.
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid badge id")
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := models.BadgeStatus(req.Status)
	if !status.Valid() || status == models.BadgeIssued {
		// issuing happens only through check-in
		response.BadRequest(c, "status must be available, lost or damaged")
		return
	}

	badge, err := h.repo.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "badge not found")
			return
		}
		h.logger.Error("set badge status failed", zap.Error(err), zap.String("badge_id", id.String()))
		response.Internal(c, "failed to update badge")
		return
	}
	h.invalidateStats(c.Request.Context())
	response.OK(c, badge)
}

// Stats handles GET /badges/stats. The aggregate is served from a short-TTL
// cache when Redis is configured; dashboards poll this endpoint.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cacheEnabled() {
		if raw, err := h.rdb.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats models.BadgeStats
			if json.Unmarshal([]byte(raw), &stats) == nil {
				response.OK(c, stats)
				return
			}
		}
	}

	stats, err := h.repo.Stats(ctx)
	if err != nil {
		h.logger.Error("badge stats failed", zap.Error(err))
		response.Internal(c, "failed to load badge stats")
		return
	}

	if h.cacheEnabled() {
		if raw, err := json.Marshal(stats); err == nil {
			if err := h.rdb.Set(ctx, statsCacheKey, raw, h.cacheTTL).Err(); err != nil {
				h.logger.Warn("cache badge stats failed", zap.Error(err))
			}
		}
	}

	response.OK(c, stats)
}

func (h *Handler) cacheEnabled() bool {
	return h.rdb != nil && h.cacheTTL > 0
}

func (h *Handler) invalidateStats(ctx context.Context) {
	if h.cacheEnabled() {
		if err := h.rdb.Del(ctx, statsCacheKey).Err(); err != nil {
			h.logger.Warn("invalidate badge stats cache failed", zap.Error(err))
		}
	}
}
