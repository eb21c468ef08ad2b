package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lobbypass/backend/internal/badges"
	"github.com/lobbypass/backend/internal/models"
	"github.com/lobbypass/backend/internal/visitors"
)

// ErrInvalidTransition is returned when an operation is called on a visitor
// whose status does not allow it (e.g. checking in an already checked-in visitor).
var ErrInvalidTransition = errors.New("invalid status transition")

// Warning values carried on a successful Result when a badge step degraded.
const (
	WarningNoBadge            = "no badge available; visitor checked in without a badge"
	WarningBadgeClaimFailed   = "badge claim failed; visitor checked in without a badge"
	WarningBadgeReleaseFailed = "badge release failed; badge requires manual reset"
)

// VisitorStore is the visitor persistence the coordinator needs.
type VisitorStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Visitor, error)
	SetCheckedIn(ctx context.Context, id uuid.UUID, badge *models.Badge, at time.Time) (*models.Visitor, error)
	SetCheckedOut(ctx context.Context, id uuid.UUID, at time.Time) (*models.Visitor, error)
	SetCancelled(ctx context.Context, id uuid.UUID) (*models.Visitor, error)
}

// BadgeInventory is the badge pool the coordinator draws from.
type BadgeInventory interface {
	ClaimAvailable(ctx context.Context, badgeType models.BadgeType, visitorID uuid.UUID) (*models.Badge, error)
	Release(ctx context.Context, badgeID uuid.UUID) error
}

// Result is the outcome of a check-in or check-out. Warning is set when a badge
// step degraded but the visitor transition still succeeded, so callers can
// surface a "no badge available" notice instead of losing it to a log line.
type Result struct {
	Visitor       *models.Visitor `json:"visitor"`
	BadgeAssigned bool            `json:"badge_assigned"`
	Warning       string          `json:"warning,omitempty"`
}

// Coordinator sequences badge and visitor state changes for check-in/out.
// Badge scarcity never blocks the front-desk flow: a visitor is checked in
// with or without a badge, and the degradation is reported on the Result.
type Coordinator struct {
	visitors VisitorStore
	badges   BadgeInventory
	logger   *zap.Logger

	// Now is the clock used for timestamps; overridable in tests.
	Now func() time.Time
}

// NewCoordinator creates a check-in/check-out coordinator.
func NewCoordinator(visitors VisitorStore, badges BadgeInventory, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{visitors: visitors, badges: badges, logger: logger, Now: time.Now}
}

// CheckIn transitions a pending or pre-registered visitor to checked_in,
// claiming the lowest-numbered available visitor badge when one exists.
func (co *Coordinator) CheckIn(ctx context.Context, visitorID uuid.UUID) (*Result, error) {
	v, err := co.visitors.GetByID(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if v.Status != models.StatusPending && v.Status != models.StatusPreRegistered {
		return nil, fmt.Errorf("%w: cannot check in visitor in status %q", ErrInvalidTransition, v.Status)
	}

	var warning string
	badge, err := co.badges.ClaimAvailable(ctx, models.BadgeTypeVisitor, visitorID)
	if err != nil {
		badge = nil
		if errors.Is(err, badges.ErrNoBadgeAvailable) {
			warning = WarningNoBadge
		} else {
			warning = WarningBadgeClaimFailed
			co.logger.Warn("badge claim failed", zap.Error(err), zap.String("visitor_id", visitorID.String()))
		}
	}

	// The store enforces the same guard atomically, so a concurrent duplicate
	// check-in loses here rather than overwriting the winner.
	updated, err := co.visitors.SetCheckedIn(ctx, visitorID, badge, co.Now())
	if err != nil {
		if badge != nil {
			// claimed but never linked; put it back
			if relErr := co.badges.Release(ctx, badge.ID); relErr != nil {
				co.logger.Error("compensating badge release failed",
					zap.Error(relErr), zap.String("badge_id", badge.ID.String()))
			}
		}
		if errors.Is(err, visitors.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: visitor is no longer pending or pre-registered", ErrInvalidTransition)
		}
		return nil, err
	}

	return &Result{Visitor: updated, BadgeAssigned: badge != nil, Warning: warning}, nil
}

// CheckOut transitions a checked-in visitor to checked_out, returning the held
// badge to the available pool and clearing the badge linkage.
func (co *Coordinator) CheckOut(ctx context.Context, visitorID uuid.UUID) (*Result, error) {
	v, err := co.visitors.GetByID(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if v.Status != models.StatusCheckedIn {
		return nil, fmt.Errorf("%w: cannot check out visitor in status %q", ErrInvalidTransition, v.Status)
	}

	var warning string
	if v.BadgeID != nil {
		if err := co.badges.Release(ctx, *v.BadgeID); err != nil {
			warning = WarningBadgeReleaseFailed
			co.logger.Warn("badge release failed", zap.Error(err),
				zap.String("badge_id", v.BadgeID.String()), zap.String("visitor_id", visitorID.String()))
		}
	}

	updated, err := co.visitors.SetCheckedOut(ctx, visitorID, co.Now())
	if err != nil {
		if errors.Is(err, visitors.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: visitor is no longer checked in", ErrInvalidTransition)
		}
		return nil, err
	}

	return &Result{Visitor: updated, BadgeAssigned: false, Warning: warning}, nil
}

// Cancel transitions a pending or pre-registered visitor to cancelled.
func (co *Coordinator) Cancel(ctx context.Context, visitorID uuid.UUID) (*models.Visitor, error) {
	v, err := co.visitors.GetByID(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if v.Status != models.StatusPending && v.Status != models.StatusPreRegistered {
		return nil, fmt.Errorf("%w: cannot cancel visitor in status %q", ErrInvalidTransition, v.Status)
	}
	cancelled, err := co.visitors.SetCancelled(ctx, visitorID)
	if err != nil {
		if errors.Is(err, visitors.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: visitor is no longer pending or pre-registered", ErrInvalidTransition)
		}
		return nil, err
	}
	return cancelled, nil
}
