package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification records a host notification raised by the check-in flow.
// Delivery is delegated to an external provider; this row is the audit trail.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	VisitorID    uuid.UUID  `json:"visitor_id"`
	HostID       uuid.UUID  `json:"host_id"`
	Kind         string     `json:"kind"` // e.g. "visitor_checked_in"
	Message      string     `json:"message"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
