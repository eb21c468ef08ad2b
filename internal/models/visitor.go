package models

import (
	"time"

	"github.com/google/uuid"
)

// VisitorStatus represents where a visitor is in the visit lifecycle.
type VisitorStatus string

const (
	StatusPending       VisitorStatus = "pending"
	StatusPreRegistered VisitorStatus = "pre_registered"
	StatusCheckedIn     VisitorStatus = "checked_in"
	StatusCheckedOut    VisitorStatus = "checked_out"
	StatusCancelled     VisitorStatus = "cancelled"
)

// Valid reports whether s is a known visitor status.
func (s VisitorStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreRegistered, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

// Visitor is a person tracked from registration through departure.
// Rows are never deleted; checked-out and cancelled visits are retained for audit.
type Visitor struct {
	ID            uuid.UUID     `json:"id"`
	VisitorCode   string        `json:"visitor_code"` // system-generated time-based code
	GuestCode     string        `json:"guest_code"`   // short human-enterable lookup token
	FullName      string        `json:"full_name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Company       string        `json:"company,omitempty"`
	Purpose       string        `json:"purpose"`
	HostID        uuid.UUID     `json:"host_id"`
	HostName      string        `json:"host_name"`
	TenantID      uuid.UUID     `json:"tenant_id"`
	ScheduledAt   *time.Time    `json:"scheduled_at,omitempty"` // pre-registration only
	Status        VisitorStatus `json:"status"`
	CheckInTime   *time.Time    `json:"check_in_time,omitempty"`
	CheckOutTime  *time.Time    `json:"check_out_time,omitempty"`
	BadgeID       *uuid.UUID    `json:"badge_id,omitempty"`
	BadgeNumber   *string       `json:"badge_number,omitempty"` // denormalized label of the held badge
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
