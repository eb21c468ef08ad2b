package models

import (
	"time"

	"github.com/google/uuid"
)

// BadgeType classifies a physical badge.
type BadgeType string

const (
	BadgeTypeVisitor    BadgeType = "visitor"
	BadgeTypeContractor BadgeType = "contractor"
	BadgeTypeVIP        BadgeType = "vip"
	BadgeTypeDelivery   BadgeType = "delivery"
)

// Valid reports whether t is a known badge type.
func (t BadgeType) Valid() bool {
	switch t {
	case BadgeTypeVisitor, BadgeTypeContractor, BadgeTypeVIP, BadgeTypeDelivery:
		return true
	}
	return false
}

// BadgeStatus represents badge availability.
type BadgeStatus string

const (
	BadgeAvailable BadgeStatus = "available"
	BadgeIssued    BadgeStatus = "issued"
	BadgeLost      BadgeStatus = "lost"
	BadgeDamaged   BadgeStatus = "damaged"
)

// Valid reports whether s is a known badge status.
func (s BadgeStatus) Valid() bool {
	switch s {
	case BadgeAvailable, BadgeIssued, BadgeLost, BadgeDamaged:
		return true
	}
	return false
}

// Badge is a physical access token drawn from a finite, reusable pool.
// A badge is held by at most one visitor at a time.
type Badge struct {
	ID               uuid.UUID   `json:"id"`
	BadgeNumber      string      `json:"badge_number"`
	BadgeType        BadgeType   `json:"badge_type"`
	Status           BadgeStatus `json:"status"`
	CurrentVisitorID *uuid.UUID  `json:"current_visitor_id,omitempty"`
	LastIssuedAt     *time.Time  `json:"last_issued_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// BadgeStats is the aggregate view of the badge pool.
type BadgeStats struct {
	Total     int            `json:"total"`
	Available int            `json:"available"`
	Issued    int            `json:"issued"`
	Lost      int            `json:"lost"`
	Damaged   int            `json:"damaged"`
	ByType    map[string]int `json:"by_type"`
}
