package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a company occupying space in the building.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Floor     string    `json:"floor"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
