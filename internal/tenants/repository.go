package tenants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lobbypass/backend/internal/models"
)

// ErrNotFound is returned when no tenant matches the lookup.
var ErrNotFound = errors.New("tenant not found")

// Repository handles tenant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tenant repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new tenant.
func (r *Repository) Create(ctx context.Context, name, floor string) (*models.Tenant, error) {
	const q = `INSERT INTO tenants (name, floor) VALUES ($1, $2)
		RETURNING id, name, floor, created_at, updated_at`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, name, floor).Scan(&t.ID, &t.Name, &t.Floor, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns a tenant by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	const q = `SELECT id, name, floor, created_at, updated_at FROM tenants WHERE id = $1`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.Name, &t.Floor, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns all tenants ordered by floor then name.
func (r *Repository) List(ctx context.Context) ([]models.Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, floor, created_at, updated_at FROM tenants ORDER BY floor, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Floor, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
