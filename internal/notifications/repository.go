package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lobbypass/backend/internal/models"
)

// Repository handles notification audit rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a notification record.
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (visitor_id, host_id, kind, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, dispatched_at, created_at`
	return r.pool.QueryRow(ctx, q, n.VisitorID, n.HostID, n.Kind, n.Message).
		Scan(&n.ID, &n.DispatchedAt, &n.CreatedAt)
}

// MarkDispatched sets dispatched_at for a notification.
func (r *Repository) MarkDispatched(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE notifications SET dispatched_at = NOW() WHERE id = $1 AND dispatched_at IS NULL`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// ListByVisitor returns all notifications raised for a visitor.
func (r *Repository) ListByVisitor(ctx context.Context, visitorID uuid.UUID) ([]models.Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, visitor_id, host_id, kind, message, dispatched_at, created_at
		FROM notifications WHERE visitor_id = $1 ORDER BY created_at DESC`, visitorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.VisitorID, &n.HostID, &n.Kind, &n.Message, &n.DispatchedAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}
