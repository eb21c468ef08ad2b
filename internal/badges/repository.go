package badges

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lobbypass/backend/internal/models"
)

var (
	// ErrNotFound is returned when no badge matches the lookup.
	ErrNotFound = errors.New("badge not found")
	// ErrNoBadgeAvailable is returned when the pool has no free badge of the requested type.
	ErrNoBadgeAvailable = errors.New("no badge available")
)

const badgeColumns = `id, badge_number, badge_type, status, current_visitor_id, last_issued_at, created_at, updated_at`

// Repository tracks availability of the finite badge pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a badge repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanBadge(row pgx.Row) (*models.Badge, error) {
	var b models.Badge
	err := row.Scan(&b.ID, &b.BadgeNumber, &b.BadgeType, &b.Status, &b.CurrentVisitorID, &b.LastIssuedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ClaimAvailable atomically claims the lowest-numbered available badge of the
// given type for a visitor. The claim is a single conditional update, so two
// concurrent check-ins can never be handed the same badge; SKIP LOCKED makes
// contending claims take the next badge instead of blocking. Lowest badge
// number first keeps physical badge handling predictable for front-desk staff.
func (r *Repository) ClaimAvailable(ctx context.Context, badgeType models.BadgeType, visitorID uuid.UUID) (*models.Badge, error) {
	const q = `UPDATE badges SET status = 'issued', current_visitor_id = $1, last_issued_at = NOW(), updated_at = NOW()
		WHERE id = (
			SELECT id FROM badges
			WHERE status = 'available' AND badge_type = $2
			ORDER BY badge_number
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + badgeColumns
	b, err := scanBadge(r.pool.QueryRow(ctx, q, visitorID, string(badgeType)))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoBadgeAvailable
	}
	return b, err
}

// Release returns a badge to the available pool and clears the visitor link.
// Re-releasing an already-available badge is a harmless no-op.
func (r *Repository) Release(ctx context.Context, badgeID uuid.UUID) error {
	const q = `UPDATE badges SET status = 'available', current_visitor_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status IN ('available', 'issued')`
	tag, err := r.pool.Exec(ctx, q, badgeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a badge by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Badge, error) {
	const q = `SELECT ` + badgeColumns + ` FROM badges WHERE id = $1`
	return scanBadge(r.pool.QueryRow(ctx, q, id))
}

// List returns all badges ordered by badge number.
func (r *Repository) List(ctx context.Context) ([]models.Badge, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+badgeColumns+` FROM badges ORDER BY badge_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// Provision inserts new badges into the pool. Duplicate numbers are skipped.
func (r *Repository) Provision(ctx context.Context, badgeType models.BadgeType, numbers []string) ([]models.Badge, error) {
	var created []models.Badge
	for _, number := range numbers {
		const q = `INSERT INTO badges (badge_number, badge_type)
			VALUES ($1, $2)
			ON CONFLICT (badge_number) DO NOTHING
			RETURNING ` + badgeColumns
		b, err := scanBadge(r.pool.QueryRow(ctx, q, number, string(badgeType)))
		if errors.Is(err, ErrNotFound) {
			continue // number already provisioned
		}
		if err != nil {
			return nil, err
		}
		created = append(created, *b)
	}
	return created, nil
}

// SetStatus performs a manual administrative status change: marking a badge
// lost or damaged, or resetting it back to available. Resetting clears the
// visitor link.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.BadgeStatus) (*models.Badge, error) {
	const q = `UPDATE badges SET status = $2,
			current_visitor_id = CASE WHEN $2 = 'available' THEN NULL ELSE current_visitor_id END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + badgeColumns
	return scanBadge(r.pool.QueryRow(ctx, q, id, string(status)))
}

// Stats returns the aggregate view of the badge pool.
func (r *Repository) Stats(ctx context.Context) (*models.BadgeStats, error) {
	stats := &models.BadgeStats{ByType: make(map[string]int)}

	rows, err := r.pool.Query(ctx, `SELECT badge_type, status, COUNT(*) FROM badges GROUP BY badge_type, status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var badgeType, status string
		var n int
		if err := rows.Scan(&badgeType, &status, &n); err != nil {
			return nil, err
		}
		stats.Total += n
		stats.ByType[badgeType] += n
		switch models.BadgeStatus(status) {
		case models.BadgeAvailable:
			stats.Available += n
		case models.BadgeIssued:
			stats.Issued += n
		case models.BadgeLost:
			stats.Lost += n
		case models.BadgeDamaged:
			stats.Damaged += n
		}
	}
	return stats, rows.Err()
}
