package visitors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lobbypass/backend/internal/models"
)

var (
	// ErrNotFound is returned when no visitor matches the lookup.
	ErrNotFound = errors.New("visitor not found")
	// ErrStatusConflict is returned when a guarded transition write finds the
	// visitor in a status that does not allow it (e.g. a concurrent update won).
	ErrStatusConflict = errors.New("visitor status does not allow this transition")
)

// ValidationError lists required fields missing from a create request.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// CreateParams is the draft for a new visitor record.
type CreateParams struct {
	FullName    string
	Email       string
	Phone       string
	Company     string
	Purpose     string
	HostID      uuid.UUID
	HostName    string
	TenantID    uuid.UUID
	ScheduledAt *time.Time
	Status      models.VisitorStatus // defaults to pending
	VisitorCode string               // generated when empty
	GuestCode   string               // generated when empty
}

// Validate checks required fields and returns a ValidationError naming any missing ones.
func (p *CreateParams) Validate() error {
	var missing []string
	if p.FullName == "" {
		missing = append(missing, "full_name")
	}
	if p.Email == "" {
		missing = append(missing, "email")
	}
	if p.Phone == "" {
		missing = append(missing, "phone")
	}
	if p.Purpose == "" {
		missing = append(missing, "purpose")
	}
	if p.HostID == uuid.Nil {
		missing = append(missing, "host_id")
	}
	if p.HostName == "" {
		missing = append(missing, "host_name")
	}
	if p.TenantID == uuid.Nil {
		missing = append(missing, "tenant_id")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// UpdateParams is a field-level patch; nil fields are left unchanged.
type UpdateParams struct {
	FullName    *string
	Email       *string
	Phone       *string
	Company     *string
	Purpose     *string
	HostID      *uuid.UUID
	HostName    *string
	ScheduledAt *time.Time
}

// ListFilters narrows List results. Nil fields mean no constraint.
type ListFilters struct {
	Status   *models.VisitorStatus
	TenantID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

const visitorColumns = `id, visitor_code, guest_code, full_name, email, phone, company, purpose,
	host_id, host_name, tenant_id, scheduled_at, status, check_in_time, check_out_time,
	badge_id, badge_number, created_at, updated_at`

// Repository handles visitor persistence. Visitors are never deleted.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a visitor repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanVisitor(row pgx.Row) (*models.Visitor, error) {
	var v models.Visitor
	err := row.Scan(&v.ID, &v.VisitorCode, &v.GuestCode, &v.FullName, &v.Email, &v.Phone, &v.Company, &v.Purpose,
		&v.HostID, &v.HostName, &v.TenantID, &v.ScheduledAt, &v.Status, &v.CheckInTime, &v.CheckOutTime,
		&v.BadgeID, &v.BadgeNumber, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create validates the draft, fills generated codes and inserts the visitor.
func (r *Repository) Create(ctx context.Context, p *CreateParams) (*models.Visitor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	status := p.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, &ValidationError{Missing: []string{"status"}}
	}
	if p.VisitorCode == "" {
		code, err := NewVisitorCode(time.Now())
		if err != nil {
			return nil, err
		}
		p.VisitorCode = code
	}
	if p.GuestCode == "" {
		code, err := NewGuestCode()
		if err != nil {
			return nil, err
		}
		p.GuestCode = code
	}

	const q = `INSERT INTO visitors (visitor_code, guest_code, full_name, email, phone, company, purpose,
			host_id, host_name, tenant_id, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + visitorColumns
	return scanVisitor(r.pool.QueryRow(ctx, q, p.VisitorCode, p.GuestCode, p.FullName, p.Email, p.Phone,
		p.Company, p.Purpose, p.HostID, p.HostName, p.TenantID, p.ScheduledAt, string(status)))
}

// GetByID returns a visitor by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	const q = `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`
	return scanVisitor(r.pool.QueryRow(ctx, q, id))
}

// GetByCode returns a visitor by visitor_code or guest_code, so both the
// system-generated code and the human-facing short token resolve the same record.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Visitor, error) {
	const q = `SELECT ` + visitorColumns + ` FROM visitors WHERE visitor_code = $1 OR guest_code = $1`
	return scanVisitor(r.pool.QueryRow(ctx, q, code))
}

// List returns visitors matching the conjunction of the given filters.
func (r *Repository) List(ctx context.Context, f ListFilters) ([]models.Visitor, error) {
	q := `SELECT ` + visitorColumns + ` FROM visitors`
	var conds []string
	var args []interface{}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.TenantID != nil {
		args = append(args, *f.TenantID)
		conds = append(conds, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

// ListOnsite returns all currently checked-in visitors, oldest check-in first
// (the evacuation roster ordering).
func (r *Repository) ListOnsite(ctx context.Context) ([]models.Visitor, error) {
	const q = `SELECT ` + visitorColumns + ` FROM visitors WHERE status = 'checked_in' ORDER BY check_in_time`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

// Update patches visitor fields. Nil params are left unchanged; last write wins.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Visitor, error) {
	const q = `UPDATE visitors SET
			full_name = COALESCE($2, full_name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			company = COALESCE($5, company),
			purpose = COALESCE($6, purpose),
			host_id = COALESCE($7, host_id),
			host_name = COALESCE($8, host_name),
			scheduled_at = COALESCE($9, scheduled_at),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + visitorColumns
	return scanVisitor(r.pool.QueryRow(ctx, q, id, p.FullName, p.Email, p.Phone, p.Company, p.Purpose,
		p.HostID, p.HostName, p.ScheduledAt))
}

// SetCheckedIn marks the visitor checked in at the given time, recording the
// badge linkage when a badge was claimed (nil badge = checked in without one).
// The status guard lives in the UPDATE itself so two concurrent transition
// writes cannot both succeed; the loser gets ErrStatusConflict.
func (r *Repository) SetCheckedIn(ctx context.Context, id uuid.UUID, badge *models.Badge, at time.Time) (*models.Visitor, error) {
	var badgeID *uuid.UUID
	var badgeNumber *string
	if badge != nil {
		badgeID = &badge.ID
		badgeNumber = &badge.BadgeNumber
	}
	const q = `UPDATE visitors SET status = 'checked_in', check_in_time = $2, badge_id = $3, badge_number = $4, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'pre_registered')
		RETURNING ` + visitorColumns
	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id, at, badgeID, badgeNumber))
	if err != nil {
		return nil, r.transitionErr(ctx, id, err)
	}
	return v, nil
}

// SetCheckedOut marks the visitor checked out and clears the badge linkage.
// Conditional on the visitor still being checked in.
func (r *Repository) SetCheckedOut(ctx context.Context, id uuid.UUID, at time.Time) (*models.Visitor, error) {
	const q = `UPDATE visitors SET status = 'checked_out', check_out_time = $2, badge_id = NULL, badge_number = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'checked_in'
		RETURNING ` + visitorColumns
	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id, at))
	if err != nil {
		return nil, r.transitionErr(ctx, id, err)
	}
	return v, nil
}

// SetCancelled marks a visit cancelled. Conditional on the visit not having started.
func (r *Repository) SetCancelled(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	const q = `UPDATE visitors SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'pre_registered')
		RETURNING ` + visitorColumns
	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, r.transitionErr(ctx, id, err)
	}
	return v, nil
}

// transitionErr disambiguates a zero-row guarded transition: the visitor is
// either genuinely missing (ErrNotFound) or exists in a disallowed status
// (ErrStatusConflict).
func (r *Repository) transitionErr(ctx context.Context, id uuid.UUID, err error) error {
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return getErr
	}
	return ErrStatusConflict
}

// CountOnsiteByTenant returns the number of checked-in visitors per tenant.
func (r *Repository) CountOnsiteByTenant(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT t.name, COUNT(*) FROM visitors v
		INNER JOIN tenants t ON t.id = v.tenant_id
		WHERE v.status = 'checked_in' GROUP BY t.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}
