// Package mechanic provides Postgres persistence for workshop contact
// records.
package mechanic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mecanice/partsense/internal/domain"
)

const uniqueViolationCode = "23505"

// Repository stores mechanics in the mechanics table.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const mechanicColumns = `
	id, name, whatsapp_phone_e164, city, state_uf, status,
	address, email, responsible_name, categories, notes,
	created_at, updated_at`

// Create inserts a mechanic and fills its id and timestamps.
func (r *Repository) Create(ctx context.Context, m *domain.Mechanic) error {
	const query = `
		INSERT INTO mechanics (
			name, whatsapp_phone_e164, city, state_uf, status,
			address, email, responsible_name, categories, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		m.Name, m.WhatsappPhoneE164, m.City, m.StateUF, m.Status,
		m.Address, m.Email, m.ResponsibleName, m.Categories, m.Notes,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("phone already registered: %w", domain.ErrDuplicatePhone)
		}
		return fmt.Errorf("insert mechanic: %w", err)
	}

	return nil
}

// Get fetches a mechanic by id.
func (r *Repository) Get(ctx context.Context, id int64) (*domain.Mechanic, error) {
	query := `SELECT` + mechanicColumns + ` FROM mechanics WHERE id = $1`

	m, err := scanMechanic(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("mechanic %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("select mechanic: %w", err)
	}

	return m, nil
}

// List returns mechanics ordered by id descending. An empty status matches
// all records.
func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]domain.Mechanic, error) {
	var statusFilter string
	args := []any{}
	if status != "" {
		args = append(args, status)
		statusFilter = "WHERE status = $1"
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT`+mechanicColumns+`
		FROM mechanics
		%s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d`, statusFilter, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mechanics: %w", err)
	}
	defer rows.Close()

	var mechanics []domain.Mechanic
	for rows.Next() {
		m, err := scanMechanic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mechanic: %w", err)
		}
		mechanics = append(mechanics, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mechanics: %w", err)
	}

	return mechanics, nil
}

// Update applies the non-nil fields of upd and returns the updated record.
func (r *Repository) Update(ctx context.Context, id int64, upd domain.MechanicUpdate) (*domain.Mechanic, error) {
	sets := make([]string, 0, 10)
	args := make([]any, 0, 11)

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		addSet("name", *upd.Name)
	}
	if upd.WhatsappPhoneE164 != nil {
		addSet("whatsapp_phone_e164", *upd.WhatsappPhoneE164)
	}
	if upd.City != nil {
		addSet("city", *upd.City)
	}
	if upd.StateUF != nil {
		addSet("state_uf", *upd.StateUF)
	}
	if upd.Status != nil {
		addSet("status", *upd.Status)
	}
	if upd.Address != nil {
		addSet("address", *upd.Address)
	}
	if upd.Email != nil {
		addSet("email", *upd.Email)
	}
	if upd.ResponsibleName != nil {
		addSet("responsible_name", *upd.ResponsibleName)
	}
	if upd.Categories != nil {
		addSet("categories", *upd.Categories)
	}
	if upd.Notes != nil {
		addSet("notes", *upd.Notes)
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE mechanics SET %s WHERE id = $%d RETURNING`+mechanicColumns,
		strings.Join(sets, ", "), len(args))

	m, err := scanMechanic(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("mechanic %d: %w", id, domain.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("phone already registered: %w", domain.ErrDuplicatePhone)
		}
		return nil, fmt.Errorf("update mechanic: %w", err)
	}

	return m, nil
}

// SetStatus switches a mechanic between active and blocked.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) (*domain.Mechanic, error) {
	query := `UPDATE mechanics SET status = $1, updated_at = now()
		WHERE id = $2 RETURNING` + mechanicColumns

	m, err := scanMechanic(r.pool.QueryRow(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("mechanic %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("set mechanic status: %w", err)
	}

	return m, nil
}

func scanMechanic(row pgx.Row) (*domain.Mechanic, error) {
	var m domain.Mechanic
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.WhatsappPhoneE164,
		&m.City,
		&m.StateUF,
		&m.Status,
		&m.Address,
		&m.Email,
		&m.ResponsibleName,
		&m.Categories,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
