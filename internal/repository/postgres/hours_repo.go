package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// hoursRepository implements repository.HoursRepository for PostgreSQL.
type hoursRepository struct {
	db *DB
}

// NewHoursRepository creates a new PostgreSQL hours repository.
func NewHoursRepository(db *DB) repository.HoursRepository {
	return &hoursRepository{db: db}
}

const hoursColumns = `id, branch, day_of_week, open, close, created_at, updated_at`

func scanHours(row interface{ Scan(...any) error }) (*domain.Hours, error) {
	entry := &domain.Hours{}

	err := row.Scan(
		&entry.ID,
		&entry.Branch,
		&entry.DayOfWeek,
		&entry.Open,
		&entry.Close,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ListByBranch returns the hours entries for a branch ordered by day.
func (r *hoursRepository) ListByBranch(ctx context.Context, branch string) ([]*domain.Hours, error) {
	query := `SELECT ` + hoursColumns + ` FROM hours WHERE branch = $1 ORDER BY day_of_week`

	rows, err := r.db.Pool.Query(ctx, query, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to list hours: %w", err)
	}
	defer rows.Close()

	var entries []*domain.Hours
	for rows.Next() {
		entry, err := scanHours(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hours entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hours entries: %w", err)
	}

	return entries, nil
}

// Upsert creates or replaces the entry for (branch, day).
func (r *hoursRepository) Upsert(ctx context.Context, entry *domain.Hours) (*domain.Hours, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO hours (id, branch, day_of_week, open, close, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (branch, day_of_week) DO UPDATE SET
			open = excluded.open,
			close = excluded.close,
			updated_at = excluded.updated_at
		RETURNING ` + hoursColumns

	stored, err := scanHours(r.db.Pool.QueryRow(ctx, query,
		entry.ID,
		entry.Branch,
		entry.DayOfWeek,
		entry.Open,
		entry.Close,
		now,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert hours: %w", err)
	}
	return stored, nil
}

// Ensure hoursRepository implements repository.HoursRepository.
var _ repository.HoursRepository = (*hoursRepository)(nil)
