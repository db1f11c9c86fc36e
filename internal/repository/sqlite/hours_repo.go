package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// hoursRepository implements repository.HoursRepository for SQLite.
type hoursRepository struct {
	db *DB
}

// NewHoursRepository creates a new SQLite hours repository.
func NewHoursRepository(db *DB) repository.HoursRepository {
	return &hoursRepository{db: db}
}

const hoursColumns = `id, branch, day_of_week, open, close, created_at, updated_at`

func scanHours(row interface{ Scan(...interface{}) error }) (*domain.Hours, error) {
	entry := &domain.Hours{}
	var createdAt, updatedAt string

	err := row.Scan(
		&entry.ID,
		&entry.Branch,
		&entry.DayOfWeek,
		&entry.Open,
		&entry.Close,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.CreatedAt = parseTime(createdAt)
	entry.UpdatedAt = parseTime(updatedAt)

	return entry, nil
}

// ListByBranch returns the hours entries for a branch ordered by day.
func (r *hoursRepository) ListByBranch(ctx context.Context, branch string) ([]*domain.Hours, error) {
	query := `SELECT ` + hoursColumns + ` FROM hours WHERE branch = ? ORDER BY day_of_week`

	rows, err := r.db.QueryContext(ctx, query, branch)
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
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(branch, day_of_week) DO UPDATE SET
			open = excluded.open,
			close = excluded.close,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Branch,
		entry.DayOfWeek,
		entry.Open,
		entry.Close,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert hours: %w", err)
	}

	stored, err := scanHours(r.db.QueryRowContext(ctx,
		`SELECT `+hoursColumns+` FROM hours WHERE branch = ? AND day_of_week = ?`,
		entry.Branch, entry.DayOfWeek,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to read back hours entry: %w", err)
	}
	return stored, nil
}

// Ensure hoursRepository implements repository.HoursRepository.
var _ repository.HoursRepository = (*hoursRepository)(nil)
