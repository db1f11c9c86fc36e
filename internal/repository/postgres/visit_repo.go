package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// visitRepository implements repository.VisitRepository for PostgreSQL.
type visitRepository struct {
	db *DB
}

// NewVisitRepository creates a new PostgreSQL visit repository.
func NewVisitRepository(db *DB) repository.VisitRepository {
	return &visitRepository{db: db}
}

// Create appends a new visit record.
func (r *visitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}

	query := `
		INSERT INTO visits (id, user_id, student_id, barcode, branch, entered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		visit.ID,
		visit.UserID,
		visit.StudentID,
		visit.Barcode,
		visit.Branch,
		visit.EnteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	return nil
}

// HasRecent reports whether any visit for the same user, student ID, or
// barcode was recorded strictly after the given time.
func (r *visitRepository) HasRecent(ctx context.Context, userID, studentID, barcode string, after time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM visits
			WHERE entered_at > $1
			  AND (user_id = $2 OR (student_id != '' AND student_id = $3) OR (barcode != '' AND barcode = $4))
		)
	`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, after, userID, studentID, barcode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent visits: %w", err)
	}
	return exists, nil
}

// CountSince returns the number of visits at or after the given time.
func (r *visitRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits WHERE entered_at >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

// Heatmap returns per-(day-of-week, hour) visit counts since the given
// time. Day of week is 0-6 with Sunday as 0, matching EXTRACT(DOW ...).
func (r *visitRepository) Heatmap(ctx context.Context, since time.Time, branch string) ([]*domain.HeatmapBucket, error) {
	query := `
		SELECT EXTRACT(DOW FROM entered_at)::int AS dow,
		       EXTRACT(HOUR FROM entered_at)::int AS hour,
		       COUNT(*) AS count
		FROM visits
		WHERE entered_at >= $1
	`
	args := []any{since}

	if branch != "" {
		query += ` AND branch = $2`
		args = append(args, branch)
	}
	query += ` GROUP BY dow, hour ORDER BY dow, hour`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit heatmap: %w", err)
	}
	defer rows.Close()

	var buckets []*domain.HeatmapBucket
	for rows.Next() {
		bucket := &domain.HeatmapBucket{}
		if err := rows.Scan(&bucket.DayOfWeek, &bucket.Hour, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan heatmap bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating heatmap buckets: %w", err)
	}

	return buckets, nil
}

// Ensure visitRepository implements repository.VisitRepository.
var _ repository.VisitRepository = (*visitRepository)(nil)
