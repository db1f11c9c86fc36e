package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// visitRepository implements repository.VisitRepository for SQLite.
type visitRepository struct {
	db *DB
}

// NewVisitRepository creates a new SQLite visit repository.
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
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		visit.ID,
		visit.UserID,
		visit.StudentID,
		visit.Barcode,
		visit.Branch,
		formatTime(visit.EnteredAt),
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
		SELECT COUNT(*)
		FROM visits
		WHERE entered_at > ?
		  AND (user_id = ? OR (student_id != '' AND student_id = ?) OR (barcode != '' AND barcode = ?))
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, formatTime(after), userID, studentID, barcode).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent visits: %w", err)
	}
	return count > 0, nil
}

// CountSince returns the number of visits at or after the given time.
func (r *visitRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits WHERE entered_at >= ?`, formatTime(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

// Heatmap returns per-(day-of-week, hour) visit counts since the given
// time. Day of week is 0-6 with Sunday as 0, matching strftime('%w').
func (r *visitRepository) Heatmap(ctx context.Context, since time.Time, branch string) ([]*domain.HeatmapBucket, error) {
	query := `
		SELECT CAST(strftime('%w', entered_at) AS INTEGER) AS dow,
		       CAST(strftime('%H', entered_at) AS INTEGER) AS hour,
		       COUNT(*) AS count
		FROM visits
		WHERE entered_at >= ?
	`
	args := []interface{}{formatTime(since)}

	if branch != "" {
		query += ` AND branch = ?`
		args = append(args, branch)
	}
	query += ` GROUP BY dow, hour ORDER BY dow, hour`

	rows, err := r.db.QueryContext(ctx, query, args...)
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
