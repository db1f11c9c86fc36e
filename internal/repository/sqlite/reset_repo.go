package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// passwordResetRepository implements repository.PasswordResetRepository for SQLite.
type passwordResetRepository struct {
	db *DB
}

// NewPasswordResetRepository creates a new SQLite password reset repository.
func NewPasswordResetRepository(db *DB) repository.PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

// Create stores a new reset token record.
func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	if reset.ID == "" {
		reset.ID = uuid.NewString()
	}

	query := `
		INSERT INTO password_resets (id, user_id, token_hash, created_at, expires_at, used, used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		reset.ID,
		reset.UserID,
		reset.TokenHash,
		formatTime(reset.CreatedAt),
		formatTime(reset.ExpiresAt),
		boolToInt(reset.Used),
		formatNullTime(reset.UsedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	return nil
}

// GetRedeemable retrieves the unused, unexpired token record matching the
// user and token hash.
func (r *passwordResetRepository) GetRedeemable(ctx context.Context, userID, tokenHash string, now time.Time) (*domain.PasswordReset, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, expires_at, used, used_at
		FROM password_resets
		WHERE user_id = ? AND token_hash = ? AND used = 0 AND expires_at > ?
	`

	reset := &domain.PasswordReset{}
	var used int
	var createdAt, expiresAt string
	var usedAt sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID, tokenHash, formatTime(now)).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.TokenHash,
		&createdAt,
		&expiresAt,
		&used,
		&usedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}

	reset.Used = used != 0
	reset.CreatedAt = parseTime(createdAt)
	reset.ExpiresAt = parseTime(expiresAt)
	reset.UsedAt = parseNullTime(usedAt)

	return reset, nil
}

// Consume marks the record used and invalidates every other outstanding
// unused token for the user, in one transaction. "Reset everywhere":
// a successful redemption leaves no live token behind.
func (r *passwordResetRepository) Consume(ctx context.Context, id, userID string, usedAt time.Time) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stamp := formatTime(usedAt)

		result, err := tx.ExecContext(ctx,
			`UPDATE password_resets SET used = 1, used_at = ? WHERE id = ? AND used = 0`,
			stamp, id,
		)
		if err != nil {
			return fmt.Errorf("failed to consume password reset: %w", err)
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return domain.ErrResetTokenInvalid
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE password_resets SET used = 1, used_at = ? WHERE user_id = ? AND used = 0`,
			stamp, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to invalidate sibling reset tokens: %w", err)
		}
		return nil
	})
}

// Ensure passwordResetRepository implements repository.PasswordResetRepository.
var _ repository.PasswordResetRepository = (*passwordResetRepository)(nil)
