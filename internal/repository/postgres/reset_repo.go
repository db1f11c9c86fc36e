package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// passwordResetRepository implements repository.PasswordResetRepository for PostgreSQL.
type passwordResetRepository struct {
	db *DB
}

// NewPasswordResetRepository creates a new PostgreSQL password reset repository.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		reset.ID,
		reset.UserID,
		reset.TokenHash,
		reset.CreatedAt,
		reset.ExpiresAt,
		reset.Used,
		reset.UsedAt,
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
		WHERE user_id = $1 AND token_hash = $2 AND NOT used AND expires_at > $3
	`

	reset := &domain.PasswordReset{}
	err := r.db.Pool.QueryRow(ctx, query, userID, tokenHash, now).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.TokenHash,
		&reset.CreatedAt,
		&reset.ExpiresAt,
		&reset.Used,
		&reset.UsedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}

	return reset, nil
}

// Consume marks the record used and invalidates every other outstanding
// unused token for the user, in one transaction. "Reset everywhere":
// a successful redemption leaves no live token behind.
func (r *passwordResetRepository) Consume(ctx context.Context, id, userID string, usedAt time.Time) error {
	return r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE password_resets SET used = true, used_at = $1 WHERE id = $2 AND NOT used`,
			usedAt, id,
		)
		if err != nil {
			return fmt.Errorf("failed to consume password reset: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrResetTokenInvalid
		}

		_, err = tx.Exec(ctx,
			`UPDATE password_resets SET used = true, used_at = $1 WHERE user_id = $2 AND NOT used`,
			usedAt, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to invalidate sibling reset tokens: %w", err)
		}
		return nil
	})
}

// Ensure passwordResetRepository implements repository.PasswordResetRepository.
var _ repository.PasswordResetRepository = (*passwordResetRepository)(nil)
