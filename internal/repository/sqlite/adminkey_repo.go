package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// adminKeyRepository implements repository.AdminKeyRepository for SQLite.
type adminKeyRepository struct {
	db *DB
}

// NewAdminKeyRepository creates a new SQLite admin key repository.
func NewAdminKeyRepository(db *DB) repository.AdminKeyRepository {
	return &adminKeyRepository{db: db}
}

const adminKeyColumns = `id, code_hash, label, max_uses, uses, active, expires_at, created_at, updated_at`

// Create creates a new invite key.
func (r *adminKeyRepository) Create(ctx context.Context, key *domain.AdminKey) error {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}

	query := `
		INSERT INTO admin_keys (id, code_hash, label, max_uses, uses, active, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.CodeHash,
		key.Label,
		key.MaxUses,
		key.Uses,
		boolToInt(key.Active),
		formatNullTime(key.ExpiresAt),
		formatTime(key.CreatedAt),
		formatTime(key.UpdatedAt),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate code", domain.ErrAdminKeyAlreadyExists)
		}
		return fmt.Errorf("failed to create admin key: %w", err)
	}

	return nil
}

func scanAdminKey(row interface{ Scan(...interface{}) error }) (*domain.AdminKey, error) {
	key := &domain.AdminKey{}
	var active int
	var expiresAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&key.ID,
		&key.CodeHash,
		&key.Label,
		&key.MaxUses,
		&key.Uses,
		&active,
		&expiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	key.Active = active != 0
	key.ExpiresAt = parseNullTime(expiresAt)
	key.CreatedAt = parseTime(createdAt)
	key.UpdatedAt = parseTime(updatedAt)

	return key, nil
}

// GetByID retrieves a key by ID.
func (r *adminKeyRepository) GetByID(ctx context.Context, id string) (*domain.AdminKey, error) {
	query := `SELECT ` + adminKeyColumns + ` FROM admin_keys WHERE id = ?`

	key, err := scanAdminKey(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAdminKeyNotFound
		}
		return nil, fmt.Errorf("failed to get admin key by ID: %w", err)
	}
	return key, nil
}

// GetActiveByCodeHash retrieves an active key by its code hash.
func (r *adminKeyRepository) GetActiveByCodeHash(ctx context.Context, codeHash string) (*domain.AdminKey, error) {
	query := `SELECT ` + adminKeyColumns + ` FROM admin_keys WHERE code_hash = ? AND active = 1`

	key, err := scanAdminKey(r.db.QueryRowContext(ctx, query, codeHash))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAdminKeyNotFound
		}
		return nil, fmt.Errorf("failed to get admin key by code hash: %w", err)
	}
	return key, nil
}

// List returns all keys, newest first.
func (r *adminKeyRepository) List(ctx context.Context) ([]*domain.AdminKey, error) {
	query := `SELECT ` + adminKeyColumns + ` FROM admin_keys ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin keys: %w", err)
	}
	defer rows.Close()

	var keys []*domain.AdminKey
	for rows.Next() {
		key, err := scanAdminKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin keys: %w", err)
	}

	return keys, nil
}

// Patch applies a partial update and returns the updated key.
func (r *adminKeyRepository) Patch(ctx context.Context, id string, patch repository.AdminKeyPatch) (*domain.AdminKey, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{formatTime(time.Now().UTC())}

	if patch.Label != nil {
		sets = append(sets, "label = ?")
		args = append(args, *patch.Label)
	}
	if patch.MaxUses != nil {
		sets = append(sets, "max_uses = ?")
		args = append(args, *patch.MaxUses)
	}
	if patch.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, boolToInt(*patch.Active))
	}
	if patch.ClearExpiry {
		sets = append(sets, "expires_at = NULL")
	} else if patch.ExpiresAt != nil {
		sets = append(sets, "expires_at = ?")
		args = append(args, formatTime(*patch.ExpiresAt))
	}

	query := `UPDATE admin_keys SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to patch admin key: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, domain.ErrAdminKeyNotFound
	}

	return r.GetByID(ctx, id)
}

// Redeem atomically increments the key's use counter, guarded by the
// use quota. The guard makes concurrent redemptions of a nearly
// exhausted key safe.
func (r *adminKeyRepository) Redeem(ctx context.Context, id string) error {
	query := `
		UPDATE admin_keys
		SET uses = uses + 1, updated_at = ?
		WHERE id = ? AND active = 1 AND uses < max_uses
	`

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("failed to redeem admin key: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrInviteCodeInvalid
	}
	return nil
}

// Ensure adminKeyRepository implements repository.AdminKeyRepository.
var _ repository.AdminKeyRepository = (*adminKeyRepository)(nil)
