package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// adminKeyRepository implements repository.AdminKeyRepository for PostgreSQL.
type adminKeyRepository struct {
	db *DB
}

// NewAdminKeyRepository creates a new PostgreSQL admin key repository.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		key.ID,
		key.CodeHash,
		key.Label,
		key.MaxUses,
		key.Uses,
		key.Active,
		key.ExpiresAt,
		key.CreatedAt,
		key.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate code", domain.ErrAdminKeyAlreadyExists)
		}
		return fmt.Errorf("failed to create admin key: %w", err)
	}

	return nil
}

func scanAdminKey(row interface{ Scan(...any) error }) (*domain.AdminKey, error) {
	key := &domain.AdminKey{}

	err := row.Scan(
		&key.ID,
		&key.CodeHash,
		&key.Label,
		&key.MaxUses,
		&key.Uses,
		&key.Active,
		&key.ExpiresAt,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return key, nil
}

// GetByID retrieves a key by ID.
func (r *adminKeyRepository) GetByID(ctx context.Context, id string) (*domain.AdminKey, error) {
	query := `SELECT ` + adminKeyColumns + ` FROM admin_keys WHERE id = $1`

	key, err := scanAdminKey(r.db.Pool.QueryRow(ctx, query, id))
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
	query := `SELECT ` + adminKeyColumns + ` FROM admin_keys WHERE code_hash = $1 AND active`

	key, err := scanAdminKey(r.db.Pool.QueryRow(ctx, query, codeHash))
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

	rows, err := r.db.Pool.Query(ctx, query)
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
	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}

	if patch.Label != nil {
		args = append(args, *patch.Label)
		sets = append(sets, fmt.Sprintf("label = $%d", len(args)))
	}
	if patch.MaxUses != nil {
		args = append(args, *patch.MaxUses)
		sets = append(sets, fmt.Sprintf("max_uses = $%d", len(args)))
	}
	if patch.Active != nil {
		args = append(args, *patch.Active)
		sets = append(sets, fmt.Sprintf("active = $%d", len(args)))
	}
	if patch.ClearExpiry {
		sets = append(sets, "expires_at = NULL")
	} else if patch.ExpiresAt != nil {
		args = append(args, *patch.ExpiresAt)
		sets = append(sets, fmt.Sprintf("expires_at = $%d", len(args)))
	}

	args = append(args, id)
	query := `UPDATE admin_keys SET ` + strings.Join(sets, ", ") + fmt.Sprintf(` WHERE id = $%d`, len(args))

	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to patch admin key: %w", err)
	}
	if tag.RowsAffected() == 0 {
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
		SET uses = uses + 1, updated_at = $1
		WHERE id = $2 AND active AND uses < max_uses
	`

	tag, err := r.db.Pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to redeem admin key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInviteCodeInvalid
	}
	return nil
}

// Ensure adminKeyRepository implements repository.AdminKeyRepository.
var _ repository.AdminKeyRepository = (*adminKeyRepository)(nil)
