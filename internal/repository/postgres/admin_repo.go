package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// adminRepository implements repository.AdminRepository for PostgreSQL.
type adminRepository struct {
	db *DB
}

// NewAdminRepository creates a new PostgreSQL admin repository.
func NewAdminRepository(db *DB) repository.AdminRepository {
	return &adminRepository{db: db}
}

const adminColumns = `id, email, full_name, password_hash, status, created_at, updated_at`

// Create creates a new admin.
func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}

	query := `
		INSERT INTO admins (id, email, full_name, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		admin.ID,
		admin.Email,
		admin.FullName,
		admin.PasswordHash,
		string(admin.Status),
		admin.CreatedAt,
		admin.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already exists", domain.ErrAdminAlreadyExists)
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

func scanAdmin(row interface{ Scan(...any) error }) (*domain.Admin, error) {
	admin := &domain.Admin{}
	var status string

	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.FullName,
		&admin.PasswordHash,
		&status,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	admin.Status = domain.AccountStatus(status)

	return admin, nil
}

// GetByID retrieves an admin by ID.
func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`

	admin, err := scanAdmin(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin by ID: %w", err)
	}
	return admin, nil
}

// GetByEmail retrieves an admin by email.
func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = $1`

	admin, err := scanAdmin(r.db.Pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}
	return admin, nil
}

// ExistsByEmail checks if an admin with the given email exists.
func (r *adminRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)`, domain.NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin email existence: %w", err)
	}
	return exists, nil
}

// Upsert creates the admin or refreshes an existing record by email.
func (r *adminRepository) Upsert(ctx context.Context, admin *domain.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}

	query := `
		INSERT INTO admins (id, email, full_name, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			full_name = excluded.full_name,
			password_hash = excluded.password_hash,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Pool.Exec(ctx, query,
		admin.ID,
		admin.Email,
		admin.FullName,
		admin.PasswordHash,
		string(admin.Status),
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert admin: %w", err)
	}
	return nil
}

// Ensure adminRepository implements repository.AdminRepository.
var _ repository.AdminRepository = (*adminRepository)(nil)
