package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// adminRepository implements repository.AdminRepository for SQLite.
type adminRepository struct {
	db *DB
}

// NewAdminRepository creates a new SQLite admin repository.
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
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Email,
		admin.FullName,
		admin.PasswordHash,
		string(admin.Status),
		formatTime(admin.CreatedAt),
		formatTime(admin.UpdatedAt),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already exists", domain.ErrAdminAlreadyExists)
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

func scanAdmin(row interface{ Scan(...interface{}) error }) (*domain.Admin, error) {
	admin := &domain.Admin{}
	var status, createdAt, updatedAt string

	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.FullName,
		&admin.PasswordHash,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	admin.Status = domain.AccountStatus(status)
	admin.CreatedAt = parseTime(createdAt)
	admin.UpdatedAt = parseTime(updatedAt)

	return admin, nil
}

// GetByID retrieves an admin by ID.
func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = ?`

	admin, err := scanAdmin(r.db.QueryRowContext(ctx, query, id))
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
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = ?`

	admin, err := scanAdmin(r.db.QueryRowContext(ctx, query, domain.NormalizeEmail(email)))
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
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE email = ?`, domain.NormalizeEmail(email)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check admin email existence: %w", err)
	}
	return count > 0, nil
}

// Upsert creates the admin or refreshes an existing record by email.
func (r *adminRepository) Upsert(ctx context.Context, admin *domain.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}

	query := `
		INSERT INTO admins (id, email, full_name, password_hash, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			full_name = excluded.full_name,
			password_hash = excluded.password_hash,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Email,
		admin.FullName,
		admin.PasswordHash,
		string(admin.Status),
		formatTime(admin.CreatedAt),
		formatTime(admin.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert admin: %w", err)
	}
	return nil
}

// Ensure adminRepository implements repository.AdminRepository.
var _ repository.AdminRepository = (*adminRepository)(nil)
