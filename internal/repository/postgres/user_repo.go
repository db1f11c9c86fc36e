package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, student_id, email, full_name, COALESCE(barcode, ''), password_hash, role, status, created_at, updated_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, student_id, email, full_name, barcode, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var barcode *string
	if user.Barcode != "" {
		barcode = &user.Barcode
	}

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.StudentID,
		user.Email,
		user.FullName,
		barcode,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email or student ID already exists", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// scanUser scans a user row from the canonical column list.
func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	var role, status string

	err := row.Scan(
		&user.ID,
		&user.StudentID,
		&user.Email,
		&user.FullName,
		&user.Barcode,
		&user.PasswordHash,
		&role,
		&status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = domain.Role(role)
	user.Status = domain.AccountStatus(status)

	return user, nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `email = $1`, domain.NormalizeEmail(email))
}

// GetByStudentID retrieves a user by student ID.
func (r *userRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.User, error) {
	return r.getOne(ctx, `student_id = $1`, studentID)
}

// GetByBarcode retrieves a user by card barcode.
func (r *userRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.User, error) {
	return r.getOne(ctx, `barcode = $1`, barcode)
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, domain.NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// ExistsByStudentID checks if a user with the given student ID exists.
func (r *userRepository) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE student_id = $1)`, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check student ID existence: %w", err)
	}
	return exists, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.db.Pool.Exec(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateRole changes the user's role.
func (r *userRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.db.Pool.Exec(ctx, query, string(role), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Search returns users matching q against full name, email, or student ID.
func (r *userRepository) Search(ctx context.Context, q string, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}

	if q != "" {
		query += ` WHERE full_name ILIKE $1 OR email ILIKE $1 OR student_id ILIKE $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, "%"+q+"%", limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Count returns the total number of users.
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
