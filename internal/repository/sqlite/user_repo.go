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

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, student_id, email, full_name, barcode, password_hash, role, status, created_at, updated_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, student_id, email, full_name, barcode, password_hash, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var barcode interface{}
	if user.Barcode != "" {
		barcode = user.Barcode
	}

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.StudentID,
		user.Email,
		user.FullName,
		barcode,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
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
func scanUser(row interface{ Scan(...interface{}) error }) (*domain.User, error) {
	user := &domain.User{}
	var barcode sql.NullString
	var role, status, createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.StudentID,
		&user.Email,
		&user.FullName,
		&barcode,
		&user.PasswordHash,
		&role,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if barcode.Valid {
		user.Barcode = barcode.String
	}
	user.Role = domain.Role(role)
	user.Status = domain.AccountStatus(status)
	user.CreatedAt = parseTime(createdAt)
	user.UpdatedAt = parseTime(updatedAt)

	return user, nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
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
	return r.getOne(ctx, `id = ?`, id)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `email = ?`, domain.NormalizeEmail(email))
}

// GetByStudentID retrieves a user by student ID.
func (r *userRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.User, error) {
	return r.getOne(ctx, `student_id = ?`, studentID)
}

// GetByBarcode retrieves a user by card barcode.
func (r *userRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.User, error) {
	return r.getOne(ctx, `barcode = ?`, barcode)
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, domain.NormalizeEmail(email)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// ExistsByStudentID checks if a user with the given student ID exists.
func (r *userRepository) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE student_id = ?`, studentID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check student ID existence: %w", err)
	}
	return count > 0, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, passwordHash, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateRole changes the user's role.
func (r *userRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(role), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Search returns users matching q against full name, email, or student ID.
func (r *userRepository) Search(ctx context.Context, q string, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}

	if q != "" {
		query += ` WHERE full_name LIKE ? COLLATE NOCASE OR email LIKE ? COLLATE NOCASE OR student_id LIKE ?`
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
