package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// bookRepository implements repository.BookRepository for SQLite.
// Tags are stored as a JSON array in a TEXT column.
type bookRepository struct {
	db *DB
}

// NewBookRepository creates a new SQLite book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, title, author, isbn, tags, total_copies, available_copies, created_at, updated_at`

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}

	query := `
		INSERT INTO books (id, title, author, isbn, tags, total_copies, available_copies, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		encodeTags(book.Tags),
		book.TotalCopies,
		book.AvailableCopies,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

func scanBook(row interface{ Scan(...interface{}) error }) (*domain.Book, error) {
	book := &domain.Book{}
	var tags, createdAt, updatedAt string

	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&tags,
		&book.TotalCopies,
		&book.AvailableCopies,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &book.Tags); err != nil {
		book.Tags = []string{}
	}
	book.CreatedAt = parseTime(createdAt)
	book.UpdatedAt = parseTime(updatedAt)

	return book, nil
}

// GetByID retrieves a book by ID.
func (r *bookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`

	book, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}
	return book, nil
}

// Patch applies a partial update and returns the updated book.
func (r *bookRepository) Patch(ctx context.Context, id string, patch repository.BookPatch) (*domain.Book, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{formatTime(time.Now().UTC())}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *patch.Author)
	}
	if patch.ISBN != nil {
		sets = append(sets, "isbn = ?")
		args = append(args, *patch.ISBN)
	}
	if patch.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, encodeTags(patch.Tags))
	}
	if patch.TotalCopies != nil {
		sets = append(sets, "total_copies = ?")
		args = append(args, *patch.TotalCopies)
	}
	if patch.AvailableCopies != nil {
		sets = append(sets, "available_copies = ?")
		args = append(args, *patch.AvailableCopies)
	}

	query := `UPDATE books SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to patch book: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, domain.ErrBookNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete deletes a book by ID.
func (r *bookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// Search returns books matching q against title or author.
func (r *bookRepository) Search(ctx context.Context, q string, limit int) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	args := []interface{}{}

	if q != "" {
		query += ` WHERE title LIKE ? COLLATE NOCASE OR author LIKE ? COLLATE NOCASE`
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY title LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// Count returns the total number of books.
func (r *bookRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// DecrementAvailable atomically decrements available_copies, guarded by
// available_copies > 0. A single conditional UPDATE closes the
// check-then-write race between concurrent borrows.
func (r *bookRepository) DecrementAvailable(ctx context.Context, id string) error {
	query := `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = ?
		WHERE id = ? AND available_copies > 0
	`

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("failed to decrement available copies: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		// Distinguish a missing book from an exhausted one.
		var count int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE id = ?`, id).Scan(&count); err != nil {
			return fmt.Errorf("failed to check book existence: %w", err)
		}
		if count == 0 {
			return domain.ErrBookNotFound
		}
		return domain.ErrNoAvailableCopies
	}
	return nil
}

// IncrementAvailable increments available_copies by one.
// Not clamped to total_copies; see the catalog drift policy in DESIGN.md.
func (r *bookRepository) IncrementAvailable(ctx context.Context, id string) error {
	query := `
		UPDATE books
		SET available_copies = available_copies + 1, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("failed to increment available copies: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// Ensure bookRepository implements repository.BookRepository.
var _ repository.BookRepository = (*bookRepository)(nil)
