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

// bookRepository implements repository.BookRepository for PostgreSQL.
// Tags are stored as a native TEXT[] column.
type bookRepository struct {
	db *DB
}

// NewBookRepository creates a new PostgreSQL book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, title, author, isbn, tags, total_copies, available_copies, created_at, updated_at`

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	if book.Tags == nil {
		book.Tags = []string{}
	}

	query := `
		INSERT INTO books (id, title, author, isbn, tags, total_copies, available_copies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Tags,
		book.TotalCopies,
		book.AvailableCopies,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

func scanBook(row interface{ Scan(...any) error }) (*domain.Book, error) {
	book := &domain.Book{}

	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Tags,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if book.Tags == nil {
		book.Tags = []string{}
	}

	return book, nil
}

// GetByID retrieves a book by ID.
func (r *bookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.db.Pool.QueryRow(ctx, query, id))
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
	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}

	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Author != nil {
		args = append(args, *patch.Author)
		sets = append(sets, fmt.Sprintf("author = $%d", len(args)))
	}
	if patch.ISBN != nil {
		args = append(args, *patch.ISBN)
		sets = append(sets, fmt.Sprintf("isbn = $%d", len(args)))
	}
	if patch.Tags != nil {
		args = append(args, patch.Tags)
		sets = append(sets, fmt.Sprintf("tags = $%d", len(args)))
	}
	if patch.TotalCopies != nil {
		args = append(args, *patch.TotalCopies)
		sets = append(sets, fmt.Sprintf("total_copies = $%d", len(args)))
	}
	if patch.AvailableCopies != nil {
		args = append(args, *patch.AvailableCopies)
		sets = append(sets, fmt.Sprintf("available_copies = $%d", len(args)))
	}

	args = append(args, id)
	query := `UPDATE books SET ` + strings.Join(sets, ", ") + fmt.Sprintf(` WHERE id = $%d`, len(args))

	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to patch book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrBookNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete deletes a book by ID.
func (r *bookRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// Search returns books matching q against title or author.
func (r *bookRepository) Search(ctx context.Context, q string, limit int) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	args := []any{}

	if q != "" {
		query += ` WHERE title ILIKE $1 OR author ILIKE $1 ORDER BY title LIMIT $2`
		args = append(args, "%"+q+"%", limit)
	} else {
		query += ` ORDER BY title LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
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
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
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
		SET available_copies = available_copies - 1, updated_at = $1
		WHERE id = $2 AND available_copies > 0
	`

	tag, err := r.db.Pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to decrement available copies: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a missing book from an exhausted one.
		var exists bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check book existence: %w", err)
		}
		if !exists {
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
		SET available_copies = available_copies + 1, updated_at = $1
		WHERE id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to increment available copies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// Ensure bookRepository implements repository.BookRepository.
var _ repository.BookRepository = (*bookRepository)(nil)
