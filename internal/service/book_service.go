package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// defaultBookLimit caps catalog listings.
const defaultBookLimit = 100

// BookService handles catalog management.
type BookService struct {
	books  repository.BookRepository
	logger zerolog.Logger
}

// NewBookService creates a new BookService.
func NewBookService(books repository.BookRepository, logger zerolog.Logger) *BookService {
	return &BookService{
		books:  books,
		logger: logger.With().Str("service", "book").Logger(),
	}
}

// CreateBookInput contains the data needed to create a catalog item.
type CreateBookInput struct {
	Title       string
	Author      string
	ISBN        string
	Tags        []string
	TotalCopies int
}

// Create creates a new catalog item with all copies available.
func (s *BookService) Create(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	if input.Title == "" || input.Author == "" {
		return nil, ErrMissingTitle
	}
	if input.TotalCopies < 0 {
		return nil, ErrInvalidCopies
	}
	if input.TotalCopies == 0 {
		input.TotalCopies = 1
	}

	book := domain.NewBook(input.Title, input.Author, input.ISBN, input.Tags, input.TotalCopies)
	if err := s.books.Create(ctx, book); err != nil {
		s.logger.Error().Err(err).Msg("failed to create book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("book_id", book.ID).Str("title", book.Title).Msg("book created")
	return book, nil
}

// Get retrieves a catalog item by ID.
func (s *BookService) Get(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("book_id", id).Msg("failed to get book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return book, nil
}

// UpdateBookInput carries optional catalog field updates.
type UpdateBookInput struct {
	Title           *string
	Author          *string
	ISBN            *string
	Tags            []string
	TotalCopies     *int
	AvailableCopies *int
}

// Update applies a partial update and returns the updated item.
func (s *BookService) Update(ctx context.Context, id string, input UpdateBookInput) (*domain.Book, error) {
	if input.Title != nil && *input.Title == "" {
		return nil, ErrMissingTitle
	}
	if input.Author != nil && *input.Author == "" {
		return nil, ErrMissingTitle
	}
	if input.TotalCopies != nil && *input.TotalCopies < 0 {
		return nil, ErrInvalidCopies
	}
	if input.AvailableCopies != nil && *input.AvailableCopies < 0 {
		return nil, ErrInvalidCopies
	}

	book, err := s.books.Patch(ctx, id, repository.BookPatch{
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		Tags:            input.Tags,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.AvailableCopies,
	})
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("book_id", id).Msg("failed to update book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("book_id", id).Msg("book updated")
	return book, nil
}

// Delete removes a catalog item.
func (s *BookService) Delete(ctx context.Context, id string) error {
	if err := s.books.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("book_id", id).Msg("failed to delete book")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("book_id", id).Msg("book deleted")
	return nil
}

// Search returns catalog items matching q against title or author.
// An empty q lists the catalog.
func (s *BookService) Search(ctx context.Context, q string) ([]*domain.Book, error) {
	books, err := s.books.Search(ctx, q, defaultBookLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to search books")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}
