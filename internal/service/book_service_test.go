package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/libreport/internal/domain"
)

func TestBookService_Create(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateBookInput
		wantErr error
	}{
		{
			name:    "success",
			input:   CreateBookInput{Title: "Dune", Author: "Herbert", TotalCopies: 3},
			wantErr: nil,
		},
		{
			name:    "defaults to one copy",
			input:   CreateBookInput{Title: "Dune", Author: "Herbert"},
			wantErr: nil,
		},
		{
			name:    "missing title",
			input:   CreateBookInput{Author: "Herbert"},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "missing author",
			input:   CreateBookInput{Title: "Dune"},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "negative copies",
			input:   CreateBookInput{Title: "Dune", Author: "Herbert", TotalCopies: -1},
			wantErr: ErrInvalidCopies,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewBookService(newFakeBookRepo(), zerolog.Nop())

			book, err := svc.Create(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, book.ID)
			assert.Equal(t, book.TotalCopies, book.AvailableCopies)
			assert.GreaterOrEqual(t, book.TotalCopies, 1)
		})
	}
}

func TestBookService_UpdateAndDelete(t *testing.T) {
	books := newFakeBookRepo()
	svc := NewBookService(books, zerolog.Nop())
	ctx := context.Background()

	book, err := svc.Create(ctx, CreateBookInput{Title: "Dune", Author: "Herbert", TotalCopies: 2})
	require.NoError(t, err)

	newTitle := "Dune Messiah"
	updated, err := svc.Update(ctx, book.ID, UpdateBookInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, "Herbert", updated.Author)

	empty := ""
	_, err = svc.Update(ctx, book.ID, UpdateBookInput{Title: &empty})
	require.ErrorIs(t, err, ErrMissingTitle)

	negative := -1
	_, err = svc.Update(ctx, book.ID, UpdateBookInput{TotalCopies: &negative})
	require.ErrorIs(t, err, ErrInvalidCopies)

	_, err = svc.Update(ctx, "missing", UpdateBookInput{Title: &newTitle})
	require.ErrorIs(t, err, domain.ErrBookNotFound)

	require.NoError(t, svc.Delete(ctx, book.ID))
	require.ErrorIs(t, svc.Delete(ctx, book.ID), domain.ErrBookNotFound)
}

func TestBookService_Search(t *testing.T) {
	books := newFakeBookRepo()
	svc := NewBookService(books, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateBookInput{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateBookInput{Title: "Neuromancer", Author: "Gibson"})
	require.NoError(t, err)

	all, err := svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	matched, err := svc.Search(ctx, "dune")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Dune", matched[0].Title)

	none, err := svc.Search(ctx, "tolkien")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
