package domain

import "time"

// Book represents a catalog item.
type Book struct {
	// ID is the unique identifier for the book.
	ID string `json:"id"`

	// Title is the book title.
	Title string `json:"title"`

	// Author is the book author.
	Author string `json:"author"`

	// ISBN is the optional ISBN.
	ISBN string `json:"isbn,omitempty"`

	// Tags are free-form classification tags.
	Tags []string `json:"tags"`

	// TotalCopies is the number of copies owned by the library.
	TotalCopies int `json:"totalCopies"`

	// AvailableCopies is the number of copies currently on the shelf.
	// Maintained by the loan borrow/return flow; the borrow path never
	// takes it below zero, but return does not clamp it to TotalCopies.
	AvailableCopies int `json:"availableCopies"`

	// CreatedAt is the timestamp when the book was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the book was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBook creates a new Book with all copies available.
func NewBook(title, author, isbn string, tags []string, totalCopies int) *Book {
	now := time.Now().UTC()
	if totalCopies < 0 {
		totalCopies = 0
	}
	if tags == nil {
		tags = []string{}
	}
	return &Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		Tags:            tags,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
