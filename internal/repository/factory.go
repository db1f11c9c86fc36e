// Package repository provides the data access layer for LibReport.
// This file contains the repository bundle shared by both database drivers.
package repository

import (
	"context"
)

// Repositories holds all repository instances.
// Both the sqlite and postgres packages provide a NewRepositories
// constructor returning this bundle; the server picks one by the
// configured database driver.
type Repositories struct {
	User          UserRepository
	Admin         AdminRepository
	AdminKey      AdminKeyRepository
	Book          BookRepository
	Loan          LoanRepository
	Visit         VisitRepository
	Hours         HoursRepository
	PasswordReset PasswordResetRepository
}

// DatabaseHealth is an interface for database health checks.
// Satisfied by both sqlite.DB and postgres.DB; used by the health endpoint.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
