package postgres

import (
	"github.com/prn-tf/libreport/internal/repository"
)

// NewRepositories bundles all PostgreSQL repositories over one pool.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		User:          NewUserRepository(db),
		Admin:         NewAdminRepository(db),
		AdminKey:      NewAdminKeyRepository(db),
		Book:          NewBookRepository(db),
		Loan:          NewLoanRepository(db),
		Visit:         NewVisitRepository(db),
		Hours:         NewHoursRepository(db),
		PasswordReset: NewPasswordResetRepository(db),
	}
}
