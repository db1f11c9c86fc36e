package sqlite

import (
	"github.com/prn-tf/libreport/internal/repository"
)

// NewRepositories bundles all SQLite repositories over one connection.
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
