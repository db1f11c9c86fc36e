package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := DefaultConfig(":memory:")
	cfg.JournalMode = "MEMORY"

	db, err := NewDB(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	version, err := db.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	user := domain.NewUser("03-2324-032246", "ana@example.com", "Ana Reyes", "hash")
	user.Barcode = "CARD-0001"
	require.NoError(t, repos.User.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := domain.NewUser("99999999", "ana@example.com", "Ana Clone", "hash")
		err := repos.User.Create(ctx, dup)
		require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})

	t.Run("lookups", func(t *testing.T) {
		byID, err := repos.User.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", byID.Email)
		assert.Equal(t, "CARD-0001", byID.Barcode)

		byEmail, err := repos.User.GetByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byStudentID, err := repos.User.GetByStudentID(ctx, "03-2324-032246")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byStudentID.ID)

		byBarcode, err := repos.User.GetByBarcode(ctx, "CARD-0001")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byBarcode.ID)

		_, err = repos.User.GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := repos.User.ExistsByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repos.User.ExistsByStudentID(ctx, "00000000")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update role and password", func(t *testing.T) {
		require.NoError(t, repos.User.UpdateRole(ctx, user.ID, domain.RoleLibrarian))
		require.NoError(t, repos.User.UpdatePasswordHash(ctx, user.ID, "newhash"))

		reloaded, err := repos.User.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleLibrarian, reloaded.Role)
		assert.Equal(t, "newhash", reloaded.PasswordHash)

		require.ErrorIs(t, repos.User.UpdateRole(ctx, "missing", domain.RoleAdmin), domain.ErrUserNotFound)
	})

	t.Run("search and count", func(t *testing.T) {
		other := domain.NewUser("87654321", "ben@example.com", "Ben Cruz", "hash")
		require.NoError(t, repos.User.Create(ctx, other))

		matched, err := repos.User.Search(ctx, "ben", 10)
		require.NoError(t, err)
		require.Len(t, matched, 1)
		assert.Equal(t, "ben@example.com", matched[0].Email)

		all, err := repos.User.Search(ctx, "", 10)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		count, err := repos.User.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestAdminRepository(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	admin := domain.NewAdmin("boss@example.com", "Head Librarian", "hash")
	require.NoError(t, repos.Admin.Create(ctx, admin))

	err := repos.Admin.Create(ctx, domain.NewAdmin("boss@example.com", "Clone", "hash"))
	require.ErrorIs(t, err, domain.ErrAdminAlreadyExists)

	t.Run("upsert refreshes existing", func(t *testing.T) {
		refreshed := domain.NewAdmin("boss@example.com", "New Name", "newhash")
		require.NoError(t, repos.Admin.Upsert(ctx, refreshed))

		loaded, err := repos.Admin.GetByEmail(ctx, "boss@example.com")
		require.NoError(t, err)
		assert.Equal(t, "New Name", loaded.FullName)
		assert.Equal(t, "newhash", loaded.PasswordHash)
	})

	t.Run("upsert inserts new", func(t *testing.T) {
		fresh := domain.NewAdmin("second@example.com", "Second", "hash")
		require.NoError(t, repos.Admin.Upsert(ctx, fresh))

		exists, err := repos.Admin.ExistsByEmail(ctx, "second@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestAdminKeyRepository(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	key := domain.NewAdminKey("hash-1", "onboarding", 2, nil)
	require.NoError(t, repos.AdminKey.Create(ctx, key))

	t.Run("lookup by code hash", func(t *testing.T) {
		found, err := repos.AdminKey.GetActiveByCodeHash(ctx, "hash-1")
		require.NoError(t, err)
		assert.Equal(t, key.ID, found.ID)

		_, err = repos.AdminKey.GetActiveByCodeHash(ctx, "unknown")
		require.ErrorIs(t, err, domain.ErrAdminKeyNotFound)
	})

	t.Run("redeem respects quota", func(t *testing.T) {
		require.NoError(t, repos.AdminKey.Redeem(ctx, key.ID))
		require.NoError(t, repos.AdminKey.Redeem(ctx, key.ID))
		require.ErrorIs(t, repos.AdminKey.Redeem(ctx, key.ID), domain.ErrInviteCodeInvalid)

		loaded, err := repos.AdminKey.GetByID(ctx, key.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Uses)
	})

	t.Run("patch", func(t *testing.T) {
		label := "renamed"
		active := false
		patched, err := repos.AdminKey.Patch(ctx, key.ID, repository.AdminKeyPatch{
			Label:  &label,
			Active: &active,
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", patched.Label)
		assert.False(t, patched.Active)

		// Inactive keys are invisible to the code hash lookup.
		_, err = repos.AdminKey.GetActiveByCodeHash(ctx, "hash-1")
		require.ErrorIs(t, err, domain.ErrAdminKeyNotFound)
	})
}

func TestBookRepositoryInventory(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	book := domain.NewBook("Dune", "Herbert", "9780441013593", []string{"scifi"}, 1)
	book.AvailableCopies = 1
	require.NoError(t, repos.Book.Create(ctx, book))

	loaded, err := repos.Book.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"scifi"}, loaded.Tags)

	t.Run("decrement guarded at zero", func(t *testing.T) {
		require.NoError(t, repos.Book.DecrementAvailable(ctx, book.ID))
		require.ErrorIs(t, repos.Book.DecrementAvailable(ctx, book.ID), domain.ErrNoAvailableCopies)
		require.ErrorIs(t, repos.Book.DecrementAvailable(ctx, "missing"), domain.ErrBookNotFound)
	})

	t.Run("increment is unclamped", func(t *testing.T) {
		require.NoError(t, repos.Book.IncrementAvailable(ctx, book.ID))
		require.NoError(t, repos.Book.IncrementAvailable(ctx, book.ID))

		loaded, err := repos.Book.GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.AvailableCopies)
	})

	t.Run("search", func(t *testing.T) {
		matched, err := repos.Book.Search(ctx, "dune", 10)
		require.NoError(t, err)
		require.Len(t, matched, 1)

		none, err := repos.Book.Search(ctx, "tolkien", 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestLoanRepository(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	user := domain.NewUser("12345678", "ana@example.com", "Ana Reyes", "hash")
	require.NoError(t, repos.User.Create(ctx, user))
	book := domain.NewBook("Dune", "Herbert", "", nil, 2)
	require.NoError(t, repos.Book.Create(ctx, book))

	loan := domain.NewLoan(user.ID, book.ID, 14)
	require.NoError(t, repos.Loan.Create(ctx, loan))

	t.Run("active lookup", func(t *testing.T) {
		active, err := repos.Loan.GetActiveByUserAndBook(ctx, user.ID, book.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.ID, active.ID)

		count, err := repos.Loan.CountActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("details include status", func(t *testing.T) {
		details, err := repos.Loan.ListActiveDetails(ctx)
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, "Ana Reyes", details[0].Student)
		assert.Equal(t, "Dune", details[0].Title)
		assert.Equal(t, domain.LoanStatusOnTime, details[0].Status)
	})

	t.Run("borrowed by user", func(t *testing.T) {
		items, err := repos.Loan.ListBorrowedByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Dune", items[0].Title)
	})

	t.Run("overdue listing", func(t *testing.T) {
		future := time.Now().UTC().AddDate(0, 0, 30)
		overdue, err := repos.Loan.ListOverdueDetails(ctx, future)
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, "Ana Reyes", overdue[0].User)
	})

	t.Run("top borrowed", func(t *testing.T) {
		top, err := repos.Loan.TopBorrowed(ctx, 5)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, book.ID, top[0].BookID)
		assert.Equal(t, int64(1), top[0].Borrows)
	})

	t.Run("mark returned once", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repos.Loan.MarkReturned(ctx, loan.ID, now))
		require.ErrorIs(t, repos.Loan.MarkReturned(ctx, loan.ID, now), domain.ErrLoanAlreadyReturned)
		require.ErrorIs(t, repos.Loan.MarkReturned(ctx, "missing", now), domain.ErrLoanNotFound)

		_, err := repos.Loan.GetActiveByUserAndBook(ctx, user.ID, book.ID)
		require.ErrorIs(t, err, domain.ErrLoanNotFound)
	})
}

func TestVisitRepository(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	now := time.Now().UTC()
	visit := &domain.Visit{
		UserID:    "u1",
		StudentID: "12345678",
		Barcode:   "CARD-0001",
		Branch:    "Main",
		EnteredAt: now,
	}
	require.NoError(t, repos.Visit.Create(ctx, visit))

	t.Run("has recent", func(t *testing.T) {
		recent, err := repos.Visit.HasRecent(ctx, "u1", "", "", now.Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, recent)

		recent, err = repos.Visit.HasRecent(ctx, "other", "12345678", "", now.Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, recent)

		recent, err = repos.Visit.HasRecent(ctx, "other", "", "", now.Add(-time.Minute))
		require.NoError(t, err)
		assert.False(t, recent)

		recent, err = repos.Visit.HasRecent(ctx, "u1", "", "", now.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, recent)
	})

	t.Run("count since", func(t *testing.T) {
		count, err := repos.Visit.CountSince(ctx, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("heatmap", func(t *testing.T) {
		buckets, err := repos.Visit.Heatmap(ctx, now.Add(-time.Hour), "")
		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, int(now.Weekday()), buckets[0].DayOfWeek)
		assert.Equal(t, now.Hour(), buckets[0].Hour)
		assert.Equal(t, int64(1), buckets[0].Count)

		filtered, err := repos.Visit.Heatmap(ctx, now.Add(-time.Hour), "Annex")
		require.NoError(t, err)
		assert.Empty(t, filtered)
	})
}

func TestHoursRepository(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	stored, err := repos.Hours.Upsert(ctx, &domain.Hours{
		Branch:    "Main",
		DayOfWeek: 1,
		Open:      "08:00",
		Close:     "17:00",
	})
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)

	replaced, err := repos.Hours.Upsert(ctx, &domain.Hours{
		Branch:    "Main",
		DayOfWeek: 1,
		Open:      "10:00",
		Close:     "15:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "10:00", replaced.Open)

	week, err := repos.Hours.ListByBranch(ctx, "Main")
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, "10:00", week[0].Open)
}

func TestPasswordResetRepository(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	user := domain.NewUser("12345678", "ana@example.com", "Ana Reyes", "hash")
	require.NoError(t, repos.User.Create(ctx, user))

	first := domain.NewPasswordReset(user.ID, "token-hash-1", time.Hour)
	require.NoError(t, repos.PasswordReset.Create(ctx, first))
	second := domain.NewPasswordReset(user.ID, "token-hash-2", time.Hour)
	require.NoError(t, repos.PasswordReset.Create(ctx, second))

	now := time.Now().UTC()

	found, err := repos.PasswordReset.GetRedeemable(ctx, user.ID, "token-hash-2", now)
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)

	_, err = repos.PasswordReset.GetRedeemable(ctx, user.ID, "bogus", now)
	require.ErrorIs(t, err, domain.ErrResetTokenInvalid)

	require.NoError(t, repos.PasswordReset.Consume(ctx, second.ID, user.ID, now))

	// The consumed token and its sibling are both gone.
	_, err = repos.PasswordReset.GetRedeemable(ctx, user.ID, "token-hash-2", now)
	require.ErrorIs(t, err, domain.ErrResetTokenInvalid)
	_, err = repos.PasswordReset.GetRedeemable(ctx, user.ID, "token-hash-1", now)
	require.ErrorIs(t, err, domain.ErrResetTokenInvalid)

	// Double consume fails.
	require.ErrorIs(t, repos.PasswordReset.Consume(ctx, second.ID, user.ID, now), domain.ErrResetTokenInvalid)
}
