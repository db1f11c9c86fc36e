package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// =============================================================================
// In-memory fakes shared by the service tests
// =============================================================================

type fakeUserRepo struct {
	users map[string]*domain.User

	// forceErr makes every call fail when set.
	forceErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if f.forceErr != nil {
		return f.forceErr
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	for _, u := range f.users {
		if u.Email == user.Email || u.StudentID == user.StudentID {
			return domain.ErrUserAlreadyExists
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.forceErr != nil {
		return nil, f.forceErr
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.forceErr != nil {
		return nil, f.forceErr
	}
	for _, u := range f.users {
		if u.Email == domain.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByStudentID(ctx context.Context, studentID string) (*domain.User, error) {
	if f.forceErr != nil {
		return nil, f.forceErr
	}
	for _, u := range f.users {
		if u.StudentID == studentID {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.User, error) {
	if f.forceErr != nil {
		return nil, f.forceErr
	}
	for _, u := range f.users {
		if u.Barcode != "" && u.Barcode == barcode {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.forceErr != nil {
		return false, f.forceErr
	}
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUserRepo) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	if f.forceErr != nil {
		return false, f.forceErr
	}
	_, err := f.GetByStudentID(ctx, studentID)
	return err == nil, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if f.forceErr != nil {
		return f.forceErr
	}
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if f.forceErr != nil {
		return f.forceErr
	}
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) Search(ctx context.Context, q string, limit int) ([]*domain.User, error) {
	if f.forceErr != nil {
		return nil, f.forceErr
	}
	q = strings.ToLower(q)
	var out []*domain.User
	for _, u := range f.users {
		if q == "" ||
			strings.Contains(strings.ToLower(u.FullName), q) ||
			strings.Contains(u.Email, q) ||
			strings.Contains(u.StudentID, q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	if f.forceErr != nil {
		return 0, f.forceErr
	}
	return int64(len(f.users)), nil
}

type fakeAdminRepo struct {
	admins map[string]*domain.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: make(map[string]*domain.Admin)}
}

func (f *fakeAdminRepo) Create(ctx context.Context, admin *domain.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	for _, a := range f.admins {
		if a.Email == admin.Email {
			return domain.ErrAdminAlreadyExists
		}
	}
	f.admins[admin.ID] = admin
	return nil
}

func (f *fakeAdminRepo) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	if a, ok := f.admins[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAdminNotFound
}

func (f *fakeAdminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	for _, a := range f.admins {
		if a.Email == domain.NormalizeEmail(email) {
			return a, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (f *fakeAdminRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeAdminRepo) Upsert(ctx context.Context, admin *domain.Admin) error {
	for _, a := range f.admins {
		if a.Email == admin.Email {
			a.FullName = admin.FullName
			a.PasswordHash = admin.PasswordHash
			a.Status = admin.Status
			return nil
		}
	}
	return f.Create(ctx, admin)
}

type fakeAdminKeyRepo struct {
	keys map[string]*domain.AdminKey
}

func newFakeAdminKeyRepo() *fakeAdminKeyRepo {
	return &fakeAdminKeyRepo{keys: make(map[string]*domain.AdminKey)}
}

func (f *fakeAdminKeyRepo) Create(ctx context.Context, key *domain.AdminKey) error {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	for _, k := range f.keys {
		if k.CodeHash == key.CodeHash {
			return domain.ErrAdminKeyAlreadyExists
		}
	}
	f.keys[key.ID] = key
	return nil
}

func (f *fakeAdminKeyRepo) GetByID(ctx context.Context, id string) (*domain.AdminKey, error) {
	if k, ok := f.keys[id]; ok {
		return k, nil
	}
	return nil, domain.ErrAdminKeyNotFound
}

func (f *fakeAdminKeyRepo) GetActiveByCodeHash(ctx context.Context, codeHash string) (*domain.AdminKey, error) {
	for _, k := range f.keys {
		if k.CodeHash == codeHash && k.Active {
			return k, nil
		}
	}
	return nil, domain.ErrAdminKeyNotFound
}

func (f *fakeAdminKeyRepo) List(ctx context.Context) ([]*domain.AdminKey, error) {
	var out []*domain.AdminKey
	for _, k := range f.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAdminKeyRepo) Patch(ctx context.Context, id string, patch repository.AdminKeyPatch) (*domain.AdminKey, error) {
	k, ok := f.keys[id]
	if !ok {
		return nil, domain.ErrAdminKeyNotFound
	}
	if patch.Label != nil {
		k.Label = *patch.Label
	}
	if patch.MaxUses != nil {
		k.MaxUses = *patch.MaxUses
	}
	if patch.Active != nil {
		k.Active = *patch.Active
	}
	if patch.ClearExpiry {
		k.ExpiresAt = nil
	} else if patch.ExpiresAt != nil {
		k.ExpiresAt = patch.ExpiresAt
	}
	return k, nil
}

func (f *fakeAdminKeyRepo) Redeem(ctx context.Context, id string) error {
	k, ok := f.keys[id]
	if !ok {
		return domain.ErrInviteCodeInvalid
	}
	if !k.Active || k.Uses >= k.MaxUses {
		return domain.ErrInviteCodeInvalid
	}
	k.Uses++
	return nil
}

type fakeBookRepo struct {
	books map[string]*domain.Book
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[string]*domain.Book)}
}

func (f *fakeBookRepo) Create(ctx context.Context, book *domain.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	f.books[book.ID] = book
	return nil
}

func (f *fakeBookRepo) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	if b, ok := f.books[id]; ok {
		return b, nil
	}
	return nil, domain.ErrBookNotFound
}

func (f *fakeBookRepo) Patch(ctx context.Context, id string, patch repository.BookPatch) (*domain.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Author != nil {
		b.Author = *patch.Author
	}
	if patch.ISBN != nil {
		b.ISBN = *patch.ISBN
	}
	if patch.Tags != nil {
		b.Tags = patch.Tags
	}
	if patch.TotalCopies != nil {
		b.TotalCopies = *patch.TotalCopies
	}
	if patch.AvailableCopies != nil {
		b.AvailableCopies = *patch.AvailableCopies
	}
	return b, nil
}

func (f *fakeBookRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeBookRepo) Search(ctx context.Context, q string, limit int) ([]*domain.Book, error) {
	q = strings.ToLower(q)
	var out []*domain.Book
	for _, b := range f.books {
		if q == "" ||
			strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBookRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.books)), nil
}

func (f *fakeBookRepo) DecrementAvailable(ctx context.Context, id string) error {
	b, ok := f.books[id]
	if !ok {
		return domain.ErrBookNotFound
	}
	if b.AvailableCopies <= 0 {
		return domain.ErrNoAvailableCopies
	}
	b.AvailableCopies--
	return nil
}

func (f *fakeBookRepo) IncrementAvailable(ctx context.Context, id string) error {
	b, ok := f.books[id]
	if !ok {
		return domain.ErrBookNotFound
	}
	b.AvailableCopies++
	return nil
}

type fakeLoanRepo struct {
	loans map[string]*domain.Loan

	createErr error
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[string]*domain.Loan)}
}

func (f *fakeLoanRepo) Create(ctx context.Context, loan *domain.Loan) error {
	if f.createErr != nil {
		return f.createErr
	}
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	f.loans[loan.ID] = loan
	return nil
}

func (f *fakeLoanRepo) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	if l, ok := f.loans[id]; ok {
		return l, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (f *fakeLoanRepo) GetActiveByUserAndBook(ctx context.Context, userID, bookID string) (*domain.Loan, error) {
	for _, l := range f.loans {
		if l.UserID == userID && l.BookID == bookID && l.ReturnedAt == nil {
			return l, nil
		}
	}
	return nil, domain.ErrLoanNotFound
}

func (f *fakeLoanRepo) MarkReturned(ctx context.Context, id string, returnedAt time.Time) error {
	l, ok := f.loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	if l.ReturnedAt != nil {
		return domain.ErrLoanAlreadyReturned
	}
	t := returnedAt
	l.ReturnedAt = &t
	return nil
}

func (f *fakeLoanRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	for _, l := range f.loans {
		if l.ReturnedAt == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeLoanRepo) ListActiveDetails(ctx context.Context) ([]*domain.ActiveLoanDetail, error) {
	var out []*domain.ActiveLoanDetail
	for _, l := range f.loans {
		if l.ReturnedAt == nil {
			out = append(out, &domain.ActiveLoanDetail{
				LoanID:     l.ID,
				BorrowedAt: l.BorrowedAt,
				DueAt:      l.DueAt,
			})
		}
	}
	return out, nil
}

func (f *fakeLoanRepo) ListBorrowedByUser(ctx context.Context, userID string) ([]*domain.BorrowedBookDetail, error) {
	var out []*domain.BorrowedBookDetail
	for _, l := range f.loans {
		if l.UserID == userID && l.ReturnedAt == nil {
			out = append(out, &domain.BorrowedBookDetail{
				BorrowedAt: l.BorrowedAt,
				DueAt:      l.DueAt,
			})
		}
	}
	return out, nil
}

func (f *fakeLoanRepo) ListOverdueDetails(ctx context.Context, now time.Time) ([]*domain.OverdueLoanDetail, error) {
	var out []*domain.OverdueLoanDetail
	for _, l := range f.loans {
		if l.ReturnedAt == nil && l.DueAt.Before(now) {
			out = append(out, &domain.OverdueLoanDetail{
				BorrowedAt: l.BorrowedAt,
				DueAt:      l.DueAt,
			})
		}
	}
	return out, nil
}

func (f *fakeLoanRepo) TopBorrowed(ctx context.Context, limit int) ([]*domain.BookBorrowCount, error) {
	counts := make(map[string]int64)
	for _, l := range f.loans {
		counts[l.BookID]++
	}
	var out []*domain.BookBorrowCount
	for bookID, n := range counts {
		out = append(out, &domain.BookBorrowCount{BookID: bookID, Borrows: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Borrows > out[j].Borrows })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeVisitRepo struct {
	visits []*domain.Visit
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{}
}

func (f *fakeVisitRepo) Create(ctx context.Context, visit *domain.Visit) error {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	f.visits = append(f.visits, visit)
	return nil
}

func (f *fakeVisitRepo) HasRecent(ctx context.Context, userID, studentID, barcode string, after time.Time) (bool, error) {
	for _, v := range f.visits {
		if !v.EnteredAt.After(after) {
			continue
		}
		if v.UserID == userID ||
			(studentID != "" && v.StudentID == studentID) ||
			(barcode != "" && v.Barcode == barcode) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVisitRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	for _, v := range f.visits {
		if !v.EnteredAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeVisitRepo) Heatmap(ctx context.Context, since time.Time, branch string) ([]*domain.HeatmapBucket, error) {
	counts := make(map[[2]int]int64)
	for _, v := range f.visits {
		if v.EnteredAt.Before(since) {
			continue
		}
		if branch != "" && v.Branch != branch {
			continue
		}
		key := [2]int{int(v.EnteredAt.Weekday()), v.EnteredAt.Hour()}
		counts[key]++
	}
	var out []*domain.HeatmapBucket
	for key, n := range counts {
		out = append(out, &domain.HeatmapBucket{DayOfWeek: key[0], Hour: key[1], Count: n})
	}
	return out, nil
}

type fakeHoursRepo struct {
	entries map[string]*domain.Hours
}

func newFakeHoursRepo() *fakeHoursRepo {
	return &fakeHoursRepo{entries: make(map[string]*domain.Hours)}
}

func hoursKey(branch string, day int) string {
	return fmt.Sprintf("%s/%d", branch, day)
}

func (f *fakeHoursRepo) ListByBranch(ctx context.Context, branch string) ([]*domain.Hours, error) {
	var out []*domain.Hours
	for _, e := range f.entries {
		if e.Branch == branch {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (f *fakeHoursRepo) Upsert(ctx context.Context, entry *domain.Hours) (*domain.Hours, error) {
	key := hoursKey(entry.Branch, entry.DayOfWeek)
	if existing, ok := f.entries[key]; ok {
		existing.Open = entry.Open
		existing.Close = entry.Close
		return existing, nil
	}
	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	f.entries[key] = &stored
	return &stored, nil
}

type fakeResetRepo struct {
	resets map[string]*domain.PasswordReset
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{resets: make(map[string]*domain.PasswordReset)}
}

func (f *fakeResetRepo) Create(ctx context.Context, reset *domain.PasswordReset) error {
	if reset.ID == "" {
		reset.ID = uuid.NewString()
	}
	f.resets[reset.ID] = reset
	return nil
}

func (f *fakeResetRepo) GetRedeemable(ctx context.Context, userID, tokenHash string, now time.Time) (*domain.PasswordReset, error) {
	for _, r := range f.resets {
		if r.UserID == userID && r.TokenHash == tokenHash && r.Redeemable(now) {
			return r, nil
		}
	}
	return nil, domain.ErrResetTokenInvalid
}

func (f *fakeResetRepo) Consume(ctx context.Context, id, userID string, usedAt time.Time) error {
	r, ok := f.resets[id]
	if !ok || r.Used {
		return domain.ErrResetTokenInvalid
	}
	t := usedAt
	r.Used = true
	r.UsedAt = &t
	for _, other := range f.resets {
		if other.UserID == userID && other.ID != id && !other.Used {
			other.Used = true
			other.UsedAt = &t
		}
	}
	return nil
}

// fakeCache implements repository.Cache with a plain map and no TTL
// expiry; enough for dedup and read-through tests.
type fakeCache struct {
	data map[string][]byte

	// unavailable makes every call fail when set.
	unavailable error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if f.unavailable != nil {
		return nil, f.unavailable
	}
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return nil, repository.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.unavailable != nil {
		return f.unavailable
	}
	f.data[key] = value
	return nil
}

func (f *fakeCache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if f.unavailable != nil {
		return false, f.unavailable
	}
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	if f.unavailable != nil {
		return f.unavailable
	}
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	if f.unavailable != nil {
		return false, f.unavailable
	}
	_, ok := f.data[key]
	return ok, nil
}

var (
	_ repository.UserRepository          = (*fakeUserRepo)(nil)
	_ repository.AdminRepository         = (*fakeAdminRepo)(nil)
	_ repository.AdminKeyRepository      = (*fakeAdminKeyRepo)(nil)
	_ repository.BookRepository          = (*fakeBookRepo)(nil)
	_ repository.LoanRepository          = (*fakeLoanRepo)(nil)
	_ repository.VisitRepository         = (*fakeVisitRepo)(nil)
	_ repository.HoursRepository         = (*fakeHoursRepo)(nil)
	_ repository.PasswordResetRepository = (*fakeResetRepo)(nil)
	_ repository.Cache                   = (*fakeCache)(nil)
)
