package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/libreport/internal/auth"
	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/pkg/crypto"
	"github.com/prn-tf/libreport/internal/repository"
	"github.com/prn-tf/libreport/internal/repository/sqlite"
	"github.com/prn-tf/libreport/internal/service"
	"github.com/prn-tf/libreport/internal/token"
)

// testServer is the full API wired against an in-memory database.
type testServer struct {
	*httptest.Server
	repos *repository.Repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := sqlite.DefaultConfig(":memory:")
	cfg.JournalMode = "MEMORY"

	db, err := sqlite.NewDB(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	repos := sqlite.NewRepositories(db)
	logger := zerolog.Nop()
	tokens := token.NewService("test-secret", time.Hour)

	authService := service.NewAuthService(
		repos.User, repos.Admin, repos.AdminKey, repos.PasswordReset,
		tokens, bcrypt.MinCost, time.Hour, logger,
	)
	adminAuthService := service.NewAdminAuthService(
		repos.Admin, repos.AdminKey, tokens, bcrypt.MinCost, logger,
	)
	bookService := service.NewBookService(repos.Book, logger)
	loanService := service.NewLoanService(repos.Loan, repos.Book, repos.User, nil, 14, logger)
	visitService := service.NewVisitService(repos.Visit, repos.User, nil, 2*time.Minute, "Main", logger)
	reportService := service.NewReportService(repos.User, repos.Book, repos.Loan, repos.Visit, logger)
	hoursService := service.NewHoursService(repos.Hours, nil, "Main", logger)
	inviteService := service.NewInviteService(repos.AdminKey, logger)
	userAdminService := service.NewUserAdminService(repos.User, logger)

	router := NewRouter(RouterConfig{
		AuthHandler:      NewAuthHandler(authService, logger),
		AdminAuthHandler: NewAdminAuthHandler(adminAuthService, logger),
		BookHandler:      NewBookHandler(bookService, logger),
		LoanHandler:      NewLoanHandler(loanService, logger),
		VisitHandler:     NewVisitHandler(visitService, logger),
		ReportHandler:    NewReportHandler(reportService, logger),
		HoursHandler:     NewHoursHandler(hoursService, logger),
		AdminHandler:     NewAdminHandler(userAdminService, inviteService, nil, logger),
		RequireAuth:      auth.RequireAuth(tokens),
		RequireAdmin:     auth.RequireAdmin(),
		Health:           db,
		Logger:           logger,
	})

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, repos: repos}
}

// doJSON issues a request with an optional JSON body and bearer token.
func (ts *testServer) doJSON(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

// seedInviteCode stores an invite key and returns its plaintext code.
func (ts *testServer) seedInviteCode(t *testing.T, maxUses int) string {
	t.Helper()
	code := fmt.Sprintf("TEST-INVITE-%d", time.Now().UnixNano())
	key := domain.NewAdminKey(crypto.HashToken(code), "test", maxUses, nil)
	require.NoError(t, ts.repos.AdminKey.Create(context.Background(), key))
	return code
}

// signupStudent registers a student and returns its token and user ID.
func (ts *testServer) signupStudent(t *testing.T, email, studentID string) (string, string) {
	t.Helper()
	resp := ts.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"studentId":       studentID,
		"email":           email,
		"fullName":        "Test Student",
		"password":        "password1",
		"confirmPassword": "password1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	decodeBody(t, resp, &out)
	return out.Token, out.User.ID
}

// signupAdmin registers an invite-elevated account and returns its token.
func (ts *testServer) signupAdmin(t *testing.T, email, studentID string) string {
	t.Helper()
	code := ts.seedInviteCode(t, 1)
	resp := ts.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"studentId":       studentID,
		"email":           email,
		"fullName":        "Test Admin",
		"password":        "password1",
		"confirmPassword": "password1",
		"adminCode":       code,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &out)
	return out.Token
}

func TestHealthAndIndex(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.doJSON(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health struct {
		OK bool `json:"ok"`
	}
	decodeBody(t, resp, &health)
	assert.True(t, health.OK)

	resp = ts.doJSON(t, http.MethodGet, "/api/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestSignupLoginMe(t *testing.T) {
	ts := newTestServer(t)

	token, _ := ts.signupStudent(t, "ana@example.com", "12345678")

	t.Run("me", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var user domain.User
		decodeBody(t, resp, &user)
		assert.Equal(t, "ana@example.com", user.Email)
	})

	t.Run("me without token", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/auth/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("login", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ana@example.com",
			"password": "password1",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("login wrong password", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ana@example.com",
			"password": "wrongpass1",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "invalid credentials", body.Error)
	})

	t.Run("duplicate signup conflicts", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
			"studentId":       "12345678",
			"email":           "ana@example.com",
			"fullName":        "Test Student",
			"password":        "password1",
			"confirmPassword": "password1",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("validation error is 400", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
			"studentId":       "abc",
			"email":           "new@example.com",
			"fullName":        "Test Student",
			"password":        "password1",
			"confirmPassword": "password1",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("GET signup hints POST", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/auth/signup", "", nil)
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "POST", resp.Header.Get("Allow"))
		resp.Body.Close()
	})
}

func TestPasswordResetFlow(t *testing.T) {
	ts := newTestServer(t)

	ts.signupStudent(t, "ana@example.com", "12345678")

	t.Run("unknown email is 404", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/request-reset", "", map[string]string{
			"email": "ghost@example.com",
		})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	resp := ts.doJSON(t, http.MethodPost, "/api/auth/request-reset", "", map[string]string{
		"email": "ana@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reset struct {
		UID       string    `json:"uid"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	decodeBody(t, resp, &reset)
	require.NotEmpty(t, reset.Token)

	t.Run("bad token is 400", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/reset", "", map[string]string{
			"uid":         reset.UID,
			"token":       "deadbeef",
			"newPassword": "newpassword1",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	resp = ts.doJSON(t, http.MethodPost, "/api/auth/reset", "", map[string]string{
		"uid":         reset.UID,
		"token":       reset.Token,
		"newPassword": "newpassword1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ok struct {
		OK bool `json:"ok"`
	}
	decodeBody(t, resp, &ok)
	assert.True(t, ok.OK)

	t.Run("new password works", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ana@example.com",
			"password": "newpassword1",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestAdminAccessControl(t *testing.T) {
	ts := newTestServer(t)

	studentToken, _ := ts.signupStudent(t, "student@example.com", "12345678")
	adminToken := ts.signupAdmin(t, "admin@example.com", "87654321")

	t.Run("student cannot reach dashboard", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/dashboard", studentToken, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("anonymous gets 401", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/dashboard", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("admin reaches dashboard", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/dashboard", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var dashboard struct {
			Users int64 `json:"users"`
		}
		decodeBody(t, resp, &dashboard)
		assert.Equal(t, int64(2), dashboard.Users)
	})

	t.Run("garbage token gets 401", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/dashboard", "garbage", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestBookAndLoanFlow(t *testing.T) {
	ts := newTestServer(t)

	adminToken := ts.signupAdmin(t, "admin@example.com", "87654321")
	studentToken, studentID := ts.signupStudent(t, "student@example.com", "12345678")

	// Create a one-copy book.
	resp := ts.doJSON(t, http.MethodPost, "/api/books", adminToken, map[string]any{
		"title":       "Dune",
		"author":      "Herbert",
		"totalCopies": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var book domain.Book
	decodeBody(t, resp, &book)
	assert.Equal(t, 1, book.AvailableCopies)

	// Borrow it.
	resp = ts.doJSON(t, http.MethodPost, "/api/loans/borrow", adminToken, map[string]any{
		"accountId": studentID,
		"itemId":    book.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var loan domain.Loan
	decodeBody(t, resp, &loan)

	t.Run("second borrow has no copies", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/loans/borrow", adminToken, map[string]any{
			"accountId": studentID,
			"itemId":    book.ID,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "no available copies", body.Error)
	})

	t.Run("active loans listed", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/loans/active", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Items []domain.ActiveLoanDetail `json:"items"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "On Time", body.Items[0].Status)
	})

	t.Run("student sees own borrowed books", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/student/"+studentID+"/borrowed", studentToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Items []domain.BorrowedBookDetail `json:"items"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "Dune", body.Items[0].Title)
	})

	// Return it.
	resp = ts.doJSON(t, http.MethodPost, "/api/loans/return", adminToken, map[string]any{
		"loanId": loan.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("double return is 400", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/loans/return", adminToken, map[string]any{
			"loanId": loan.ID,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("copy is back on the shelf", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/books/"+book.ID, adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var reloaded domain.Book
		decodeBody(t, resp, &reloaded)
		assert.Equal(t, 1, reloaded.AvailableCopies)
	})

	t.Run("books are admin only", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/books", studentToken, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestVisitEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.signupStudent(t, "ana@example.com", "12345678")

	resp := ts.doJSON(t, http.MethodPost, "/api/visit/enter", "", map[string]string{
		"studentId": "12345678",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first struct {
		OK      bool `json:"ok"`
		Deduped bool `json:"deduped"`
	}
	decodeBody(t, resp, &first)
	assert.True(t, first.OK)
	assert.False(t, first.Deduped)

	t.Run("repeat tap is deduped", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/visit/enter", "", map[string]string{
			"studentId": "12345678",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var second struct {
			OK      bool `json:"ok"`
			Deduped bool `json:"deduped"`
		}
		decodeBody(t, resp, &second)
		assert.True(t, second.OK)
		assert.True(t, second.Deduped)
	})

	t.Run("unknown visitor is 404", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/visit/enter", "", map[string]string{
			"studentId": "99999999",
		})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("missing identity is 400", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/visit/enter", "", map[string]string{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestReportsAndHeatmap(t *testing.T) {
	ts := newTestServer(t)

	studentToken, _ := ts.signupStudent(t, "ana@example.com", "12345678")

	resp := ts.doJSON(t, http.MethodPost, "/api/visit/enter", "", map[string]string{
		"studentId": "12345678",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("heatmap", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/heatmap/visits?days=7", studentToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var heatmap struct {
			Since time.Time `json:"since"`
			Items []struct {
				Dow   int   `json:"dow"`
				Hour  int   `json:"hour"`
				Count int64 `json:"count"`
			} `json:"items"`
		}
		decodeBody(t, resp, &heatmap)
		require.Len(t, heatmap.Items, 1)
		assert.Equal(t, int64(1), heatmap.Items[0].Count)
	})

	t.Run("heatmap bad days", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/heatmap/visits?days=soon", studentToken, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("top books and overdue need a token", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/reports/top-books", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()

		resp = ts.doJSON(t, http.MethodGet, "/api/reports/overdue", studentToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Items []json.RawMessage `json:"items"`
		}
		decodeBody(t, resp, &body)
		assert.Empty(t, body.Items)
	})
}

func TestHoursEndpoints(t *testing.T) {
	ts := newTestServer(t)

	studentToken, _ := ts.signupStudent(t, "ana@example.com", "12345678")
	adminToken := ts.signupAdmin(t, "admin@example.com", "87654321")

	t.Run("students cannot write hours", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPut, "/api/hours", studentToken, map[string]any{
			"dayOfWeek": 1, "open": "08:00", "close": "17:00",
		})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	resp := ts.doJSON(t, http.MethodPut, "/api/hours", adminToken, map[string]any{
		"dayOfWeek": 1, "open": "08:00", "close": "17:00",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.doJSON(t, http.MethodPut, "/api/hours/Main/2", adminToken, map[string]any{
		"open": "09:00", "close": "18:00",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("bad clock is 400", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPut, "/api/hours", adminToken, map[string]any{
			"dayOfWeek": 1, "open": "8am", "close": "17:00",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("week listing", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/hours", studentToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Items []domain.Hours `json:"items"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Items, 2)
		assert.Equal(t, 1, body.Items[0].DayOfWeek)
		assert.Equal(t, 2, body.Items[1].DayOfWeek)
	})
}

func TestAdminUserAndKeyManagement(t *testing.T) {
	ts := newTestServer(t)

	adminToken := ts.signupAdmin(t, "admin@example.com", "87654321")
	_, studentID := ts.signupStudent(t, "ana@example.com", "12345678")

	t.Run("list users", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/admin/users?q=ana", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Items []domain.User `json:"items"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "ana@example.com", body.Items[0].Email)
	})

	t.Run("update role", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPatch, "/api/admin/users/"+studentID+"/role", adminToken, map[string]string{
			"role": "librarian",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var user domain.User
		decodeBody(t, resp, &user)
		assert.Equal(t, domain.RoleLibrarian, user.Role)
	})

	t.Run("bad role is 400", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPatch, "/api/admin/users/"+studentID+"/role", adminToken, map[string]string{
			"role": "wizard",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("key lifecycle", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/admin/keys", adminToken, map[string]any{
			"label":   "front desk",
			"maxUses": 3,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var created struct {
			Key  *domain.AdminKey `json:"key"`
			Code string           `json:"code"`
		}
		decodeBody(t, resp, &created)
		require.NotEmpty(t, created.Code)

		resp = ts.doJSON(t, http.MethodPatch, "/api/admin/keys/"+created.Key.ID, adminToken, map[string]any{
			"active": false,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var patched domain.AdminKey
		decodeBody(t, resp, &patched)
		assert.False(t, patched.Active)

		resp = ts.doJSON(t, http.MethodGet, "/api/admin/keys", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("export disabled returns 503", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/admin/export", adminToken, nil)
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestAdminAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code := ts.seedInviteCode(t, 1)

	resp := ts.doJSON(t, http.MethodPost, "/api/admin/auth/signup", "", map[string]string{
		"email":           "boss@example.com",
		"fullName":        "Head Librarian",
		"password":        "password1",
		"confirmPassword": "password1",
		"adminCode":       code,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var signup struct {
		Token string        `json:"token"`
		Admin *domain.Admin `json:"admin"`
	}
	decodeBody(t, resp, &signup)
	require.NotEmpty(t, signup.Token)

	t.Run("admin me", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/api/admin/auth/me", signup.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var admin domain.Admin
		decodeBody(t, resp, &admin)
		assert.Equal(t, "boss@example.com", admin.Email)
	})

	t.Run("quota exhausted code rejected", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/admin/auth/signup", "", map[string]string{
			"email":           "second@example.com",
			"fullName":        "Second Admin",
			"password":        "password1",
			"confirmPassword": "password1",
			"adminCode":       code,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("admin login", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/admin/auth/login", "", map[string]string{
			"email":    "boss@example.com",
			"password": "password1",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})
}
