package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/musiccamp/internal/auth"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (f fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	return f.verifyFn(token)
}

func verifierFor(role string) fakeVerifier {
	return fakeVerifier{verifyFn: func(token string) (*auth.Claims, error) {
		if token != "good" {
			return nil, errors.New("bad token")
		}
		return &auth.Claims{UserID: "u1", Email: "ana@example.com", Role: role}, nil
	}}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
	}{
		{"no header", "", http.StatusUnauthorized, false},
		{"not bearer", "Basic abc", http.StatusUnauthorized, false},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, false},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, false},
		{"valid token", "Bearer good", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			m := NewAuthMiddleware(verifierFor("Student"))

			r := gin.New()
			r.GET("/p", m.RequireAuth(), func(c *gin.Context) {
				called = true
				email, _ := EmailFromContext(c)
				c.String(http.StatusOK, email)
			})

			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Fatalf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantCalled && rec.Body.String() != "ana@example.com" {
				t.Fatalf("email = %q", rec.Body.String())
			}
		})
	}
}

type fakeLookup struct {
	findFn func(ctx context.Context, email string) (user.User, bool, error)
}

func (f fakeLookup) FindUser(ctx context.Context, email string) (user.User, bool, error) {
	return f.findFn(ctx, email)
}

func storedRole(role user.Role, found bool, err error) RoleLookup {
	return fakeLookup{findFn: func(_ context.Context, email string) (user.User, bool, error) {
		if err != nil {
			return user.User{}, false, err
		}
		return user.User{Email: email, Role: role}, found, nil
	}}
}

func TestRequestContextCarriesLogFields(t *testing.T) {
	m := NewAuthMiddleware(verifierFor("Student"))

	var gotID, gotHeader string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", m.RequireAuth(), func(c *gin.Context) {
		gotID = observability.RequestIDFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("X-Request-Id", "req-7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	gotHeader = rec.Header().Get("X-Request-Id")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotID != "req-7" || gotHeader != "req-7" {
		t.Fatalf("request id ctx=%q header=%q", gotID, gotHeader)
	}
}

func TestRequireAnyRole(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		enforce    bool
		users      RoleLookup
		wantStatus int
	}{
		{"not enforced any role", "", false, nil, http.StatusOK},
		{"enforced admin", "Admin", true, nil, http.StatusOK},
		{"enforced admin lower case", "admin", true, nil, http.StatusOK},
		{"enforced student", "Student", true, nil, http.StatusForbidden},
		{"enforced missing role", "", true, nil, http.StatusForbidden},
		{"missing role claim with stored admin", "", true, storedRole(user.RoleAdmin, true, nil), http.StatusForbidden},
		{"admin claim still stored admin", "Admin", true, storedRole(user.RoleAdmin, true, nil), http.StatusOK},
		{"admin claim since demoted", "Admin", true, storedRole(user.RoleStudent, true, nil), http.StatusForbidden},
		{"admin claim user deleted", "Admin", true, storedRole("", false, nil), http.StatusForbidden},
		{"lookup failure", "Admin", true, storedRole("", false, errors.New("down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(verifierFor(tt.role))

			r := gin.New()
			r.PATCH("/users/admin/:id", m.RequireAuth(), m.RequireAnyRole(tt.enforce, tt.users, user.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPatch, "/users/admin/1", nil)
			req.Header.Set("Authorization", "Bearer good")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	r := gin.New()
	r.POST("/jwt-token", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/jwt-token", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Fatal("missing Retry-After")
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json post", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"text post", http.MethodPost, `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"bodiless patch", http.MethodPatch, "", "", http.StatusOK},
		{"get", http.MethodGet, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequireJSON())
			r.Handle(tt.method, "/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/x", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
