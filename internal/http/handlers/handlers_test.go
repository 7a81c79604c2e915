package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/musiccamp/internal/cache"
	"github.com/geocoder89/musiccamp/internal/domain"
	"github.com/geocoder89/musiccamp/internal/domain/ack"
	"github.com/geocoder89/musiccamp/internal/domain/cart"
	"github.com/geocoder89/musiccamp/internal/domain/offering"
	"github.com/geocoder89/musiccamp/internal/domain/payment"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/http/handlers"
	"github.com/geocoder89/musiccamp/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

// fakeService implements every handler-facing service interface. Unset
// functions return zero values.
type fakeService struct {
	upsertFn     func(ctx context.Context, req user.UpsertRequest) (enrollment.UpsertResult, error)
	listUsersFn  func(ctx context.Context) ([]user.User, error)
	setRoleFn    func(ctx context.Context, id string, role user.Role) (ack.Update, error)
	deleteUserFn func(ctx context.Context, id string) (ack.Delete, error)

	submitFn  func(ctx context.Context, req offering.CreateRequest) (offering.Offering, error)
	listOffFn func(ctx context.Context) ([]offering.Offering, error)
	approveFn func(ctx context.Context, id string) (ack.Update, error)

	addCartFn    func(ctx context.Context, req cart.AddRequest) (cart.Entry, error)
	listCartFn   func(ctx context.Context, email string) ([]cart.Entry, error)
	removeCartFn func(ctx context.Context, email, id string) (ack.Delete, error)

	intentFn       func(ctx context.Context, fee float64) (string, error)
	recordFn       func(ctx context.Context, req payment.RecordRequest) (enrollment.RecordResult, error)
	listPaymentsFn func(ctx context.Context, email string) ([]payment.Payment, error)
}

func (f *fakeService) UpsertUser(ctx context.Context, req user.UpsertRequest) (enrollment.UpsertResult, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, req)
	}
	return enrollment.UpsertResult{}, nil
}

func (f *fakeService) ListUsers(ctx context.Context) ([]user.User, error) {
	if f.listUsersFn != nil {
		return f.listUsersFn(ctx)
	}
	return []user.User{}, nil
}

func (f *fakeService) SetRole(ctx context.Context, id string, role user.Role) (ack.Update, error) {
	if f.setRoleFn != nil {
		return f.setRoleFn(ctx, id, role)
	}
	return ack.Update{}, nil
}

func (f *fakeService) DeleteUser(ctx context.Context, id string) (ack.Delete, error) {
	if f.deleteUserFn != nil {
		return f.deleteUserFn(ctx, id)
	}
	return ack.Delete{}, nil
}

func (f *fakeService) SubmitOffering(ctx context.Context, req offering.CreateRequest) (offering.Offering, error) {
	if f.submitFn != nil {
		return f.submitFn(ctx, req)
	}
	return offering.Offering{}, nil
}

func (f *fakeService) ListOfferings(ctx context.Context) ([]offering.Offering, error) {
	if f.listOffFn != nil {
		return f.listOffFn(ctx)
	}
	return []offering.Offering{}, nil
}

func (f *fakeService) ApproveOffering(ctx context.Context, id string) (ack.Update, error) {
	if f.approveFn != nil {
		return f.approveFn(ctx, id)
	}
	return ack.Update{}, nil
}

func (f *fakeService) AddToCart(ctx context.Context, req cart.AddRequest) (cart.Entry, error) {
	if f.addCartFn != nil {
		return f.addCartFn(ctx, req)
	}
	return cart.Entry{}, nil
}

func (f *fakeService) ListCart(ctx context.Context, email string) ([]cart.Entry, error) {
	if f.listCartFn != nil {
		return f.listCartFn(ctx, email)
	}
	return []cart.Entry{}, nil
}

func (f *fakeService) RemoveFromCart(ctx context.Context, email, id string) (ack.Delete, error) {
	if f.removeCartFn != nil {
		return f.removeCartFn(ctx, email, id)
	}
	return ack.Delete{}, nil
}

func (f *fakeService) CreatePaymentIntent(ctx context.Context, fee float64) (string, error) {
	if f.intentFn != nil {
		return f.intentFn(ctx, fee)
	}
	return "", nil
}

func (f *fakeService) RecordPayment(ctx context.Context, req payment.RecordRequest) (enrollment.RecordResult, error) {
	if f.recordFn != nil {
		return f.recordFn(ctx, req)
	}
	return enrollment.RecordResult{}, nil
}

func (f *fakeService) ListPayments(ctx context.Context, email string) ([]payment.Payment, error) {
	if f.listPaymentsFn != nil {
		return f.listPaymentsFn(ctx, email)
	}
	return []payment.Payment{}, nil
}

// withEmail stands in for RequireAuth.
func withEmail(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxEmail, email)
		c.Next()
	}
}

// small helper function which returns the gin engine to mount one handler per test
func setupRouter(method, path string, h ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h...)
	return r
}

func doJSON(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpsertUserHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		result     enrollment.UpsertResult
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "new user gets insert ack",
			body:       `{"name":"Ana","email":"ana@example.com"}`,
			result:     enrollment.UpsertResult{Insert: ack.Inserted("u1")},
			wantStatus: http.StatusOK,
			wantBody:   `{"acknowledged":true,"insertedId":"u1"}`,
		},
		{
			name:       "existing user gets message",
			body:       `{"email":"ana@example.com"}`,
			result:     enrollment.UpsertResult{Existing: true},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"user already exist in DB"}`,
		},
		{
			name:       "missing email",
			body:       `{"name":"Ana"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store failure",
			body:       `{"email":"ana@example.com"}`,
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{upsertFn: func(_ context.Context, req user.UpsertRequest) (enrollment.UpsertResult, error) {
				return tt.result, tt.err
			}}
			h := handlers.NewUsersHandler(svc)

			rec := doJSON(setupRouter(http.MethodPost, "/users", h.Upsert), http.MethodPost, "/users", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Fatalf("body = %s, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestSetRoleHandler(t *testing.T) {
	tests := []struct {
		name       string
		role       user.Role
		err        error
		wantStatus int
	}{
		{"admin", user.RoleAdmin, nil, http.StatusOK},
		{"malformed id", user.RoleStudent, domain.ErrInvalidID, http.StatusBadRequest},
		{"not assignable", user.RoleUnassigned, user.ErrInvalidRole, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			var gotRole user.Role

			svc := &fakeService{setRoleFn: func(_ context.Context, id string, role user.Role) (ack.Update, error) {
				gotID, gotRole = id, role
				if tt.err != nil {
					return ack.Update{}, tt.err
				}
				return ack.Updated(1, 1), nil
			}}
			h := handlers.NewUsersHandler(svc)

			rec := doJSON(setupRouter(http.MethodPatch, "/users/x/:id", h.SetRole(tt.role)), http.MethodPatch, "/users/x/abc", "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if gotID != "abc" || gotRole != tt.role {
				t.Fatalf("service got (%q, %q)", gotID, gotRole)
			}
		})
	}
}

func TestListCartHandler(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		tokenEmail  string
		wantStatus  int
		wantBody    string
		wantQueried bool
	}{
		{"no email skips store", "/course-cart", "ana@example.com", http.StatusOK, `[]`, false},
		{"other user's email", "/course-cart?email=bob@example.com", "ana@example.com", http.StatusForbidden, "", false},
		{"own email", "/course-cart?email=Ana@Example.com", "ana@example.com", http.StatusOK, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queried := false
			svc := &fakeService{listCartFn: func(_ context.Context, email string) ([]cart.Entry, error) {
				queried = true
				if email != "ana@example.com" {
					t.Fatalf("email = %q", email)
				}
				return []cart.Entry{{ID: "c1", Email: email}}, nil
			}}
			h := handlers.NewCartHandler(svc)

			rec := doJSON(setupRouter(http.MethodGet, "/course-cart", withEmail(tt.tokenEmail), h.List), http.MethodGet, tt.target, "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if queried != tt.wantQueried {
				t.Fatalf("queried = %v, want %v", queried, tt.wantQueried)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Fatalf("body = %s, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAddCartHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		tokenEmail string
		wantStatus int
		wantAdded  bool
	}{
		{"own cart", `{"email":"Ana@Example.com","classId":"o1","name":"Jazz Piano","price":20}`, "ana@example.com", http.StatusOK, true},
		{"someone else's cart", `{"email":"alice@example.com","classId":"o1","name":"Jazz Piano","price":20}`, "mallory@example.com", http.StatusForbidden, false},
		{"no identity", `{"email":"ana@example.com","classId":"o1","name":"Jazz Piano","price":20}`, "", http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added := false
			svc := &fakeService{addCartFn: func(_ context.Context, req cart.AddRequest) (cart.Entry, error) {
				added = true
				return cart.Entry{ID: "c1"}, nil
			}}
			h := handlers.NewCartHandler(svc)

			chain := []gin.HandlerFunc{h.Add}
			if tt.tokenEmail != "" {
				chain = append([]gin.HandlerFunc{withEmail(tt.tokenEmail)}, chain...)
			}

			rec := doJSON(setupRouter(http.MethodPost, "/course-cart", chain...), http.MethodPost, "/course-cart", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if added != tt.wantAdded {
				t.Fatalf("added = %v, want %v", added, tt.wantAdded)
			}
		})
	}
}

func TestRemoveCartHandlerScopesToCaller(t *testing.T) {
	var gotEmail, gotID string
	svc := &fakeService{removeCartFn: func(_ context.Context, email, id string) (ack.Delete, error) {
		gotEmail, gotID = email, id
		return ack.Deleted(0), nil
	}}
	h := handlers.NewCartHandler(svc)

	r := setupRouter(http.MethodDelete, "/course-cart/:id", withEmail("mallory@example.com"), h.Remove)
	rec := doJSON(r, http.MethodDelete, "/course-cart/alice-entry", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}
	if gotEmail != "mallory@example.com" || gotID != "alice-entry" {
		t.Fatalf("service got (%q, %q)", gotEmail, gotID)
	}
	if rec.Body.String() != `{"acknowledged":true,"deletedCount":0}` {
		t.Fatalf("body = %s", rec.Body.String())
	}

	rec = doJSON(setupRouter(http.MethodDelete, "/course-cart/:id", h.Remove), http.MethodDelete, "/course-cart/x", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("no identity: status = %d", rec.Code)
	}
}

func TestCreateIntentHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		secret     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"ok", `{"courseFee":49.99}`, "pi_secret", nil, http.StatusOK, ""},
		{"missing fee", `{}`, "", nil, http.StatusBadRequest, "invalid_request"},
		{"rounds to zero", `{"courseFee":0.001}`, "", enrollment.ErrInvalidFee, http.StatusBadRequest, "invalid_fee"},
		{"processor down", `{"courseFee":10}`, "", fmt.Errorf("%w: timeout", enrollment.ErrProcessor), http.StatusBadGateway, "payment_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{intentFn: func(_ context.Context, fee float64) (string, error) {
				return tt.secret, tt.err
			}}
			h := handlers.NewPaymentsHandler(svc)

			rec := doJSON(setupRouter(http.MethodPost, "/payment-intend", h.CreateIntent), http.MethodPost, "/payment-intend", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				var got map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatal(err)
				}
				if len(got) != 1 || got["clientSecret"] != tt.secret {
					t.Fatalf("body = %v", got)
				}
				return
			}

			var resp struct {
				Error handlers.APIError `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestRecordPaymentHandler(t *testing.T) {
	body := `{"email":"ana@example.com","transactionId":"pi_1","price":20,"classItems":["c1","c2"]}`

	tests := []struct {
		name       string
		tokenEmail string
		result     enrollment.RecordResult
		wantStatus int
		wantBody   string
	}{
		{
			name:       "cleared",
			tokenEmail: "ana@example.com",
			result:     enrollment.RecordResult{Insert: ack.Inserted("p1"), Delete: ack.Deleted(2)},
			wantStatus: http.StatusOK,
			wantBody:   `{"insertResult":{"acknowledged":true,"insertedId":"p1"},"deleteResult":{"acknowledged":true,"deletedCount":2},"cleanupPending":false}`,
		},
		{
			name:       "cleanup pending",
			tokenEmail: "ana@example.com",
			result:     enrollment.RecordResult{Insert: ack.Inserted("p1"), CleanupPending: true},
			wantStatus: http.StatusOK,
			wantBody:   `{"insertResult":{"acknowledged":true,"insertedId":"p1"},"deleteResult":{"acknowledged":false,"deletedCount":0},"cleanupPending":true}`,
		},
		{
			name:       "someone else's payment",
			tokenEmail: "bob@example.com",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{recordFn: func(_ context.Context, req payment.RecordRequest) (enrollment.RecordResult, error) {
				return tt.result, nil
			}}
			h := handlers.NewPaymentsHandler(svc)

			rec := doJSON(setupRouter(http.MethodPost, "/course-payment", withEmail(tt.tokenEmail), h.Record), http.MethodPost, "/course-payment", body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Fatalf("body = %s\nwant %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestListOfferingsCachesAndETags(t *testing.T) {
	calls := 0
	svc := &fakeService{listOffFn: func(context.Context) ([]offering.Offering, error) {
		calls++
		return []offering.Offering{{ID: "o1", Name: "Jazz Piano", Status: offering.StatusPending}}, nil
	}}
	h := handlers.NewOfferingsHandler(svc, cache.NewMemory(0))

	r := gin.New()
	r.GET("/classes", h.List)
	r.PATCH("/classes/music-class/:id", h.Approve)

	first := doJSON(r, http.MethodGet, "/classes", "")
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first: status=%d cache=%q", first.Code, first.Header().Get("X-Cache"))
	}
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/classes", nil)
	req.Header.Set("If-None-Match", etag)
	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	if second.Code != http.StatusNotModified || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second: status=%d cache=%q", second.Code, second.Header().Get("X-Cache"))
	}
	if calls != 1 {
		t.Fatalf("store calls = %d, want 1", calls)
	}

	// approval invalidates the cached listing
	doJSON(r, http.MethodPatch, "/classes/music-class/o1", "")
	doJSON(r, http.MethodGet, "/classes", "")
	if calls != 2 {
		t.Fatalf("store calls after approve = %d, want 2", calls)
	}
}
