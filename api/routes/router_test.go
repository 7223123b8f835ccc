package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kukumart/marketplace-backend/internal/admin"
	"github.com/kukumart/marketplace-backend/internal/ledger"
	product "github.com/kukumart/marketplace-backend/internal/products"
	"github.com/kukumart/marketplace-backend/internal/settings"
	"github.com/kukumart/marketplace-backend/internal/users"
	pkgAuth "github.com/kukumart/marketplace-backend/pkg/auth"
	"github.com/kukumart/marketplace-backend/pkg/auth/session"
	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/redis"
)

type stubSessionManager struct{}

func (stubSessionManager) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

// stubLedger answers Balance; every other method panics if reached.
type stubLedger struct {
	ledger.Service
	calls int
}

func (s *stubLedger) Balance(_ context.Context, _ uuid.UUID) (ledger.Balance, error) {
	s.calls++
	return ledger.Balance{TotalRevenue: 45000, Available: 45000, MinimumWithdrawal: 10000, CanWithdraw: true}, nil
}

type stubAdmin struct {
	admin.Service
	calls int
}

func (s *stubAdmin) Dashboard(context.Context) (*admin.Dashboard, error) {
	s.calls++
	return &admin.Dashboard{Orders: 3, PendingVendors: 1}, nil
}

func (s *stubAdmin) UpdateUser(_ context.Context, _, userID uuid.UUID, input users.AdminUserUpdate) (*users.UserDTO, error) {
	s.calls++
	return &users.UserDTO{ID: userID, Name: *input.Name}, nil
}

func (s *stubAdmin) UpdateProduct(_ context.Context, _, productID uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error) {
	s.calls++
	return &product.ProductDTO{ID: productID, Stock: *input.Stock}, nil
}

// stubSettings answers the maintenance switch only.
type stubSettings struct {
	settings.Service
	maintenance bool
}

func (s stubSettings) InMaintenance(context.Context) (bool, error) {
	return s.maintenance, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-secret",
			Issuer:            "kukumart-test",
			ExpirationMinutes: 60,
		},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}
}

func newTestRouter(t *testing.T, svc Services) (http.Handler, *config.Config) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := testConfig()
	if svc.Sessions == nil {
		svc.Sessions = stubSessionManager{}
	}
	if svc.Redis == nil {
		svc.Redis = redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	}
	return NewRouter(cfg, logger.Nop(), svc), cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthReportsStatusTimeAndEnv(t *testing.T) {
	router, _ := newTestRouter(t, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["status"] != "ok" || body["env"] != "test" {
		t.Fatalf("unexpected health body %v", body)
	}
	if _, err := time.Parse(time.RFC3339, body["time"]); err != nil {
		t.Fatalf("time is not RFC3339: %q", body["time"])
	}
}

func TestReadinessFailsWhenDatabaseDown(t *testing.T) {
	router, _ := newTestRouter(t, Services{DB: stubPinger{err: context.DeadlineExceeded}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

	if resp.Code == http.StatusOK {
		t.Fatalf("expected readiness failure, got 200")
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router, _ := newTestRouter(t, Services{})

	for _, path := range []string{"/api/v1/me", "/api/v1/orders", "/api/v1/vendor/wallet", "/api/admin/v1/dashboard"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestVendorGroupRequiresVendorRole(t *testing.T) {
	wallet := &stubLedger{}
	router, cfg := newTestRouter(t, Services{Ledger: wallet})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/wallet", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("buyer: expected 403 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/vendor/wallet", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleVendor))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("vendor: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if wallet.calls != 1 {
		t.Fatalf("expected wallet lookup once, got %d", wallet.calls)
	}
	if !strings.Contains(resp.Body.String(), `"available":45000`) {
		t.Fatalf("unexpected wallet body %s", resp.Body.String())
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	stub := &stubAdmin{}
	router, cfg := newTestRouter(t, Services{Admin: stub})

	for _, role := range []enums.Role{enums.RoleUser, enums.RoleVendor} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
		req.Header.Set("Authorization", bearer(t, cfg, role))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 got %d", role, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin: expected 200 got %d", resp.Code)
	}
	if stub.calls != 1 {
		t.Fatalf("dashboard should be served once, got %d", stub.calls)
	}
}

func TestPublicCatalogDoesNotNeedJWT(t *testing.T) {
	router, _ := newTestRouter(t, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if resp.Code == http.StatusUnauthorized || resp.Code == http.StatusForbidden {
		t.Fatalf("catalog should be public, got %d", resp.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router, _ := newTestRouter(t, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminCanEditUsersAndProducts(t *testing.T) {
	stub := &stubAdmin{}
	router, cfg := newTestRouter(t, Services{Admin: stub})

	cases := []struct {
		path string
		body string
		want string
	}{
		{path: "/api/admin/v1/users/" + uuid.NewString(), body: `{"name":"Juma Hassan"}`, want: `"name":"Juma Hassan"`},
		{path: "/api/admin/v1/products/" + uuid.NewString(), body: `{"stock":40}`, want: `"stock":40`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPatch, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Authorization", bearer(t, cfg, enums.RoleAdmin))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", tc.path, resp.Code, resp.Body.String())
		}
		if !strings.Contains(resp.Body.String(), tc.want) {
			t.Fatalf("%s: unexpected body %s", tc.path, resp.Body.String())
		}

		req = httptest.NewRequest(http.MethodPatch, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Authorization", bearer(t, cfg, enums.RoleVendor))
		resp = httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("%s: vendor expected 403 got %d", tc.path, resp.Code)
		}
	}
	if stub.calls != 2 {
		t.Fatalf("expected two admin edits, got %d", stub.calls)
	}

	req := httptest.NewRequest(http.MethodPatch, cases[0].path, strings.NewReader(`{"contact":"not a phone"}`))
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("invalid contact: expected 400 got %d", resp.Code)
	}
}

func TestMaintenancePausesMarketplaceWrites(t *testing.T) {
	stub := &stubAdmin{}
	router, cfg := newTestRouter(t, Services{Admin: stub, Settings: stubSettings{maintenance: true}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleUser))
	req.Header.Set("Idempotency-Key", "k1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("checkout during maintenance: expected 503 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "MAINTENANCE") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/admin/v1/products/"+uuid.NewString(), strings.NewReader(`{"stock":1}`))
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin edit during maintenance: expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if resp.Code == http.StatusServiceUnavailable {
		t.Fatalf("catalog reads must stay open during maintenance")
	}
}
