package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/memstore"
	userstore "github.com/dalemusser/churchroll/internal/app/store/users"
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/dalemusser/churchroll/internal/app/system/metrics"
	"github.com/dalemusser/churchroll/internal/app/system/ratelimit"
	"github.com/dalemusser/churchroll/internal/domain/models"
	"github.com/dalemusser/churchroll/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

const testPassword = "correct-horse-battery"

func memoryConfig() AppConfig {
	return AppConfig{
		StoreBackend:       BackendMemory,
		SessionKey:         "test-session-key-must-be-32-chars-long",
		SessionName:        "churchroll-test",
		SessionMaxAge:      time.Hour,
		AuditLogAuth:       "db",
		AuditLogAdmin:      "db",
		SuperAdminEmail:    "Root@Example.com",
		SuperAdminPassword: testPassword,
		SuperAdminName:     "Root",
		MetricsEnabled:     true,
	}
}

func TestEnsureSuperAdmin_CreatesOnce(t *testing.T) {
	be := memstore.New().Backend()
	ctx := context.Background()
	cfg := memoryConfig()

	for i := 0; i < 2; i++ {
		if err := ensureSuperAdmin(ctx, be.Users, cfg, zap.NewNop()); err != nil {
			t.Fatalf("ensureSuperAdmin #%d: %v", i+1, err)
		}
	}

	u, err := be.Users.GetByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("superadmin not created: %v", err)
	}
	if u.Role != "superadmin" || !u.IsActive || u.FullName != "Root" {
		t.Errorf("unexpected superadmin %+v", u)
	}
	all, _ := be.Users.List(ctx, store.UserQuery{})
	if len(all) != 1 {
		t.Errorf("expected one user, got %d", len(all))
	}
}

func TestEnsureSuperAdmin_LeavesExistingAccount(t *testing.T) {
	fx := testutil.NewFixtures(t)
	fx.CreateUser(models.User{FullName: "Cora", Email: "root@example.com", Role: "coordinator"}, testPassword)

	if err := ensureSuperAdmin(context.Background(), fx.Backend.Users, memoryConfig(), zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}
	u, _ := fx.Backend.Users.GetByEmail(context.Background(), "root@example.com")
	if u.Role != "coordinator" {
		t.Errorf("existing account changed to %q", u.Role)
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"memory in dev", dev, func(*AppConfig) {}, ""},
		{"memory in prod", prod, func(*AppConfig) {}, "development only"},
		{"unknown backend", dev, func(c *AppConfig) { c.StoreBackend = "sqlite" }, "unknown store_backend"},
		{"short session key", dev, func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"bad audit mode", dev, func(c *AppConfig) { c.AuditLogAdmin = "file" }, "audit_log_admin"},
		{"weak superadmin password", dev, func(c *AppConfig) { c.SuperAdminPassword = "abc" }, "superadmin_password"},
		{"no superadmin", dev, func(c *AppConfig) { c.SuperAdminEmail = ""; c.SuperAdminPassword = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, zap.NewNop())
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRouter_LoginMeAndOperationalEndpoints(t *testing.T) {
	cfg := memoryConfig()
	deps := DBDeps{Backend: memstore.New().Backend()}
	if err := Startup(context.Background(), nil, cfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	sm, err := auth.NewSessionManager(cfg.SessionKey, cfg.SessionName, "", cfg.SessionMaxAge, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	sm.SetUserFetcher(userstore.NewFetcher(deps.Backend.Users))
	r := newRouter(cfg, deps, sm, ratelimit.NewLoginLimiter(), metrics.New(), zap.NewNop())

	// Not signed in.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("GET /me anonymous: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"email":"root@example.com","password":"`+testPassword+`"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /login: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}

	req = httptest.NewRequest("GET", "/me", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"role":"superadmin"`) {
		t.Errorf("GET /me: %d %s", rec.Code, rec.Body.String())
	}

	for path, want := range map[string]int{
		"/health":  http.StatusOK,
		"/metrics": http.StatusOK,
		"/nope":    http.StatusNotFound,
	} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != want {
			t.Errorf("GET %s: %d, want %d", path, rec.Code, want)
		}
	}
}
