package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/workfin/practice-api/internal/authz"
	"github.com/workfin/practice-api/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(t *testing.T, authHeader string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	var captured *http.Request
	handler := JWTMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"tid":   "tenant-1",
		"sub":   "user-1",
		"roles": []string{"operator"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	rec, captured := doRequest(t, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	tid, ok := authz.TenantIDFromRequest(captured)
	if !ok || tid != "tenant-1" {
		t.Errorf("tenant = %q %v", tid, ok)
	}
	uid, ok := authz.UserIDFromRequest(captured)
	if !ok || uid != "user-1" {
		t.Errorf("user = %q %v", uid, ok)
	}
	roles, ok := authz.RolesFromRequest(captured)
	if !ok || !models.HasAtLeast(roles, models.RoleOperator) {
		t.Errorf("roles = %v %v", roles, ok)
	}
}

func TestJWTMiddlewareSingleRoleClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"tid":  "tenant-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	rec, captured := doRequest(t, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	roles, _ := authz.RolesFromRequest(captured)
	if !models.HasAtLeast(roles, models.RoleAdmin) {
		t.Errorf("roles = %v", roles)
	}
}

func TestJWTMiddlewareRejections(t *testing.T) {
	expired := signToken(t, jwt.MapClaims{
		"tid":   "tenant-1",
		"roles": []string{"viewer"},
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})
	missingTenant := signToken(t, jwt.MapClaims{
		"roles": []string{"viewer"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	unknownRole := signToken(t, jwt.MapClaims{
		"tid":   "tenant-1",
		"roles": []string{"superuser"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tid": "tenant-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	wrongKeySigned, err := wrongKey.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "wrong key", header: "Bearer " + wrongKeySigned},
		{name: "expired", header: "Bearer " + expired},
		{name: "missing tenant claim", header: "Bearer " + missingTenant},
		{name: "unknown role", header: "Bearer " + unknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(t, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}
