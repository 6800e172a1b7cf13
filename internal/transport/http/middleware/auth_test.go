package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrdesk/internal/domain/auth"
)

func TestAuthMiddlewareSetsPrincipal(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", EmployeeID: "e1", Role: auth.RoleSupervisor}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	called := false
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		p, ok := GetPrincipal(r.Context())
		if !ok {
			t.Fatal("expected principal in context")
		}
		if p.UserID != "u1" || p.EmployeeID != "e1" || p.Role != auth.RoleSupervisor {
			t.Fatalf("unexpected principal: %+v", p)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthMiddlewareMissingOrBadToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); ok {
			t.Fatal("did not expect principal in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequireAction(t *testing.T) {
	secret := "test-secret"
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := Auth(secret)(RequireAction(auth.ActOpsRead)(ok))

	cases := []struct {
		role auth.Role
		want int
	}{
		{"", http.StatusUnauthorized},
		{auth.RoleUser, http.StatusForbidden},
		{auth.RoleAdmin, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/metrics", nil)
		if tc.role != "" {
			token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Role: tc.role}, time.Hour)
			if err != nil {
				t.Fatalf("token error: %v", err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("role %q: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}
}
