package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rtaportal/internal/models"
	"rtaportal/internal/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRFRejectsMismatchedToken(t *testing.T) {
	h := CSRFFromCookie("rtaportal_csrf")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/sip", nil)
	req.AddCookie(&http.Cookie{Name: "rtaportal_csrf", Value: "abc"})
	req.Header.Set("X-CSRF-Token", "def")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCSRFAllowsMatchingTokenAndReads(t *testing.T) {
	h := CSRFFromCookie("rtaportal_csrf")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/sip", nil)
	req.AddCookie(&http.Cookie{Name: "rtaportal_csrf", Value: "abc"})
	req.Header.Set("X-CSRF-Token", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("matching token: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET without token: expected 200, got %d", rec.Code)
	}
}

func TestRequirePermissionGatesByRole(t *testing.T) {
	h := RequirePermission("view_audit")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit", nil)
	req = req.WithContext(WithUser(req.Context(), models.User{Role: "admin", SubRole: "executive"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("executive: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit", nil)
	req = req.WithContext(WithUser(req.Context(), models.User{Role: "admin", SubRole: "compliance_head"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("compliance_head: expected 200, got %d", rec.Code)
	}
}

func TestRequirePermissionNeedsAuthenticatedUser(t *testing.T) {
	h := RequirePermission("view_users")(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/sessions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	l := rate.NewLimiter()
	h := RateLimit(l, "login", 2, time.Minute, false)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestClientIPHonorsProxyFlag(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := ClientIP(req, false); got != "10.0.0.1" {
		t.Fatalf("untrusted proxy: got %s", got)
	}
	if got := ClientIP(req, true); got != "203.0.113.9" {
		t.Fatalf("trusted proxy: got %s", got)
	}
}
