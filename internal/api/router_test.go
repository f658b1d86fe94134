package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"rtaportal/internal/config"
	"rtaportal/internal/db"
	"rtaportal/internal/models"
	"rtaportal/internal/rta"
	"rtaportal/internal/store"
	"rtaportal/internal/util"
)

// fakeBackend stands in for the RTA core. Canned data per test, call
// counters where the test cares how many round trips happened.
type fakeBackend struct {
	loginToken string
	loginUser  models.User
	loginErr   error

	schemes  []rta.Scheme
	accounts []rta.BankAccount
	holdings []rta.Holding

	sipCalls    int
	sipReceipt  rta.SIPReceipt
	switchCalls int

	registerCalls int
	lastRegister  rta.RegistrationPayload

	adminRegisterCalls int
	lastAdminRegister  rta.AdminRegistration
	adminRegisterErr   error

	resources   map[string][]json.RawMessage
	listErr     error
	createCalls int
	listCalls   int

	reportRows json.RawMessage
}

func (f *fakeBackend) Login(ctx context.Context, portal models.Portal, identifier, password string) (string, models.User, error) {
	if f.loginErr != nil {
		return "", models.User{}, f.loginErr
	}
	return f.loginToken, f.loginUser, nil
}

func (f *fakeBackend) Register(ctx context.Context, portal models.Portal, payload rta.RegistrationPayload) error {
	f.registerCalls++
	f.lastRegister = payload
	return nil
}

func (f *fakeBackend) RegisterAdmin(ctx context.Context, payload rta.AdminRegistration) error {
	f.adminRegisterCalls++
	f.lastAdminRegister = payload
	return f.adminRegisterErr
}

func (f *fakeBackend) Profile(ctx context.Context, portal models.Portal, token string) (models.User, error) {
	return f.loginUser, nil
}

func (f *fakeBackend) RequestPasswordReset(ctx context.Context, portal models.Portal, email string) error {
	return nil
}

func (f *fakeBackend) ConfirmPasswordReset(ctx context.Context, portal models.Portal, resetToken, newPassword string) error {
	return nil
}

func (f *fakeBackend) VerifyOTP(ctx context.Context, portal models.Portal, identifier, code string) error {
	return nil
}

func (f *fakeBackend) ListResource(ctx context.Context, portal models.Portal, token, resource string) ([]json.RawMessage, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.resources[resource], nil
}

func (f *fakeBackend) CreateResource(ctx context.Context, portal models.Portal, token, resource string, body any) (json.RawMessage, error) {
	f.createCalls++
	return json.RawMessage(`{"id":"new"}`), nil
}

func (f *fakeBackend) UpdateResource(ctx context.Context, portal models.Portal, token, resource, id string, body any) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"` + id + `"}`), nil
}

func (f *fakeBackend) DeleteResource(ctx context.Context, portal models.Portal, token, resource, id string) error {
	return nil
}

func (f *fakeBackend) BankAccounts(ctx context.Context, token string) ([]rta.BankAccount, error) {
	return f.accounts, nil
}

func (f *fakeBackend) Schemes(ctx context.Context, token string) ([]rta.Scheme, error) {
	return f.schemes, nil
}

func (f *fakeBackend) Holdings(ctx context.Context, token string) ([]rta.Holding, error) {
	return f.holdings, nil
}

func (f *fakeBackend) SubmitSIP(ctx context.Context, token string, req rta.SIPRequest) (rta.SIPReceipt, error) {
	f.sipCalls++
	return f.sipReceipt, nil
}

func (f *fakeBackend) SubmitSwitch(ctx context.Context, token string, req rta.SwitchRequest) (rta.SwitchReceipt, error) {
	f.switchCalls++
	return rta.SwitchReceipt{TransactionID: "T-1", Status: "submitted"}, nil
}

func (f *fakeBackend) Report(ctx context.Context, portal models.Portal, token, name string) (json.RawMessage, error) {
	if f.reportRows == nil {
		return json.RawMessage(`[]`), nil
	}
	return f.reportRows, nil
}

func (f *fakeBackend) UploadDocument(ctx context.Context, token, filename, contentType string, file io.Reader, fields map[string]string) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"doc1"}`), nil
}

func (f *fakeBackend) DownloadDocument(ctx context.Context, token, id string) (rta.DocumentMeta, io.ReadCloser, error) {
	return rta.DocumentMeta{}, nil, errors.New("not implemented")
}

func (f *fakeBackend) Probe(ctx context.Context) error { return nil }

func testConfig() config.Config {
	return config.Config{
		ListenAddr:          ":8080",
		BackendBaseURL:      "http://localhost:8000",
		BackendTimeoutSec:   5,
		SessionCookieName:   "rtaportal_session",
		CSRFCookieName:      "rtaportal_csrf",
		SessionIdleMinutes:  30,
		SessionAbsoluteHour: 12,
		SessionEncryptKey:   "this_is_a_valid_long_session_encrypt_key_123456",
		SuperAdminEmail:     "admin@rtasystem.com",
		DraftTTLHours:       24,
	}
}

func newTestRouter(t *testing.T, backend rta.Client) (http.Handler, *sql.DB) {
	t.Helper()
	return newTestRouterWithConfig(t, backend, testConfig())
}

func newTestRouterWithConfig(t *testing.T, backend rta.Client, cfg config.Config) (http.Handler, *sql.DB) {
	t.Helper()
	sqdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "portal.db"), 1, 1, time.Minute)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqdb.Close() })
	if err := db.ApplyMigrationFile(sqdb, filepath.Join("..", "..", "migrations", "001_init.sql")); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	st := store.New(sqdb, "sqlite")
	return NewRouter(cfg, st, backend, util.Derive32ByteKey(cfg.SessionEncryptKey)), sqdb
}

func postJSON(t *testing.T, router http.Handler, path string, body any, cookies []*http.Cookie, csrf string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getWithCookies(t *testing.T, router http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// loginAs signs in against the fake backend and returns the cookies plus the
// CSRF token mutation requests must echo.
func loginAs(t *testing.T, router http.Handler, portal string) ([]*http.Cookie, string) {
	t.Helper()
	rec := postJSON(t, router, "/api/v1/auth/login", map[string]string{
		"portal":     portal,
		"identifier": "ravi@example.com",
		"password":   "Passw0rd!",
	}, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return rec.Result().Cookies(), out.CSRFToken
}

func investorBackend() *fakeBackend {
	return &fakeBackend{
		loginToken: "backend-jwt",
		loginUser:  models.User{ID: "U1", Email: "ravi@example.com", DisplayName: "Ravi", Role: "investor"},
		schemes: []rta.Scheme{
			{ID: "S001", Name: "ABC Equity Fund", Category: "Equity", NAV: 42.1},
			{ID: "S002", Name: "XYZ Debt Fund", Category: "Debt", NAV: 18.7},
		},
		accounts: []rta.BankAccount{
			{ID: "B1", BankName: "HDFC Bank", AccountNumber: "50100012341234", MandateStatus: "active"},
		},
		holdings: []rta.Holding{
			{FolioNumber: "F100", SchemeID: "S001", SchemeName: "ABC Equity Fund", Units: 120.5, Value: 5073.05},
		},
		sipReceipt: rta.SIPReceipt{RegistrationID: "SIP-900", Status: "registered"},
		resources: map[string][]json.RawMessage{
			rta.ResourceComplaints:   {json.RawMessage(`{"id":"C1"}`)},
			rta.ResourceBankAccounts: {json.RawMessage(`{"id":"B1"}`)},
		},
	}
}
