package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func validSIPForm() map[string]any {
	return map[string]any{
		"scheme_id":       "S001",
		"amount":          500,
		"frequency":       "Monthly",
		"start_date":      "2026-09-01",
		"installments":    12,
		"bank_account_id": "B1",
		"mandate":         "enach",
	}
}

func TestSIPReviewReturnsSnapshotWithoutSubmitting(t *testing.T) {
	backend := investorBackend()
	router, _ := newTestRouter(t, backend)
	cookies, csrf := loginAs(t, router, "investor")

	rec := postJSON(t, router, "/api/v1/transactions/sip/review", validSIPForm(), cookies, csrf)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		SchemeName string `json:"scheme_name"`
		BankLabel  string `json:"bank_label"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode review: %v", err)
	}
	if out.SchemeName != "ABC Equity Fund" {
		t.Fatalf("unexpected scheme name %q", out.SchemeName)
	}
	if out.BankLabel != "HDFC Bank - XXXX1234" {
		t.Fatalf("unexpected bank label %q", out.BankLabel)
	}
	if backend.sipCalls != 0 {
		t.Fatalf("review must not submit, got %d calls", backend.sipCalls)
	}
}

func TestSIPConfirmBelowMinimumNeverReachesBackend(t *testing.T) {
	backend := investorBackend()
	router, _ := newTestRouter(t, backend)
	cookies, csrf := loginAs(t, router, "investor")

	form := validSIPForm()
	form["amount"] = 50
	rec := postJSON(t, router, "/api/v1/transactions/sip", form, cookies, csrf)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if out.Fields["amount"] == "" {
		t.Fatalf("expected an amount error, got %v", out.Fields)
	}
	if backend.sipCalls != 0 {
		t.Fatalf("invalid form must not reach the backend, got %d calls", backend.sipCalls)
	}
}

func TestSIPConfirmSubmitsExactlyOnce(t *testing.T) {
	backend := investorBackend()
	router, _ := newTestRouter(t, backend)
	cookies, csrf := loginAs(t, router, "investor")

	rec := postJSON(t, router, "/api/v1/transactions/sip", validSIPForm(), cookies, csrf)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		RegistrationID string `json:"reg_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if out.RegistrationID != "SIP-900" {
		t.Fatalf("unexpected registration id %q", out.RegistrationID)
	}
	if backend.sipCalls != 1 {
		t.Fatalf("expected exactly one submission, got %d", backend.sipCalls)
	}
}

func TestSIPRejectsEndDateAndInstallmentsTogether(t *testing.T) {
	backend := investorBackend()
	router, _ := newTestRouter(t, backend)
	cookies, csrf := loginAs(t, router, "investor")

	form := validSIPForm()
	form["end_date"] = "2027-09-01"
	rec := postJSON(t, router, "/api/v1/transactions/sip", form, cookies, csrf)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rec.Code, rec.Body.String())
	}
	if backend.sipCalls != 0 {
		t.Fatalf("invalid form must not reach the backend")
	}
}

func TestSwitchAllSubmitsFullPosition(t *testing.T) {
	backend := investorBackend()
	router, _ := newTestRouter(t, backend)
	cookies, csrf := loginAs(t, router, "investor")

	rec := postJSON(t, router, "/api/v1/transactions/switch", map[string]any{
		"source_scheme_id": "S001",
		"target_scheme_id": "S002",
		"mode":             "all",
	}, cookies, csrf)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		TransactionID string `json:"txn_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if out.TransactionID != "T-1" {
		t.Fatalf("unexpected transaction id %q", out.TransactionID)
	}
	if backend.switchCalls != 1 {
		t.Fatalf("expected exactly one submission, got %d", backend.switchCalls)
	}
}

func TestSwitchRejectsSameScheme(t *testing.T) {
	backend := investorBackend()
	router, _ := newTestRouter(t, backend)
	cookies, csrf := loginAs(t, router, "investor")

	rec := postJSON(t, router, "/api/v1/transactions/switch", map[string]any{
		"source_scheme_id": "S001",
		"target_scheme_id": "S001",
		"mode":             "all",
	}, cookies, csrf)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rec.Code, rec.Body.String())
	}
	if backend.switchCalls != 0 {
		t.Fatalf("invalid switch must not reach the backend")
	}
}

func TestTransactionsRequireCSRF(t *testing.T) {
	router, _ := newTestRouter(t, investorBackend())
	cookies, _ := loginAs(t, router, "investor")

	rec := postJSON(t, router, "/api/v1/transactions/sip", validSIPForm(), cookies, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", rec.Code)
	}
}
