package txn

import (
	"testing"

	"rtaportal/internal/rta"
)

var testSchemes = []rta.Scheme{
	{ID: "S001", Name: "ABC Equity Fund", Category: "Equity", NAV: 42.10},
	{ID: "S002", Name: "XYZ Debt Fund", Category: "Debt", NAV: 18.75},
}

var testAccounts = []rta.BankAccount{
	{ID: "B1", BankName: "HDFC Bank", AccountNumber: "00991234", MandateStatus: "active"},
	{ID: "B2", BankName: "ICICI Bank", AccountNumber: "11225678", MandateStatus: "pending"},
}

func validSIPForm() SIPForm {
	return SIPForm{
		SchemeID:      "S001",
		Amount:        500,
		Frequency:     "Monthly",
		StartDate:     "2026-10-01",
		BankAccountID: "B1",
		MandateType:   "UPI",
	}
}

func TestSIPReviewHappyPath(t *testing.T) {
	review, errs := ReviewSIP(validSIPForm(), testSchemes, testAccounts)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if review.SchemeName != "ABC Equity Fund" {
		t.Fatalf("scheme name not resolved: %q", review.SchemeName)
	}
	if review.Amount != 500 {
		t.Fatalf("amount mangled: %v", review.Amount)
	}
	if review.BankLabel != "HDFC Bank - XXXX1234" {
		t.Fatalf("unexpected bank label: %q", review.BankLabel)
	}
}

func TestSIPBelowMinimumBlocked(t *testing.T) {
	form := validSIPForm()
	form.Amount = 50
	_, errs := ReviewSIP(form, testSchemes, testAccounts)
	if _, ok := errs["amount"]; !ok {
		t.Fatalf("expected amount error, got %v", errs)
	}
}

func TestSIPInactiveMandateBlocked(t *testing.T) {
	form := validSIPForm()
	form.BankAccountID = "B2"
	_, errs := ReviewSIP(form, testSchemes, testAccounts)
	if _, ok := errs["bank_account_id"]; !ok {
		t.Fatalf("expected bank account error, got %v", errs)
	}
}

func TestSIPEndDateAndInstallmentsExclusive(t *testing.T) {
	form := validSIPForm()
	form.EndDate = "2027-10-01"
	form.Installments = 12
	_, errs := ReviewSIP(form, testSchemes, testAccounts)
	if _, ok := errs["end_date"]; !ok {
		t.Fatalf("expected exclusivity error, got %v", errs)
	}
}

func TestSIPRequestOmitsUnsetTermination(t *testing.T) {
	req := validSIPForm().SIPRequest()
	if req.EndDate != nil || req.Installments != nil {
		t.Fatalf("unset termination fields must be nil: %+v", req)
	}
}

var testHoldings = []rta.Holding{
	{FolioNumber: "F100", SchemeID: "S001", SchemeName: "ABC Equity Fund", Units: 120.5, Value: 5073.05},
}

func TestSwitchDistinctSchemesRequired(t *testing.T) {
	form := SwitchForm{SourceSchemeID: "S001", TargetSchemeID: "S001", Mode: SwitchModeAll}
	_, errs := ReviewSwitch(form, testSchemes, testHoldings)
	if _, ok := errs["target_scheme_id"]; !ok {
		t.Fatalf("expected target error, got %v", errs)
	}
}

func TestSwitchInsufficientUnits(t *testing.T) {
	form := SwitchForm{SourceSchemeID: "S001", TargetSchemeID: "S002", Mode: SwitchModeUnits, Units: 999}
	_, errs := ReviewSwitch(form, testSchemes, testHoldings)
	if _, ok := errs["units"]; !ok {
		t.Fatalf("expected units error, got %v", errs)
	}
}

func TestSwitchAmountWithinBalance(t *testing.T) {
	form := SwitchForm{SourceSchemeID: "S001", TargetSchemeID: "S002", Mode: SwitchModeAmount, Amount: 1000}
	review, errs := ReviewSwitch(form, testSchemes, testHoldings)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if review.FolioNumber != "F100" {
		t.Fatalf("folio not resolved: %q", review.FolioNumber)
	}
}

func TestSwitchAllFillsUnits(t *testing.T) {
	form := SwitchForm{SourceSchemeID: "S001", TargetSchemeID: "S002", Mode: SwitchModeAll}
	review, errs := ReviewSwitch(form, testSchemes, testHoldings)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if review.Units != 120.5 {
		t.Fatalf("switch-all should carry the full position, got %v", review.Units)
	}
}

func TestSwitchUnheldSourceBlocked(t *testing.T) {
	form := SwitchForm{SourceSchemeID: "S002", TargetSchemeID: "S001", Mode: SwitchModeAll}
	_, errs := ReviewSwitch(form, testSchemes, testHoldings)
	if _, ok := errs["source_scheme_id"]; !ok {
		t.Fatalf("expected source error, got %v", errs)
	}
}
