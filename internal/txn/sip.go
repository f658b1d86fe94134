// Package txn implements the two-phase review/confirm flow the SIP and
// Switch setup wizards share: cross-field validation producing a review
// snapshot with no network mutation, then exactly one backend submission
// from the confirm step. Duplicate-submission protection is a backend
// concern; nothing here retries or issues idempotency keys.
package txn

import (
	"fmt"
	"strings"

	"rtaportal/internal/rta"
	"rtaportal/internal/util"
)

// MinSIPAmount is the platform floor for a SIP instalment.
const MinSIPAmount = 100

var sipFrequencies = map[string]bool{
	"Monthly":   true,
	"Quarterly": true,
	"Weekly":    true,
}

type SIPForm struct {
	SchemeID      string  `json:"scheme_id"`
	Amount        float64 `json:"amount"`
	Frequency     string  `json:"frequency"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Installments  int     `json:"installments"`
	BankAccountID string  `json:"bank_account_id"`
	MandateType   string  `json:"mandate"`
}

// SIPReview is the snapshot shown back to the investor before the single
// irreversible submission.
type SIPReview struct {
	SchemeID     string  `json:"scheme_id"`
	SchemeName   string  `json:"scheme_name"`
	Amount       float64 `json:"amount"`
	Frequency    string  `json:"frequency"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date,omitempty"`
	Installments int     `json:"installments,omitempty"`
	BankLabel    string  `json:"bank_label"`
	MandateType  string  `json:"mandate"`
}

// ReviewSIP validates the form against the investor's schemes and bank
// accounts and builds the review snapshot. It performs no mutation; the
// inputs are whatever the caller already fetched.
func ReviewSIP(form SIPForm, schemes []rta.Scheme, accounts []rta.BankAccount) (SIPReview, util.FieldErrors) {
	errs := util.FieldErrors{}

	var scheme *rta.Scheme
	for i := range schemes {
		if schemes[i].ID == form.SchemeID {
			scheme = &schemes[i]
			break
		}
	}
	if strings.TrimSpace(form.SchemeID) == "" {
		errs["scheme_id"] = "Select a scheme"
	} else if scheme == nil {
		errs["scheme_id"] = "Unknown scheme"
	}

	if form.Amount < MinSIPAmount {
		errs["amount"] = fmt.Sprintf("Minimum SIP amount is %d", MinSIPAmount)
	}
	if !sipFrequencies[form.Frequency] {
		errs["frequency"] = "Frequency must be Weekly, Monthly or Quarterly"
	}
	if strings.TrimSpace(form.StartDate) == "" {
		errs["start_date"] = "Start date is required"
	}
	if form.EndDate != "" && form.Installments > 0 {
		errs["end_date"] = "Provide either an end date or an installment count, not both"
	}
	if form.Installments < 0 {
		errs["installments"] = "Installment count cannot be negative"
	}

	var account *rta.BankAccount
	for i := range accounts {
		if accounts[i].ID == form.BankAccountID {
			account = &accounts[i]
			break
		}
	}
	if strings.TrimSpace(form.BankAccountID) == "" {
		errs["bank_account_id"] = "Select a bank account"
	} else if account == nil {
		errs["bank_account_id"] = "Unknown bank account"
	} else if account.MandateStatus != "active" {
		errs["bank_account_id"] = "The selected bank account has no active mandate"
	}

	if len(errs) > 0 {
		return SIPReview{}, errs
	}
	return SIPReview{
		SchemeID:     scheme.ID,
		SchemeName:   scheme.Name,
		Amount:       form.Amount,
		Frequency:    form.Frequency,
		StartDate:    form.StartDate,
		EndDate:      form.EndDate,
		Installments: form.Installments,
		BankLabel:    account.BankName + " - " + maskAccount(account.AccountNumber),
		MandateType:  form.MandateType,
	}, nil
}

// SIPRequest converts a validated form into the backend submission shape.
func (f SIPForm) SIPRequest() rta.SIPRequest {
	req := rta.SIPRequest{
		SchemeID:      f.SchemeID,
		Amount:        f.Amount,
		Frequency:     f.Frequency,
		StartDate:     f.StartDate,
		BankAccountID: f.BankAccountID,
		MandateType:   f.MandateType,
	}
	if f.EndDate != "" {
		end := f.EndDate
		req.EndDate = &end
	}
	if f.Installments > 0 {
		n := f.Installments
		req.Installments = &n
	}
	return req
}

func maskAccount(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "XXXX" + number[len(number)-4:]
}
