// Package wizard is the registration wizard state machine: a linear
// Identity -> Contact -> Security progression over a RegistrationDraft,
// with cascading geography resets. It is deliberately network-free; the
// HTTP layer owns persistence and the final backend submission.
package wizard

import (
	"errors"
	"strings"

	"rtaportal/internal/models"
	"rtaportal/internal/util"
)

var ErrNotLastStep = errors.New("draft is not on the final step")

// Update carries partial field changes. Pointers distinguish "set to empty"
// from "not sent".
type Update struct {
	FullName    *string `json:"full_name"`
	PAN         *string `json:"pan_number"`
	DateOfBirth *string `json:"date_of_birth"`
	Gender      *string `json:"gender"`

	Email   *string `json:"email"`
	Mobile  *string `json:"mobile_number"`
	Country *string `json:"country"`
	State   *string `json:"state"`
	City    *string `json:"city"`
	Address *string `json:"address_line1"`
	Pincode *string `json:"pincode"`

	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirm_password"`
	TermsAccepted   *bool   `json:"terms_accepted"`
}

// Apply merges an update into the draft. Changing the country clears state
// and city; changing the state clears city. The invariant city ⊆ state ⊆
// country therefore holds after every merge, regardless of field order in
// the request.
func Apply(d *models.RegistrationDraft, u Update) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&d.FullName, u.FullName)
	set(&d.PAN, u.PAN)
	set(&d.DateOfBirth, u.DateOfBirth)
	set(&d.Gender, u.Gender)
	set(&d.Email, u.Email)
	set(&d.Mobile, u.Mobile)
	set(&d.Address, u.Address)
	set(&d.Pincode, u.Pincode)
	if u.Password != nil {
		d.Password = *u.Password
	}
	if u.ConfirmPassword != nil {
		d.ConfirmPassword = *u.ConfirmPassword
	}
	if u.TermsAccepted != nil {
		d.TermsAccepted = *u.TermsAccepted
	}

	if u.Country != nil {
		next := strings.TrimSpace(*u.Country)
		if next != d.Country {
			d.Country = next
			d.State = ""
			d.City = ""
		}
	}
	if u.State != nil {
		next := strings.TrimSpace(*u.State)
		if next != d.State {
			d.State = next
			d.City = ""
		}
	}
	if u.City != nil {
		d.City = strings.TrimSpace(*u.City)
	}
}

// Next validates the current step only. On failure the step index is left
// untouched and the per-field errors are returned; on success the draft
// advances one step (capped at the security step).
func Next(d *models.RegistrationDraft) util.FieldErrors {
	errs := ValidateStep(*d, d.Step)
	if len(errs) > 0 {
		return errs
	}
	if d.Step < models.StepSecurity {
		d.Step++
	}
	return nil
}

// Back unconditionally moves one step earlier. No data is lost and nothing
// is re-validated on the way back.
func Back(d *models.RegistrationDraft) {
	if d.Step > models.StepIdentity {
		d.Step--
	}
}

// Finalize re-validates the last step and normalizes the draft for
// submission (PAN uppercased). It does not perform the network call.
func Finalize(d *models.RegistrationDraft) (util.FieldErrors, error) {
	if d.Step != models.StepSecurity {
		return nil, ErrNotLastStep
	}
	if errs := ValidateStep(*d, models.StepSecurity); len(errs) > 0 {
		return errs, nil
	}
	d.PAN = strings.ToUpper(strings.TrimSpace(d.PAN))
	return nil, nil
}
