package wizard

import (
	"regexp"
	"strings"

	"rtaportal/internal/models"
	"rtaportal/internal/util"
)

var (
	panRx    = regexp.MustCompile(`^[A-Za-z]{5}[0-9]{4}[A-Za-z]$`)
	emailRx  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRx = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// passwordSymbols is the punctuation set a password must draw its symbol
// from. Kept in lockstep with the backend's policy.
const passwordSymbols = `!@#$%^&*()_-+=<>?{}[]~`

func ValidName(v string) bool {
	return len(strings.TrimSpace(v)) >= 2
}

// ValidPAN accepts mixed case; normalization to uppercase happens at
// submit, not on every keystroke.
func ValidPAN(v string) bool {
	return panRx.MatchString(strings.TrimSpace(v))
}

func ValidEmail(v string) bool {
	return emailRx.MatchString(strings.TrimSpace(v))
}

func ValidMobile(v string) bool {
	return mobileRx.MatchString(strings.TrimSpace(v))
}

func ValidAddress(v string) bool {
	return len(strings.TrimSpace(v)) >= 5
}

// ValidPincode is intentionally loose (length only) so non-Indian postal
// codes pass.
func ValidPincode(v string) bool {
	return len(strings.TrimSpace(v)) >= 4
}

func ValidPassword(v string) bool {
	if len(v) < 8 {
		return false
	}
	var upper, digit, symbol bool
	for _, r := range v {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && digit && symbol
}

// ValidateStep runs only the named step's validators against the draft and
// returns per-field messages. An empty map means the step passes.
func ValidateStep(d models.RegistrationDraft, step models.WizardStep) util.FieldErrors {
	errs := util.FieldErrors{}
	switch step {
	case models.StepIdentity:
		if !ValidName(d.FullName) {
			errs["full_name"] = "Full name must be at least 2 characters"
		}
		if !ValidPAN(d.PAN) {
			errs["pan_number"] = "Invalid PAN format (e.g., ABCDE1234F)"
		}
		if strings.TrimSpace(d.DateOfBirth) == "" {
			errs["date_of_birth"] = "Date of birth is required"
		}
		if strings.TrimSpace(d.Gender) == "" {
			errs["gender"] = "Gender is required"
		}
	case models.StepContact:
		if !ValidEmail(d.Email) {
			errs["email"] = "Invalid email address"
		}
		if !ValidMobile(d.Mobile) {
			errs["mobile_number"] = "Mobile number must be 10-15 digits, optionally prefixed with +"
		}
		if strings.TrimSpace(d.Country) == "" {
			errs["country"] = "Country is required"
		}
		if strings.TrimSpace(d.State) == "" {
			errs["state"] = "State is required"
		}
		if strings.TrimSpace(d.City) == "" {
			errs["city"] = "City is required"
		}
		if !ValidAddress(d.Address) {
			errs["address_line1"] = "Address must be at least 5 characters"
		}
		if !ValidPincode(d.Pincode) {
			errs["pincode"] = "Postal code must be at least 4 characters"
		}
	case models.StepSecurity:
		if !ValidPassword(d.Password) {
			errs["password"] = "Password must be at least 8 characters with an uppercase letter, a number and a special character"
		}
		if d.Password != d.ConfirmPassword {
			errs["confirm_password"] = "Passwords do not match"
		}
		if !d.TermsAccepted {
			errs["terms"] = "You must accept the Terms & Conditions"
		}
	}
	return errs
}
