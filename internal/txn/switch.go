package txn

import (
	"fmt"
	"strings"

	"rtaportal/internal/rta"
	"rtaportal/internal/util"
)

const (
	SwitchModeAmount = "amount"
	SwitchModeUnits  = "units"
	SwitchModeAll    = "all"
)

type SwitchForm struct {
	SourceSchemeID string  `json:"source_scheme_id"`
	TargetSchemeID string  `json:"target_scheme_id"`
	Mode           string  `json:"mode"`
	Amount         float64 `json:"amount"`
	Units          float64 `json:"units"`
}

type SwitchReview struct {
	SourceSchemeID   string  `json:"source_scheme_id"`
	SourceSchemeName string  `json:"source_scheme_name"`
	TargetSchemeID   string  `json:"target_scheme_id"`
	TargetSchemeName string  `json:"target_scheme_name"`
	FolioNumber      string  `json:"folio_number"`
	Mode             string  `json:"mode"`
	Amount           float64 `json:"amount,omitempty"`
	Units            float64 `json:"units,omitempty"`
}

// ReviewSwitch validates a switch instruction against the investor's
// holdings: distinct source and target, a held source position, and enough
// balance or units for the chosen mode. "all" needs only a non-empty
// position.
func ReviewSwitch(form SwitchForm, schemes []rta.Scheme, holdings []rta.Holding) (SwitchReview, util.FieldErrors) {
	errs := util.FieldErrors{}

	name := func(id string) string {
		for _, s := range schemes {
			if s.ID == id {
				return s.Name
			}
		}
		return ""
	}

	if strings.TrimSpace(form.SourceSchemeID) == "" {
		errs["source_scheme_id"] = "Select a source scheme"
	} else if name(form.SourceSchemeID) == "" {
		errs["source_scheme_id"] = "Unknown scheme"
	}
	if strings.TrimSpace(form.TargetSchemeID) == "" {
		errs["target_scheme_id"] = "Select a target scheme"
	} else if name(form.TargetSchemeID) == "" {
		errs["target_scheme_id"] = "Unknown scheme"
	}
	if form.SourceSchemeID != "" && form.SourceSchemeID == form.TargetSchemeID {
		errs["target_scheme_id"] = "Source and target schemes must differ"
	}

	var held *rta.Holding
	for i := range holdings {
		if holdings[i].SchemeID == form.SourceSchemeID {
			held = &holdings[i]
			break
		}
	}
	if held == nil && form.SourceSchemeID != "" && name(form.SourceSchemeID) != "" {
		errs["source_scheme_id"] = "You hold no units in the source scheme"
	}

	switch form.Mode {
	case SwitchModeAmount:
		if form.Amount <= 0 {
			errs["amount"] = "Enter an amount to switch"
		} else if held != nil && form.Amount > held.Value {
			errs["amount"] = fmt.Sprintf("Insufficient balance: available %.2f", held.Value)
		}
	case SwitchModeUnits:
		if form.Units <= 0 {
			errs["units"] = "Enter the units to switch"
		} else if held != nil && form.Units > held.Units {
			errs["units"] = fmt.Sprintf("Insufficient units: available %.4f", held.Units)
		}
	case SwitchModeAll:
		if held != nil && held.Units <= 0 {
			errs["source_scheme_id"] = "Nothing to switch in the source scheme"
		}
	default:
		errs["mode"] = "Switch mode must be amount, units or all"
	}

	if len(errs) > 0 {
		return SwitchReview{}, errs
	}
	review := SwitchReview{
		SourceSchemeID:   form.SourceSchemeID,
		SourceSchemeName: name(form.SourceSchemeID),
		TargetSchemeID:   form.TargetSchemeID,
		TargetSchemeName: name(form.TargetSchemeID),
		FolioNumber:      held.FolioNumber,
		Mode:             form.Mode,
		Amount:           form.Amount,
		Units:            form.Units,
	}
	if form.Mode == SwitchModeAll {
		review.Units = held.Units
	}
	return review, nil
}

func (f SwitchForm) SwitchRequest(folio string) rta.SwitchRequest {
	return rta.SwitchRequest{
		SourceSchemeID: f.SourceSchemeID,
		TargetSchemeID: f.TargetSchemeID,
		FolioNumber:    folio,
		Mode:           f.Mode,
		Amount:         f.Amount,
		Units:          f.Units,
	}
}
