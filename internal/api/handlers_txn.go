package api

import (
	"encoding/json"
	"net/http"

	"rtaportal/internal/middleware"
	"rtaportal/internal/txn"
	"rtaportal/internal/util"
)

func (h *Handlers) Schemes(w http.ResponseWriter, r *http.Request) {
	items, err := h.backend.Schemes(r.Context(), middleware.BackendToken(r.Context()))
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 200, map[string]any{"items": items})
}

func (h *Handlers) Holdings(w http.ResponseWriter, r *http.Request) {
	items, err := h.backend.Holdings(r.Context(), middleware.BackendToken(r.Context()))
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 200, map[string]any{"items": items})
}

// reviewSIP runs the shared validation for both the review and the confirm
// endpoints against fresh backend data, so a stale browser snapshot can
// never sneak an invalid instruction through.
func (h *Handlers) reviewSIP(w http.ResponseWriter, r *http.Request) (txn.SIPForm, txn.SIPReview, bool) {
	rid := middleware.RequestID(r.Context())
	var form txn.SIPForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return form, txn.SIPReview{}, false
	}
	token := middleware.BackendToken(r.Context())
	schemes, err := h.backend.Schemes(r.Context(), token)
	if err != nil {
		h.backendError(w, r, err)
		return form, txn.SIPReview{}, false
	}
	accounts, err := h.backend.BankAccounts(r.Context(), token)
	if err != nil {
		h.backendError(w, r, err)
		return form, txn.SIPReview{}, false
	}
	review, errs := txn.ReviewSIP(form, schemes, accounts)
	if len(errs) > 0 {
		util.WriteFieldErrors(w, 422, errs, rid)
		return form, txn.SIPReview{}, false
	}
	return form, review, true
}

func (h *Handlers) SIPReview(w http.ResponseWriter, r *http.Request) {
	_, review, ok := h.reviewSIP(w, r)
	if !ok {
		return
	}
	util.WriteJSON(w, 200, review)
}

func (h *Handlers) SIPConfirm(w http.ResponseWriter, r *http.Request) {
	form, _, ok := h.reviewSIP(w, r)
	if !ok {
		return
	}
	receipt, err := h.backend.SubmitSIP(r.Context(), middleware.BackendToken(r.Context()), form.SIPRequest())
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	u, _ := middleware.User(r.Context())
	h.audit(r, u, "sip_registered", "sip:"+receipt.RegistrationID, "")
	util.WriteJSON(w, 201, receipt)
}

func (h *Handlers) reviewSwitch(w http.ResponseWriter, r *http.Request) (txn.SwitchForm, txn.SwitchReview, bool) {
	rid := middleware.RequestID(r.Context())
	var form txn.SwitchForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return form, txn.SwitchReview{}, false
	}
	token := middleware.BackendToken(r.Context())
	schemes, err := h.backend.Schemes(r.Context(), token)
	if err != nil {
		h.backendError(w, r, err)
		return form, txn.SwitchReview{}, false
	}
	holdings, err := h.backend.Holdings(r.Context(), token)
	if err != nil {
		h.backendError(w, r, err)
		return form, txn.SwitchReview{}, false
	}
	review, errs := txn.ReviewSwitch(form, schemes, holdings)
	if len(errs) > 0 {
		util.WriteFieldErrors(w, 422, errs, rid)
		return form, txn.SwitchReview{}, false
	}
	return form, review, true
}

func (h *Handlers) SwitchReview(w http.ResponseWriter, r *http.Request) {
	_, review, ok := h.reviewSwitch(w, r)
	if !ok {
		return
	}
	util.WriteJSON(w, 200, review)
}

func (h *Handlers) SwitchConfirm(w http.ResponseWriter, r *http.Request) {
	form, review, ok := h.reviewSwitch(w, r)
	if !ok {
		return
	}
	req := form.SwitchRequest(review.FolioNumber)
	receipt, err := h.backend.SubmitSwitch(r.Context(), middleware.BackendToken(r.Context()), req)
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	u, _ := middleware.User(r.Context())
	h.audit(r, u, "switch_submitted", "switch:"+receipt.TransactionID, "")
	util.WriteJSON(w, 201, receipt)
}
