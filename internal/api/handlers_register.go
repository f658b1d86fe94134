package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rtaportal/internal/authz"
	"rtaportal/internal/geo"
	"rtaportal/internal/middleware"
	"rtaportal/internal/models"
	"rtaportal/internal/rta"
	"rtaportal/internal/store"
	"rtaportal/internal/util"
	"rtaportal/internal/wizard"
)

func (h *Handlers) CreateDraft(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	var req struct {
		Portal string `json:"portal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return
	}
	portal := models.Portal(strings.ToLower(strings.TrimSpace(req.Portal)))
	if portal == "" {
		portal = models.PortalInvestor
	}
	if !portal.Valid() || portal == models.PortalAdmin {
		util.WriteError(w, 400, "bad_request", "registration is not available for this portal", rid)
		return
	}
	d, err := h.st.CreateDraft(r.Context(), portal)
	if err != nil {
		util.WriteError(w, 500, "internal_error", "could not create draft", rid)
		return
	}
	util.WriteJSON(w, 201, d)
}

// loadDraft fetches a draft and decrypts its password fields. Drafts past
// the configured TTL are deleted on access and reported as missing.
func (h *Handlers) loadDraft(r *http.Request) (models.RegistrationDraft, error) {
	d, err := h.st.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return models.RegistrationDraft{}, err
	}
	if time.Since(d.UpdatedAt) > h.cfg.DraftTTL() {
		_ = h.st.DeleteDraft(r.Context(), d.ID)
		return models.RegistrationDraft{}, store.ErrNotFound
	}
	if d.Password != "" {
		if d.Password, err = util.DecryptString(h.key, d.Password); err != nil {
			return models.RegistrationDraft{}, err
		}
	}
	if d.ConfirmPassword != "" {
		if d.ConfirmPassword, err = util.DecryptString(h.key, d.ConfirmPassword); err != nil {
			return models.RegistrationDraft{}, err
		}
	}
	return d, nil
}

// saveDraft re-encrypts the password fields before they touch the store.
func (h *Handlers) saveDraft(r *http.Request, d models.RegistrationDraft) error {
	var err error
	if d.Password != "" {
		if d.Password, err = util.EncryptString(h.key, d.Password); err != nil {
			return err
		}
	}
	if d.ConfirmPassword != "" {
		if d.ConfirmPassword, err = util.EncryptString(h.key, d.ConfirmPassword); err != nil {
			return err
		}
	}
	return h.st.SaveDraft(r.Context(), d)
}

func (h *Handlers) writeDraftErr(w http.ResponseWriter, r *http.Request, err error) {
	rid := middleware.RequestID(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		util.WriteError(w, 404, "not_found", "draft not found or expired", rid)
		return
	}
	util.WriteError(w, 500, "internal_error", "draft operation failed", rid)
}

func (h *Handlers) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDraft(r)
	if err != nil {
		h.writeDraftErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, d)
}

func (h *Handlers) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	d, err := h.loadDraft(r)
	if err != nil {
		h.writeDraftErr(w, r, err)
		return
	}
	var u wizard.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return
	}
	wizard.Apply(&d, u)
	if errs := geoFieldErrors(d); len(errs) > 0 {
		util.WriteFieldErrors(w, 422, errs, rid)
		return
	}
	if err := h.saveDraft(r, d); err != nil {
		h.writeDraftErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, d)
}

// geoFieldErrors checks the draft's location against the static catalog.
// Only filled-in fields are checked; emptiness is step validation's job.
func geoFieldErrors(d models.RegistrationDraft) util.FieldErrors {
	errs := util.FieldErrors{}
	if d.Country != "" && !geo.HasCountry(d.Country) {
		errs["country"] = "unknown country"
	}
	if d.State != "" && !geo.HasState(d.Country, d.State) {
		errs["state"] = "state does not belong to the selected country"
	}
	if d.City != "" && !geo.HasCity(d.Country, d.State, d.City) {
		errs["city"] = "city does not belong to the selected state"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (h *Handlers) DraftNext(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	d, err := h.loadDraft(r)
	if err != nil {
		h.writeDraftErr(w, r, err)
		return
	}
	if errs := wizard.Next(&d); len(errs) > 0 {
		util.WriteFieldErrors(w, 422, errs, rid)
		return
	}
	if err := h.saveDraft(r, d); err != nil {
		h.writeDraftErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, d)
}

func (h *Handlers) DraftBack(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDraft(r)
	if err != nil {
		h.writeDraftErr(w, r, err)
		return
	}
	wizard.Back(&d)
	if err := h.saveDraft(r, d); err != nil {
		h.writeDraftErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, d)
}

func (h *Handlers) DraftSubmit(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	d, err := h.loadDraft(r)
	if err != nil {
		h.writeDraftErr(w, r, err)
		return
	}
	errs, err := wizard.Finalize(&d)
	if errors.Is(err, wizard.ErrNotLastStep) {
		util.WriteError(w, 409, "draft_incomplete", "complete all steps before submitting", rid)
		return
	}
	if len(errs) > 0 {
		util.WriteFieldErrors(w, 422, errs, rid)
		return
	}
	payload := rta.RegistrationPayload{
		FullName:    d.FullName,
		PAN:         d.PAN,
		DateOfBirth: d.DateOfBirth,
		Gender:      d.Gender,
		Email:       d.Email,
		Mobile:      d.Mobile,
		Country:     d.Country,
		State:       d.State,
		City:        d.City,
		Address:     d.Address,
		Pincode:     d.Pincode,
		Password:    d.Password,
	}
	if err := h.backend.Register(r.Context(), d.Portal, payload); err != nil {
		h.backendError(w, r, err)
		return
	}
	_ = h.st.DeleteDraft(r.Context(), d.ID)
	util.WriteJSON(w, 201, map[string]string{"status": "registered", "email": d.Email})
}

// AdminRegister creates an RTA official account. Unlike the investor wizard
// this is a single form; the corporate secret key proves the caller is
// entitled to an admin account and is checked by the backend, not here.
func (h *Handlers) AdminRegister(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	var req struct {
		FullName        string `json:"full_name"`
		Email           string `json:"email"`
		EmployeeID      string `json:"employee_id"`
		SubRole         string `json:"sub_role"`
		SecretKey       string `json:"secret_key"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return
	}

	errs := util.FieldErrors{}
	if strings.TrimSpace(req.FullName) == "" {
		errs["full_name"] = "full name is required"
	}
	if !wizard.ValidEmail(req.Email) {
		errs["email"] = "a valid email is required"
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		errs["employee_id"] = "employee id is required"
	}
	if !authz.KnownSubRole(req.SubRole) {
		errs["sub_role"] = "select a valid role"
	}
	if strings.TrimSpace(req.SecretKey) == "" {
		errs["secret_key"] = "corporate secret key is required"
	}
	if len(req.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	} else if req.Password != req.ConfirmPassword {
		errs["confirm_password"] = "passwords do not match"
	}
	if len(errs) > 0 {
		util.WriteFieldErrors(w, 422, errs, rid)
		return
	}

	payload := rta.AdminRegistration{
		FullName:   strings.TrimSpace(req.FullName),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		SubRole:    req.SubRole,
		SecretKey:  req.SecretKey,
		Password:   req.Password,
	}
	if err := h.backend.RegisterAdmin(r.Context(), payload); err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 201, map[string]string{"status": "registered", "email": payload.Email})
}
