package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rtaportal/internal/geo"
	"rtaportal/internal/middleware"
	"rtaportal/internal/util"
)

func (h *Handlers) GeoCountries(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, 200, map[string]any{"items": geo.Countries()})
}

func (h *Handlers) GeoStates(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	if !geo.HasCountry(country) {
		util.WriteError(w, 404, "not_found", "unknown country", middleware.RequestID(r.Context()))
		return
	}
	util.WriteJSON(w, 200, map[string]any{"items": geo.StatesOf(country)})
}

func (h *Handlers) GeoCities(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	state := chi.URLParam(r, "state")
	if !geo.HasState(country, state) {
		util.WriteError(w, 404, "not_found", "unknown state", middleware.RequestID(r.Context()))
		return
	}
	util.WriteJSON(w, 200, map[string]any{"items": geo.CitiesOf(country, state)})
}
