package api

import (
	"encoding/json"
	"net/http"

	"rtaportal/internal/middleware"
	"rtaportal/internal/reports"
	"rtaportal/internal/rta"
	"rtaportal/internal/util"
)

// fetchReport pulls one named report for the caller's portal and decodes
// the normalized payload into rows.
func fetchReport[T any](h *Handlers, r *http.Request, name string) ([]T, error) {
	sess, _ := middleware.Session(r.Context())
	raw, err := h.backend.Report(r.Context(), sess.Portal, middleware.BackendToken(r.Context()), name)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (h *Handlers) ReportAssetAllocation(w http.ResponseWriter, r *http.Request) {
	rows, err := fetchReport[rta.AllocationRow](h, r, "asset-allocation")
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 200, map[string]any{"slices": reports.AssetAllocation(rows)})
}

func (h *Handlers) ReportCapitalGains(w http.ResponseWriter, r *http.Request) {
	rows, err := fetchReport[rta.CapitalGainRow](h, r, "capital-gains")
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 200, reports.CapitalGains(rows))
}

func (h *Handlers) ReportUnclaimed(w http.ResponseWriter, r *http.Request) {
	rows, err := fetchReport[rta.UnclaimedRow](h, r, "unclaimed")
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 200, map[string]any{"buckets": reports.UnclaimedAging(rows), "rows": rows})
}

func (h *Handlers) ReportReconciliation(w http.ResponseWriter, r *http.Request) {
	rows, err := fetchReport[rta.ReconciliationRow](h, r, "reconciliation")
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 200, map[string]any{"summary": reports.Reconciliation(rows), "rows": rows})
}
