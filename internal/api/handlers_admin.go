package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rtaportal/internal/middleware"
	"rtaportal/internal/models"
	"rtaportal/internal/store"
	"rtaportal/internal/util"
)

type sessionDTO struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	UserEmail  string        `json:"user_email,omitempty"`
	Portal     models.Portal `json:"portal"`
	IPHint     string        `json:"ip_hint"`
	CreatedAt  string        `json:"created_at"`
	LastSeenAt string        `json:"last_seen_at"`
	ExpiresAt  string        `json:"expires_at"`
	Revoked    bool          `json:"revoked"`
}

func (h *Handlers) AdminListSessions(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	page, pageSize := parsePagination(r)
	sessions, err := h.st.ListSessions(r.Context(), models.SessionQuery{
		IncludeClosed: r.URL.Query().Get("include_closed") == "true",
		Limit:         pageSize,
		Offset:        (page - 1) * pageSize,
	})
	if err != nil {
		util.WriteError(w, 500, "internal_error", "could not list sessions", rid)
		return
	}
	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		dto := sessionDTO{
			ID:         s.ID,
			UserID:     s.UserID,
			Portal:     s.Portal,
			IPHint:     s.IPHint,
			CreatedAt:  s.CreatedAt.Format("2006-01-02T15:04:05Z"),
			LastSeenAt: s.LastSeenAt.Format("2006-01-02T15:04:05Z"),
			ExpiresAt:  s.ExpiresAt.Format("2006-01-02T15:04:05Z"),
			Revoked:    s.RevokedAt != nil,
		}
		var u models.User
		if err := json.Unmarshal([]byte(s.UserJSON), &u); err == nil {
			dto.UserEmail = u.Email
		}
		out = append(out, dto)
	}
	util.WriteJSON(w, 200, map[string]any{"items": out, "page": page, "page_size": pageSize})
}

func (h *Handlers) AdminRevokeSession(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	id := chi.URLParam(r, "id")
	if _, err := h.st.GetSessionByID(r.Context(), id); err != nil {
		if err == store.ErrNotFound {
			util.WriteError(w, 404, "not_found", "session not found", rid)
			return
		}
		util.WriteError(w, 500, "internal_error", "could not load session", rid)
		return
	}
	if err := h.st.RevokeSession(r.Context(), id); err != nil {
		util.WriteError(w, 500, "internal_error", "could not revoke session", rid)
		return
	}
	admin, _ := middleware.User(r.Context())
	h.audit(r, admin, "session_revoked", "session:"+id, "")
	util.WriteJSON(w, 200, map[string]string{"status": "revoked"})
}

func (h *Handlers) AdminAuditLog(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	page, pageSize := parsePagination(r)
	items, err := h.st.ListAudit(r.Context(), models.AuditQuery{
		Action: r.URL.Query().Get("action"),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		util.WriteError(w, 500, "internal_error", "could not list audit entries", rid)
		return
	}
	if items == nil {
		items = []models.AuditEntry{}
	}
	util.WriteJSON(w, 200, map[string]any{"items": items, "page": page, "page_size": pageSize})
}
