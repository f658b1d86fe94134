package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"rtaportal/internal/authz"
	"rtaportal/internal/config"
	"rtaportal/internal/middleware"
	"rtaportal/internal/rate"
	"rtaportal/internal/rta"
	"rtaportal/internal/store"
	"rtaportal/internal/util"
	"rtaportal/internal/version"
)

type Handlers struct {
	cfg     config.Config
	st      *store.Store
	backend rta.Client
	limiter *rate.Limiter
	key     []byte
}

const maxDocumentUploadBytes = 10 << 20

func NewRouter(cfg config.Config, st *store.Store, backend rta.Client, key []byte) http.Handler {
	h := &Handlers{
		cfg:     cfg,
		st:      st,
		backend: backend,
		limiter: rate.NewLimiter(),
		key:     key,
	}
	authz.SetSuperAdmin(cfg.SuperAdminEmail)
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-CSRF-Token"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, 200, map[string]any{"status": "ok", "version": version.Current()})
	})
	r.Get("/health/ready", h.Ready)

	authn := middleware.Authn(h.st, h.cfg.SessionCookieName, h.key, h.cfg.SessionIdleDuration())
	csrf := middleware.CSRFFromCookie(h.cfg.CSRFCookieName)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(h.limiter, "login", 20, time.Minute, h.cfg.TrustProxy)).Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(middleware.RateLimit(h.limiter, "reset_request", 10, time.Minute, h.cfg.TrustProxy)).Post("/password/forgot", h.PasswordResetRequest)
			r.Post("/password/reset", h.PasswordResetConfirm)
			r.With(middleware.RateLimit(h.limiter, "verify_otp", 10, time.Minute, h.cfg.TrustProxy)).Post("/verify-otp", h.VerifyOTP)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/me", h.Me)
				r.Get("/permissions", h.MyPermissions)
			})
		})

		r.Route("/register", func(r chi.Router) {
			r.Use(middleware.RateLimit(h.limiter, "register", 60, time.Minute, h.cfg.TrustProxy))
			r.Post("/admin", h.AdminRegister)
			r.Route("/drafts", func(r chi.Router) {
				r.Post("/", h.CreateDraft)
				r.Get("/{id}", h.GetDraft)
				r.Put("/{id}", h.UpdateDraft)
				r.Post("/{id}/next", h.DraftNext)
				r.Post("/{id}/back", h.DraftBack)
				r.Post("/{id}/submit", h.DraftSubmit)
			})
		})

		r.Route("/geo", func(r chi.Router) {
			r.Get("/countries", h.GeoCountries)
			r.Get("/countries/{country}/states", h.GeoStates)
			r.Get("/countries/{country}/states/{state}/cities", h.GeoCities)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/schemes", h.Schemes)
			r.Get("/holdings", h.Holdings)

			r.Route("/transactions", func(r chi.Router) {
				r.Use(csrf)
				r.Post("/sip/review", h.SIPReview)
				r.With(middleware.RateLimit(h.limiter, "sip_confirm", 10, time.Minute, h.cfg.TrustProxy)).Post("/sip", h.SIPConfirm)
				r.Post("/switch/review", h.SwitchReview)
				r.With(middleware.RateLimit(h.limiter, "switch_confirm", 10, time.Minute, h.cfg.TrustProxy)).Post("/switch", h.SwitchConfirm)
			})

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", h.ListDocuments)
				r.Get("/{id}/download", h.DownloadDocument)
				r.With(csrf).Post("/", h.UploadDocument)
				r.With(csrf).Delete("/{id}", h.DeleteResourceItem(rta.ResourceDocuments))
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/asset-allocation", h.ReportAssetAllocation)
				r.Get("/capital-gains", h.ReportCapitalGains)
				r.Get("/unclaimed", h.ReportUnclaimed)
				r.Get("/reconciliation", h.ReportReconciliation)
			})

			for _, res := range []string{
				rta.ResourceBankAccounts,
				rta.ResourceMandates,
				rta.ResourceComplaints,
				rta.ResourceNotifications,
				rta.ResourceAgents,
			} {
				res := res
				r.Route("/"+res, func(r chi.Router) {
					r.Get("/", h.ListResourceItems(res))
					r.Group(func(r chi.Router) {
						r.Use(csrf)
						r.Post("/", h.CreateResourceItem(res))
						r.Put("/{id}", h.UpdateResourceItem(res))
						r.Delete("/{id}", h.DeleteResourceItem(res))
					})
				})
			}

			r.Route("/admin", func(r chi.Router) {
				r.With(middleware.RequirePermission("view_users")).Get("/sessions", h.AdminListSessions)
				r.With(middleware.RequirePermission("view_audit")).Get("/audit", h.AdminAuditLog)
				r.Group(func(r chi.Router) {
					r.Use(csrf)
					r.With(middleware.RequirePermission("view_users")).Post("/sessions/{id}/revoke", h.AdminRevokeSession)
				})
			})
		})
	})

	return r
}

func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ready := map[string]any{
		"checked_at": time.Now().UTC().Format(time.RFC3339),
		"components": map[string]any{},
	}
	comps := ready["components"].(map[string]any)

	ok := true
	if _, _, err := h.st.GetSetting(r.Context(), "schema_version"); err != nil {
		ok = false
		comps["store"] = map[string]any{"ok": false, "error": err.Error()}
	} else {
		comps["store"] = map[string]any{"ok": true}
	}

	if err := h.backend.Probe(r.Context()); err != nil {
		ok = false
		comps["rta_backend"] = map[string]any{"ok": false, "error": err.Error()}
	} else {
		comps["rta_backend"] = map[string]any{"ok": true}
	}

	if ok {
		ready["status"] = "ready"
		util.WriteJSON(w, 200, ready)
		return
	}
	ready["status"] = "degraded"
	util.WriteJSON(w, 503, ready)
}

// backendError translates backend failures into gateway responses. A 401
// from the backend means the stored bearer token is dead: the local session
// is revoked and the browser is told to re-authenticate, so the two sides
// can never disagree about who is logged in.
func (h *Handlers) backendError(w http.ResponseWriter, r *http.Request, err error) {
	rid := middleware.RequestID(r.Context())
	if errors.Is(err, rta.ErrUnauthorized) {
		if sess, ok := middleware.Session(r.Context()); ok {
			_ = h.st.RevokeSession(r.Context(), sess.ID)
		}
		h.clearAuthCookies(w, r)
		util.WriteError(w, http.StatusUnauthorized, "session_invalidated", "backend rejected the session; sign in again", rid)
		return
	}
	var be *rta.BackendError
	if errors.As(err, &be) {
		status := be.Status
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		util.WriteError(w, status, "backend_error", rta.Detail(err), rid)
		return
	}
	util.WriteError(w, http.StatusBadGateway, "backend_unreachable", rta.Detail(err), rid)
}

func parsePagination(r *http.Request) (int, int) {
	page := 1
	pageSize := 25
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil {
			if ps < 1 {
				ps = 1
			}
			if ps > 100 {
				ps = 100
			}
			pageSize = ps
		}
	}
	return page, pageSize
}

func randomToken() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}

func (h *Handlers) setAuthCookies(w http.ResponseWriter, sessionToken, csrfToken string) {
	maxAge := int(h.cfg.SessionAbsoluteDuration().Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CSRFCookieName,
		Value:    csrfToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (h *Handlers) clearAuthCookies(w http.ResponseWriter, r *http.Request) {
	expiredAt := time.Unix(1, 0).UTC()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  expiredAt,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CSRFCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: false,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  expiredAt,
	})
}
