package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"rtaportal/internal/auth"
	"rtaportal/internal/authz"
	"rtaportal/internal/middleware"
	"rtaportal/internal/models"
	"rtaportal/internal/rta"
	"rtaportal/internal/util"
)

type loginRequest struct {
	Portal     string `json:"portal"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return
	}
	portal := models.Portal(strings.ToLower(strings.TrimSpace(req.Portal)))
	if !portal.Valid() {
		util.WriteError(w, 400, "bad_request", "unknown portal", rid)
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		util.WriteError(w, 400, "bad_request", "identifier and password are required", rid)
		return
	}

	ip := middleware.ClientIP(r, h.cfg.TrustProxy)
	failKey := ip + "|" + strings.ToLower(strings.TrimSpace(req.Identifier))

	token, user, err := h.backend.Login(r.Context(), portal, req.Identifier, req.Password)
	if err != nil {
		windowStart := time.Now().UTC().Truncate(15 * time.Minute)
		failCount, _ := h.st.IncrementRateEvent(r.Context(), failKey, "login_failed", windowStart)
		_ = h.st.CleanupRateEventsBefore(r.Context(), time.Now().UTC().Add(-24*time.Hour))
		if failCount > 3 {
			backoff := time.Duration(1<<minInt(failCount-3, 5)) * time.Second
			select {
			case <-time.After(backoff):
			case <-r.Context().Done():
			}
		}
		if errors.Is(err, rta.ErrUnauthorized) {
			status, code := 401, "invalid_credentials"
			if failCount > 6 {
				status, code = 429, "rate_limited"
			}
			util.WriteError(w, status, code, "invalid identifier or password", rid)
			return
		}
		h.backendError(w, r, err)
		return
	}
	_ = h.st.DeleteRateEvents(r.Context(), failKey, "login_failed")
	h.limiter.Reset("login:" + ip)

	// The backend JWT is opaque to browsers but readable here; fill in role
	// fields the login response may have omitted, and keep its expiry so the
	// local session never outlives the token it wraps.
	var tokenExpiry time.Time
	if claims, err := auth.PeekClaims(token); err == nil {
		tokenExpiry = claims.Expires
		if user.Role == "" {
			user.Role = claims.Role
		}
		if user.SubRole == "" {
			user.SubRole = claims.SubRole
		}
	}

	sess, rawToken, csrfToken, err := h.newSession(r, portal, token, user, tokenExpiry)
	if err != nil {
		log.Printf("session create failed portal=%s user=%s request_id=%s err=%v", portal, user.ID, rid, err)
		util.WriteError(w, 500, "internal_error", "could not establish session", rid)
		return
	}
	h.audit(r, user, "login", "session:"+sess.ID, "")

	h.setAuthCookies(w, rawToken, csrfToken)
	out := map[string]any{"user": user, "portal": portal, "csrf_token": csrfToken}
	if portal == models.PortalAdmin {
		out["permissions"] = authz.Permissions(user)
	}
	util.WriteJSON(w, 200, out)
}

func (h *Handlers) newSession(r *http.Request, portal models.Portal, backendToken string, user models.User, tokenExpiry time.Time) (models.Session, string, string, error) {
	rawToken, tokenHash, err := auth.NewOpaqueToken()
	if err != nil {
		return models.Session{}, "", "", err
	}
	secret, err := util.EncryptString(h.key, backendToken)
	if err != nil {
		return models.Session{}, "", "", err
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return models.Session{}, "", "", err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(h.cfg.SessionAbsoluteDuration())
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}
	sess := models.Session{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Portal:        portal,
		TokenHash:     tokenHash,
		BackendSecret: secret,
		UserJSON:      string(userJSON),
		IPHint:        middleware.ClientIP(r, h.cfg.TrustProxy),
		UserAgentHash: auth.HashToken(r.UserAgent()),
		ExpiresAt:     expiresAt,
		IdleExpiresAt: now.Add(h.cfg.SessionIdleDuration()),
		CreatedAt:     now,
		LastSeenAt:    now,
	}
	if err := h.st.CreateSession(r.Context(), sess); err != nil {
		return models.Session{}, "", "", err
	}
	return sess, rawToken, randomToken(), nil
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	c, _ := r.Cookie(h.cfg.SessionCookieName)
	if c != nil && c.Value != "" {
		if sess, err := h.st.GetSessionByTokenHash(r.Context(), auth.HashToken(c.Value)); err == nil {
			_ = h.st.RevokeSession(r.Context(), sess.ID)
		}
	}
	h.clearAuthCookies(w, r)
	util.WriteJSON(w, 200, map[string]string{"status": "ok"})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.User(r.Context())
	sess, _ := middleware.Session(r.Context())
	util.WriteJSON(w, 200, map[string]any{"user": u, "portal": sess.Portal})
}

// MyPermissions returns the menu-visibility hints for the signed-in admin
// user. Endpoint enforcement happens in middleware on each admin route;
// this list only drives what the client renders.
func (h *Handlers) MyPermissions(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.User(r.Context())
	util.WriteJSON(w, 200, map[string]any{"permissions": authz.Permissions(u)})
}

func (h *Handlers) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	var req struct {
		Portal string `json:"portal"`
		Email  string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return
	}
	portal := models.Portal(strings.ToLower(strings.TrimSpace(req.Portal)))
	if !portal.Valid() {
		util.WriteError(w, 400, "bad_request", "unknown portal", rid)
		return
	}
	// Always accepted: whether the address exists is not revealed.
	if err := h.backend.RequestPasswordReset(r.Context(), portal, req.Email); err != nil {
		log.Printf("password reset request failed portal=%s request_id=%s err=%v", portal, rid, err)
	}
	util.WriteJSON(w, 200, map[string]string{"status": "accepted"})
}

func (h *Handlers) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	var req struct {
		Portal      string `json:"portal"`
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return
	}
	portal := models.Portal(strings.ToLower(strings.TrimSpace(req.Portal)))
	if !portal.Valid() {
		util.WriteError(w, 400, "bad_request", "unknown portal", rid)
		return
	}
	if err := h.backend.ConfirmPasswordReset(r.Context(), portal, req.Token, req.NewPassword); err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 200, map[string]string{"status": "updated"})
}

func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	var req struct {
		Portal     string `json:"portal"`
		Identifier string `json:"identifier"`
		Code       string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid json", rid)
		return
	}
	portal := models.Portal(strings.ToLower(strings.TrimSpace(req.Portal)))
	if !portal.Valid() {
		util.WriteError(w, 400, "bad_request", "unknown portal", rid)
		return
	}
	if err := h.backend.VerifyOTP(r.Context(), portal, req.Identifier, req.Code); err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 200, map[string]string{"status": "verified"})
}

func (h *Handlers) audit(r *http.Request, actor models.User, action, target, metadataJSON string) {
	if err := h.st.InsertAudit(r.Context(), actor.ID, actor.Email, action, target, metadataJSON); err != nil {
		log.Printf("audit insert failed action=%s err=%v", action, err)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
