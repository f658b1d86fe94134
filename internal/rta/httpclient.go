package rta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"rtaportal/internal/config"
	"rtaportal/internal/models"
)

type HTTPClient struct {
	base string
	hc   *http.Client
}

func NewHTTPClient(cfg config.Config) *HTTPClient {
	return &HTTPClient{
		base: strings.TrimRight(cfg.BackendBaseURL, "/"),
		hc:   &http.Client{Timeout: cfg.BackendTimeout()},
	}
}

// portalPrefix builds the backend path prefix for a portal, e.g.
// /api/investor or /api/admin.
func portalPrefix(portal models.Portal) string {
	return "/api/" + string(portal)
}

// normalizeEnvelope unwraps the backend's inconsistent response shapes
// ({data: T}, bare T, or {<collection>: T[]}) into the payload itself. This
// is the single place that tolerance lives; everything downstream sees one
// canonical shape.
func normalizeEnvelope(body []byte, collection string) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return trimmed
	}
	if data, ok := obj["data"]; ok {
		return data
	}
	if collection != "" {
		if data, ok := obj[collection]; ok {
			return data
		}
	}
	return trimmed
}

func decodeItems(payload json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode list payload: %w", err)
	}
	return items, nil
}

// do issues one request and maps non-2xx responses to errors. 401 becomes
// ErrUnauthorized so the session layer can force a logout; other statuses
// carry the backend's detail text.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{Status: resp.StatusCode, Detail: decodeDetail(payload)}
	}
	return payload, nil
}

func decodeDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}
	// FastAPI-style validation errors arrive as a list of {loc, msg}.
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			locs := make([]string, 0, len(it.Loc))
			for _, l := range it.Loc {
				locs = append(locs, fmt.Sprintf("%v", l))
			}
			parts = append(parts, strings.Join(locs, ".")+": "+it.Msg)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func (c *HTTPClient) Login(ctx context.Context, portal models.Portal, identifier, password string) (string, models.User, error) {
	body, err := c.do(ctx, http.MethodPost, portalPrefix(portal)+"/auth/login", "", map[string]string{
		"email":    identifier,
		"password": password,
		"portal":   string(portal),
	})
	if err != nil {
		return "", models.User{}, err
	}
	var out struct {
		AccessToken string      `json:"access_token"`
		User        models.User `json:"user"`
	}
	if err := json.Unmarshal(normalizeEnvelope(body, ""), &out); err != nil {
		return "", models.User{}, fmt.Errorf("decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return "", models.User{}, fmt.Errorf("login response missing access token")
	}
	user := out.User
	if user.Role == "" {
		user.Role = string(portal)
	}
	return out.AccessToken, user, nil
}

func (c *HTTPClient) Register(ctx context.Context, portal models.Portal, payload RegistrationPayload) error {
	_, err := c.do(ctx, http.MethodPost, portalPrefix(portal)+"/auth/register", "", payload)
	return err
}

func (c *HTTPClient) RegisterAdmin(ctx context.Context, payload AdminRegistration) error {
	_, err := c.do(ctx, http.MethodPost, portalPrefix(models.PortalAdmin)+"/auth/register", "", payload)
	return err
}

func (c *HTTPClient) Profile(ctx context.Context, portal models.Portal, token string) (models.User, error) {
	path := portalPrefix(portal) + "/profile"
	if portal == models.PortalAdmin {
		path = portalPrefix(portal) + "/auth/me"
	}
	body, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return models.User{}, err
	}
	payload := normalizeEnvelope(body, "")
	// Some profile endpoints nest the record one level deeper.
	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}
	var user models.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return models.User{}, fmt.Errorf("decode profile: %w", err)
	}
	return user, nil
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, portal models.Portal, email string) error {
	_, err := c.do(ctx, http.MethodPost, portalPrefix(portal)+"/auth/forgot-password", "", map[string]string{"email": email})
	return err
}

func (c *HTTPClient) ConfirmPasswordReset(ctx context.Context, portal models.Portal, resetToken, newPassword string) error {
	_, err := c.do(ctx, http.MethodPost, portalPrefix(portal)+"/auth/reset-password", "", map[string]string{
		"token":        resetToken,
		"new_password": newPassword,
	})
	return err
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, portal models.Portal, identifier, code string) error {
	_, err := c.do(ctx, http.MethodPost, portalPrefix(portal)+"/auth/verify-otp", "", map[string]string{
		"email": identifier,
		"otp":   code,
	})
	return err
}

func (c *HTTPClient) ListResource(ctx context.Context, portal models.Portal, token, resource string) ([]json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, portalPrefix(portal)+"/"+resource, token, nil)
	if err != nil {
		return nil, err
	}
	return decodeItems(normalizeEnvelope(body, collectionKey(resource)))
}

func (c *HTTPClient) CreateResource(ctx context.Context, portal models.Portal, token, resource string, reqBody any) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPost, portalPrefix(portal)+"/"+resource, token, reqBody)
	if err != nil {
		return nil, err
	}
	return normalizeEnvelope(body, ""), nil
}

func (c *HTTPClient) UpdateResource(ctx context.Context, portal models.Portal, token, resource, id string, reqBody any) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPut, portalPrefix(portal)+"/"+resource+"/"+id, token, reqBody)
	if err != nil {
		return nil, err
	}
	return normalizeEnvelope(body, ""), nil
}

func (c *HTTPClient) DeleteResource(ctx context.Context, portal models.Portal, token, resource, id string) error {
	_, err := c.do(ctx, http.MethodDelete, portalPrefix(portal)+"/"+resource+"/"+id, token, nil)
	return err
}

// collectionKey maps a resource path segment to the envelope key some
// backend revisions use instead of "data", e.g. {"bank_accounts": [...]}.
func collectionKey(resource string) string {
	return strings.ReplaceAll(resource, "-", "_")
}

func (c *HTTPClient) BankAccounts(ctx context.Context, token string) ([]BankAccount, error) {
	items, err := c.ListResource(ctx, models.PortalInvestor, token, ResourceBankAccounts)
	if err != nil {
		return nil, err
	}
	out := make([]BankAccount, 0, len(items))
	for _, raw := range items {
		var acct BankAccount
		if err := json.Unmarshal(raw, &acct); err != nil {
			return nil, fmt.Errorf("decode bank account: %w", err)
		}
		out = append(out, acct)
	}
	return out, nil
}

func (c *HTTPClient) Schemes(ctx context.Context, token string) ([]Scheme, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/investor/schemes", token, nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(normalizeEnvelope(body, "schemes"))
	if err != nil {
		return nil, err
	}
	out := make([]Scheme, 0, len(items))
	for _, raw := range items {
		var s Scheme
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode scheme: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *HTTPClient) Holdings(ctx context.Context, token string) ([]Holding, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/investor/folios/holdings", token, nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(normalizeEnvelope(body, "holdings"))
	if err != nil {
		return nil, err
	}
	out := make([]Holding, 0, len(items))
	for _, raw := range items {
		var h Holding
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("decode holding: %w", err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (c *HTTPClient) SubmitSIP(ctx context.Context, token string, req SIPRequest) (SIPReceipt, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/investor/transactions/sip", token, req)
	if err != nil {
		return SIPReceipt{}, err
	}
	var receipt SIPReceipt
	if err := json.Unmarshal(normalizeEnvelope(body, ""), &receipt); err != nil {
		return SIPReceipt{}, fmt.Errorf("decode sip receipt: %w", err)
	}
	return receipt, nil
}

func (c *HTTPClient) SubmitSwitch(ctx context.Context, token string, req SwitchRequest) (SwitchReceipt, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/investor/transactions/switch", token, req)
	if err != nil {
		return SwitchReceipt{}, err
	}
	var receipt SwitchReceipt
	if err := json.Unmarshal(normalizeEnvelope(body, ""), &receipt); err != nil {
		return SwitchReceipt{}, fmt.Errorf("decode switch receipt: %w", err)
	}
	return receipt, nil
}

func (c *HTTPClient) Report(ctx context.Context, portal models.Portal, token, name string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, portalPrefix(portal)+"/reports/"+name, token, nil)
	if err != nil {
		return nil, err
	}
	return normalizeEnvelope(body, strings.ReplaceAll(name, "-", "_")), nil
}

func (c *HTTPClient) UploadDocument(ctx context.Context, token, filename, contentType string, file io.Reader, fields map[string]string) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/investor/documents", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{Status: resp.StatusCode, Detail: decodeDetail(payload)}
	}
	return normalizeEnvelope(payload, ""), nil
}

func (c *HTTPClient) DownloadDocument(ctx context.Context, token, id string) (DocumentMeta, io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/investor/documents/"+id+"/download", nil)
	if err != nil {
		return DocumentMeta{}, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.hc.Do(req)
	if err != nil {
		return DocumentMeta{}, nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return DocumentMeta{}, nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		return DocumentMeta{}, nil, &BackendError{Status: resp.StatusCode, Detail: decodeDetail(payload)}
	}
	meta := DocumentMeta{
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition"), id),
	}
	return meta, resp.Body, nil
}

func filenameFromDisposition(disposition, fallback string) string {
	const marker = `filename="`
	if i := strings.Index(disposition, marker); i >= 0 {
		rest := disposition[i+len(marker):]
		if j := strings.Index(rest, `"`); j >= 0 {
			return rest[:j]
		}
	}
	return fallback
}

// Probe checks backend reachability for readiness reporting. A short bound
// keeps a dead backend from stalling the health endpoint.
func (c *HTTPClient) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("backend health returned status %d", resp.StatusCode)
	}
	return nil
}
