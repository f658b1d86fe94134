package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rtaportal/internal/middleware"
	"rtaportal/internal/rta"
	"rtaportal/internal/util"
)

// Collection endpoints proxy the backend per-portal. Every mutation is
// followed by a fresh list fetch in the same request, so the browser always
// renders backend truth rather than a locally patched copy.

func (h *Handlers) ListResourceItems(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := middleware.Session(r.Context())
		items, err := h.backend.ListResource(r.Context(), sess.Portal, middleware.BackendToken(r.Context()), resource)
		if err != nil {
			h.backendError(w, r, err)
			return
		}
		util.WriteJSON(w, 200, rta.Collection{Items: emptyIfNil(items)})
	}
}

func (h *Handlers) CreateResourceItem(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := middleware.RequestID(r.Context())
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			util.WriteError(w, 400, "bad_request", "invalid json", rid)
			return
		}
		sess, _ := middleware.Session(r.Context())
		token := middleware.BackendToken(r.Context())
		created, err := h.backend.CreateResource(r.Context(), sess.Portal, token, resource, body)
		if err != nil {
			h.backendError(w, r, err)
			return
		}
		u, _ := middleware.User(r.Context())
		h.audit(r, u, "resource_created", resource, "")
		items, err := h.backend.ListResource(r.Context(), sess.Portal, token, resource)
		if err != nil {
			h.backendError(w, r, err)
			return
		}
		util.WriteJSON(w, 201, map[string]any{"created": created, "items": emptyIfNil(items)})
	}
}

func (h *Handlers) UpdateResourceItem(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := middleware.RequestID(r.Context())
		id := chi.URLParam(r, "id")
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			util.WriteError(w, 400, "bad_request", "invalid json", rid)
			return
		}
		sess, _ := middleware.Session(r.Context())
		token := middleware.BackendToken(r.Context())
		updated, err := h.backend.UpdateResource(r.Context(), sess.Portal, token, resource, id, body)
		if err != nil {
			h.backendError(w, r, err)
			return
		}
		u, _ := middleware.User(r.Context())
		h.audit(r, u, "resource_updated", resource+":"+id, "")
		items, err := h.backend.ListResource(r.Context(), sess.Portal, token, resource)
		if err != nil {
			h.backendError(w, r, err)
			return
		}
		util.WriteJSON(w, 200, map[string]any{"updated": updated, "items": emptyIfNil(items)})
	}
}

func (h *Handlers) DeleteResourceItem(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, _ := middleware.Session(r.Context())
		token := middleware.BackendToken(r.Context())
		if err := h.backend.DeleteResource(r.Context(), sess.Portal, token, resource, id); err != nil {
			h.backendError(w, r, err)
			return
		}
		u, _ := middleware.User(r.Context())
		h.audit(r, u, "resource_deleted", resource+":"+id, "")
		items, err := h.backend.ListResource(r.Context(), sess.Portal, token, resource)
		if err != nil {
			h.backendError(w, r, err)
			return
		}
		util.WriteJSON(w, 200, map[string]any{"items": emptyIfNil(items)})
	}
}

func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	h.ListResourceItems(rta.ResourceDocuments)(w, r)
}

func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	rid := middleware.RequestID(r.Context())
	if err := r.ParseMultipartForm(maxDocumentUploadBytes); err != nil {
		util.WriteError(w, 400, "bad_request", "invalid multipart form", rid)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		util.WriteError(w, 400, "bad_request", "file field is required", rid)
		return
	}
	defer file.Close()
	if header.Size > maxDocumentUploadBytes {
		util.WriteError(w, 413, "too_large", "document exceeds the upload size limit", rid)
		return
	}

	fields := map[string]string{}
	for k, vs := range r.MultipartForm.Value {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	token := middleware.BackendToken(r.Context())
	created, err := h.backend.UploadDocument(r.Context(), token, header.Filename, header.Header.Get("Content-Type"), file, fields)
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	u, _ := middleware.User(r.Context())
	h.audit(r, u, "document_uploaded", header.Filename, "")

	sess, _ := middleware.Session(r.Context())
	items, err := h.backend.ListResource(r.Context(), sess.Portal, token, rta.ResourceDocuments)
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	util.WriteJSON(w, 201, map[string]any{"created": created, "items": emptyIfNil(items)})
}

func (h *Handlers) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta, stream, err := h.backend.DownloadDocument(r.Context(), middleware.BackendToken(r.Context()), id)
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	defer stream.Close()
	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+meta.Filename+`"`)
	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, stream)
}

func emptyIfNil(items []json.RawMessage) []json.RawMessage {
	if items == nil {
		return []json.RawMessage{}
	}
	return items
}
