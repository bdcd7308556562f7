package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippetvault/internal/auth"
	"github.com/sakif/snippetvault/internal/service"
)

// SnippetHandler manages snippets and their tags.
//
// ROUTES (all behind RequireAuth):
//   - GET    /api/snippets?collectionId=x  → snippets in a collection
//   - POST   /api/snippets                 → create a snippet with tags
//   - GET    /api/snippets/{id}            → one snippet with tags
//   - PATCH  /api/snippets/{id}            → partial update
//   - DELETE /api/snippets/{id}            → delete
type SnippetHandler struct {
	svc    *service.SnippetService
	logger *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{svc: svc, logger: logger}
}

type createSnippetRequest struct {
	Title        string   `json:"title"        validate:"required"`
	Description  string   `json:"description"`
	Code         string   `json:"code"         validate:"required"`
	Language     string   `json:"language"     validate:"required"`
	CollectionID string   `json:"collectionId" validate:"required"`
	Tags         []string `json:"tags"`
}

// updateSnippetRequest uses pointers so a PATCH can tell "field absent"
// from "field set to empty". {"description": ""} clears the description;
// omitting it leaves it alone. A non-null tags array replaces the whole
// tag set.
type updateSnippetRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Code        *string   `json:"code"`
	Language    *string   `json:"language"`
	Tags        *[]string `json:"tags"`
}

// HandleList returns a collection's snippets with their tags.
//
// HTTP: GET /api/snippets?collectionId=x
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippets, err := h.svc.ListByCollection(r.Context(), r.URL.Query().Get("collectionId"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet returns one snippet with its tags.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.svc.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate creates a snippet in a collection the caller can access.
// Tag names are connected to existing tags or created as needed.
//
// HTTP: POST /api/snippets
// Body: {"title": "...", "code": "...", "language": "go",
//
//	"collectionId": "abc", "tags": ["go", "http"]}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createSnippetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Create(r.Context(), userID, service.CreateSnippetInput{
		Title:        req.Title,
		Description:  req.Description,
		Code:         req.Code,
		Language:     req.Language,
		CollectionID: req.CollectionID,
		Tags:         req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate applies a partial update to a snippet. Only the fields
// present in the body change.
//
// HTTP: PATCH /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateSnippetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Update(r.Context(), r.PathValue("id"), userID, service.UpdateSnippetInput{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Language:    req.Language,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet and its tag links. The tags themselves
// stay — they may be shared with other snippets.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
