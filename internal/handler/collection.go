package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippetvault/internal/auth"
	"github.com/sakif/snippetvault/internal/service"
)

// CollectionHandler manages collections inside a workspace.
//
// ROUTES (all behind RequireAuth):
//   - GET    /api/collections?workspaceId=x  → collections in a workspace
//   - POST   /api/collections                → create a collection
//   - PATCH  /api/collections/{id}           → rename
//   - DELETE /api/collections/{id}           → delete with snippets
type CollectionHandler struct {
	svc    *service.CollectionService
	logger *slog.Logger
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler(svc *service.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{svc: svc, logger: logger}
}

type createCollectionRequest struct {
	Name        string `json:"name"        validate:"required"`
	WorkspaceID string `json:"workspaceId" validate:"required"`
}

type renameCollectionRequest struct {
	Name string `json:"name" validate:"required"`
}

// HandleList returns a workspace's collections, oldest first.
//
// HTTP: GET /api/collections?workspaceId=x
func (h *CollectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	collections, err := h.svc.ListByWorkspace(r.Context(), r.URL.Query().Get("workspaceId"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, collections)
}

// HandleCreate creates a collection in a workspace the caller belongs to.
//
// HTTP: POST /api/collections
// Body: {"name": "Algorithms", "workspaceId": "abc"}
func (h *CollectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createCollectionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.svc.Create(r.Context(), userID, req.Name, req.WorkspaceID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// HandleRename renames a collection. Any workspace member may rename.
//
// HTTP: PATCH /api/collections/{id}
func (h *CollectionHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req renameCollectionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.svc.Rename(r.Context(), r.PathValue("id"), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// HandleDelete deletes a collection and every snippet inside it.
//
// HTTP: DELETE /api/collections/{id}
func (h *CollectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
