package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/followuplab/internal/catalog"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

type PromptHandler struct {
	catalog *catalog.Catalog
	store   store.Store
}

func NewPromptHandler(c *catalog.Catalog, s store.Store) *PromptHandler {
	return &PromptHandler{catalog: c, store: s}
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req catalog.PromptDraft
	if !decode(w, r, &req) {
		return
	}

	p, err := h.catalog.CreatePrompt(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.store.ListPrompts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"prompts": prompts, "count": len(prompts)})
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.store.GetPrompt(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req catalog.PromptDraft
	if !decode(w, r, &req) {
		return
	}

	p, err := h.catalog.UpdatePrompt(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeletePrompt(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
