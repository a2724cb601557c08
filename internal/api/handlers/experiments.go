package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/followuplab/internal/catalog"
	"github.com/nikhilbhutani/followuplab/internal/experiment"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

type ExperimentHandler struct {
	catalog *catalog.Catalog
	store   store.Store
	svc     *experiment.Service
}

func NewExperimentHandler(c *catalog.Catalog, s store.Store, svc *experiment.Service) *ExperimentHandler {
	return &ExperimentHandler{catalog: c, store: s, svc: svc}
}

type experimentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *ExperimentHandler) Create(w http.ResponseWriter, r *http.Request) {
	promptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req experimentRequest
	if !decode(w, r, &req) {
		return
	}

	e, err := h.catalog.CreateExperiment(r.Context(), promptID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *ExperimentHandler) ListByPrompt(w http.ResponseWriter, r *http.Request) {
	promptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	exps, err := h.catalog.ListExperiments(r.Context(), promptID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"experiments": exps, "count": len(exps)})
}

func (h *ExperimentHandler) List(w http.ResponseWriter, r *http.Request) {
	exps, err := h.store.ListExperiments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"experiments": exps, "count": len(exps)})
}

func (h *ExperimentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	e, err := h.store.GetExperiment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *ExperimentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteExperiment(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cases returns the selection grid. Pairs answered since the last view are
// stored as selected first.
func (h *ExperimentHandler) Cases(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	g, err := h.svc.Cases(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

type toggleRequest struct {
	QuestionID int64 `json:"question_id"`
	UserID     int64 `json:"user_id"`
	Selected   *bool `json:"selected"`
}

func (h *ExperimentHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req toggleRequest
	if !decode(w, r, &req) {
		return
	}
	if req.QuestionID <= 0 || req.UserID <= 0 || req.Selected == nil {
		writeError(w, http.StatusBadRequest, "question_id, user_id and selected are required")
		return
	}

	changed, err := h.svc.Toggle(r.Context(), id, req.QuestionID, req.UserID, *req.Selected)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed, "selected": *req.Selected})
}

func (h *ExperimentHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.svc.Results(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
