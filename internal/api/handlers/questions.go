package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/followuplab/internal/catalog"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

type QuestionHandler struct {
	catalog *catalog.Catalog
	store   store.Store
}

func NewQuestionHandler(c *catalog.Catalog, s store.Store) *QuestionHandler {
	return &QuestionHandler{catalog: c, store: s}
}

type questionRequest struct {
	Text string `json:"text"`
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	promptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req questionRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := h.catalog.CreateQuestion(r.Context(), promptID, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	promptID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	questions, err := h.catalog.ListQuestions(r.Context(), promptID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions, "count": len(questions)})
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req questionRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := h.catalog.UpdateQuestion(r.Context(), id, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteQuestion(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
