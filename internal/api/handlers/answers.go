package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/followuplab/internal/catalog"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

type AnswerHandler struct {
	catalog *catalog.Catalog
	store   store.Store
}

func NewAnswerHandler(c *catalog.Catalog, s store.Store) *AnswerHandler {
	return &AnswerHandler{catalog: c, store: s}
}

type answerRequest struct {
	Text string `json:"text"`
}

// Put stores the user's answer, replacing any previous one.
func (h *AnswerHandler) Put(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}

	a, err := h.catalog.SaveAnswer(r.Context(), questionID, userID, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnswerHandler) Get(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "uid")
	if !ok {
		return
	}

	a, err := h.store.GetAnswerByQuestionAndUser(r.Context(), questionID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnswerHandler) ListByQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.store.GetQuestion(r.Context(), questionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	answers, err := h.store.ListAnswersByQuestion(r.Context(), questionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"answers": answers, "count": len(answers)})
}
