package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/followuplab/internal/llm"
)

type LLMHandler struct {
	gateway      llm.Gateway
	defaultModel string
}

func NewLLMHandler(gw llm.Gateway, defaultModel string) *LLMHandler {
	return &LLMHandler{gateway: gw, defaultModel: defaultModel}
}

// Models lists the models of the configured providers, for picking a
// prompt's model id.
func (h *LLMHandler) Models(w http.ResponseWriter, r *http.Request) {
	var models []llm.ModelInfo
	if h.gateway != nil {
		models = h.gateway.ListModels()
	}
	if models == nil {
		models = []llm.ModelInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models, "default": h.defaultModel})
}
