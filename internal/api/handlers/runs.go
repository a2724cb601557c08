package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/followuplab/internal/experiment"
	"github.com/nikhilbhutani/followuplab/internal/progress"
	"github.com/nikhilbhutani/followuplab/internal/queue"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

// Enqueuer hands runs to the background worker.
type Enqueuer interface {
	EnqueueExperimentRun(ctx context.Context, payload queue.ExperimentRunPayload) error
}

type RunHandler struct {
	svc     *experiment.Service
	store   store.Store
	tracker *progress.Tracker
	queue   Enqueuer
	logger  *slog.Logger
}

// NewRunHandler builds the run endpoints. Without a queue, runs execute in a
// goroutine of the API process.
func NewRunHandler(svc *experiment.Service, s store.Store, tracker *progress.Tracker, q Enqueuer, logger *slog.Logger) *RunHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunHandler{svc: svc, store: s, tracker: tracker, queue: q, logger: logger}
}

// Start runs an experiment. With ?wait=true the run happens inline and the
// summary is returned; otherwise it is queued and a run id returned for
// polling.
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	if _, err := h.store.GetExperiment(ctx, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	runID := uuid.NewString()

	if r.URL.Query().Get("wait") == "true" {
		// The run outlives a client that stops waiting.
		summary, err := h.svc.Run(context.WithoutCancel(ctx), id, h.tracker.Reporter(runID))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"run_id": runID, "summary": summary})
		return
	}

	if err := h.tracker.Queue(ctx, runID, id); err != nil {
		h.logger.WarnContext(ctx, "run progress not recorded", "run_id", runID, "error", err)
	}

	if h.queue != nil {
		payload := queue.ExperimentRunPayload{RunID: runID, ExperimentID: id}
		if err := h.queue.EnqueueExperimentRun(ctx, payload); err != nil {
			h.tracker.Fail(ctx, runID, id, err)
			writeServiceError(w, r, err)
			return
		}
	} else {
		go h.runDetached(context.WithoutCancel(ctx), runID, id)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": string(progress.StatusQueued)})
}

func (h *RunHandler) runDetached(ctx context.Context, runID string, experimentID int64) {
	if _, err := h.svc.Run(ctx, experimentID, h.tracker.Reporter(runID)); err != nil {
		h.logger.Error("background run failed", "run_id", runID, "experiment_id", experimentID, "error", err)
		h.tracker.Fail(ctx, runID, experimentID, err)
	}
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := uuid.Parse(runID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	s, err := h.tracker.Get(r.Context(), runID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
