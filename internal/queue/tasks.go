package queue

const TypeExperimentRun = "experiment:run"

type ExperimentRunPayload struct {
	RunID        string `json:"run_id"`
	ExperimentID int64  `json:"experiment_id"`
}
