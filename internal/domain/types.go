package domain

// JobStatus tracks the lifecycle of a single queued transcription job.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// Job is one unit of transcription work keyed by its normalized path.
type Job struct {
	ID     string    `json:"id"`
	Path   string    `json:"path"`
	Status JobStatus `json:"status"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ModelPath string `json:"modelPath"`
	ModelID   string `json:"modelId"`
	Language  string `json:"language"`
}
