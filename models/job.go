package models

// BatchRequest is the payload for POST /api/v1/batch.
type BatchRequest struct {
	// URLs is the candidate worklist, at most 200 per batch.
	URLs []string `json:"urls" binding:"required,min=1,dive,url"`

	// Concurrency overrides the configured worker pool width (optional,
	// capped server-side).
	Concurrency int `json:"concurrency,omitempty" binding:"omitempty,min=1,max=10"`
}

// BatchJob tracks one asynchronous batch run in the in-memory job store.
type BatchJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // "processing", "completed"
	Total     int                `json:"total"`
	Completed int                `json:"completed"`
	Records   []ClassifiedRecord `json:"records,omitempty"`
	Summary   *BatchSummary      `json:"summary,omitempty"`
	CreatedAt int64              `json:"created_at"`
}

// BatchSummary is the success/failure roll-up reported after a run.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Partial   int `json:"partial"`
	Failed    int `json:"failed"`
	Customers int `json:"customers"`
}

// BatchResponse acknowledges an accepted batch job.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
