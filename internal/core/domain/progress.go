package domain

import "time"

// ProgressSnapshot is a point-in-time, non-authoritative read of remote
// job progress.
type ProgressSnapshot struct {
	Stage      Stage
	Active     bool
	Percentage float64
	Message    string
}

// EntityProgress counts progress over one kind of entity.
type EntityProgress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// RecentCase is one recently processed record reported by the remote job.
type RecentCase struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status,omitempty"`
}

// DetailedProgress is the richer per-entity progress used during a full sync.
type DetailedProgress struct {
	Stage             int            `json:"stage"`
	OverallPercentage float64        `json:"overallPercentage"`
	CurrentProcedure  string         `json:"currentProcedure"`
	ProcedureProgress EntityProgress `json:"procedureProgress"`
	CaseProgress      EntityProgress `json:"caseProgress"`
	CurrentStep       string         `json:"currentStep"`
	RecentCases       []RecentCase   `json:"recentCases"`
}

// BatchResult is the authoritative outcome of one stage 3 batch call.
// Counters are absolute totals for the job, not deltas for the batch.
type BatchResult struct {
	Processed     int
	Created       int
	Updated       int
	Failed        int
	Total         int
	Progress      float64
	NeedsContinue bool
}

// Fraction returns processed/total in [0, 1]. A zero total counts as done.
func (r BatchResult) Fraction() float64 {
	if r.Total <= 0 {
		return 1
	}
	f := float64(r.Processed) / float64(r.Total)
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}

// BatchTotals accumulates the counters reported across a batch run.
type BatchTotals struct {
	Processed int
	Created   int
	Updated   int
	Failed    int
	Total     int
	Batches   int
}

// Apply replaces the counters with the absolute values from r.
func (t *BatchTotals) Apply(r BatchResult) {
	t.Processed = r.Processed
	t.Created = r.Created
	t.Updated = r.Updated
	t.Failed = r.Failed
	t.Total = r.Total
	t.Batches++
}

// ProgressEvent is emitted by the orchestrator whenever overall progress,
// or the session's status, changes.
type ProgressEvent struct {
	SessionID string
	// Stage is the session's stage; Current is the stage executing now
	// (they differ during a full sync).
	Stage   Stage
	Current Stage
	Status  SessionStatus
	// StagePercentage is the current stage's native 0 to 100 value.
	StagePercentage float64
	// Overall is the band-remapped, non-decreasing session percentage.
	Overall float64
	Message string
	// Batch is set for stage 3 batch completions.
	Batch *BatchTotals
	At    time.Time
}

// ProgressFunc receives progress events.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
