package domain

import "time"

// Outcome is how a run ended.
type Outcome string

const (
	// OutcomeDeclined means the confirmation was refused and nothing ran.
	OutcomeDeclined Outcome = "declined"
	// OutcomeSucceeded means every requested stage completed.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeStalled means stage 3 stopped after repeated batches made
	// no progress.
	OutcomeStalled Outcome = "stalled"
	// OutcomeStopped means the user stopped the run at a checkpoint.
	OutcomeStopped Outcome = "stopped"
	// OutcomeFailed means a stage failed and the run aborted.
	OutcomeFailed Outcome = "failed"
)

// OutcomeFor maps a run's terminal error to its outcome.
func OutcomeFor(err error) Outcome {
	switch KindOf(err) {
	case KindNone:
		return OutcomeSucceeded
	case KindStallDetected:
		return OutcomeStalled
	case KindUserCancelled:
		return OutcomeStopped
	default:
		return OutcomeFailed
	}
}

// RunResult is returned to the caller of a stage or full sync run.
type RunResult struct {
	SessionID string
	Stage     Stage
	Outcome   Outcome
	// Completed lists the stages that finished successfully, in order.
	Completed []Stage
	// FailedStage is the stage that ended the run, if any.
	FailedStage Stage
	Message     string
	Percentage  float64
	Stage1      *Stage1Result
	Stage2      *Stage2Result
	Stage3      *BatchTotals
	StartedAt   time.Time
	EndedAt     time.Time
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// RunRecord is the persisted history entry of a finished run.
type RunRecord struct {
	ID         string
	Stage      Stage
	Outcome    Outcome
	Message    string
	Percentage float64
	Processed  int
	Total      int
	StartedAt  time.Time
	EndedAt    time.Time
}

// RecordFor builds the history entry for a finished run.
func RecordFor(r *RunResult) RunRecord {
	rec := RunRecord{
		ID:         r.SessionID,
		Stage:      r.Stage,
		Outcome:    r.Outcome,
		Message:    r.Message,
		Percentage: r.Percentage,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
	}
	if r.Stage3 != nil {
		rec.Processed = r.Stage3.Processed
		rec.Total = r.Stage3.Total
	}
	return rec
}
