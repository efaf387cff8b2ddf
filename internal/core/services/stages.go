package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
)

// continuation is how a stage's remote work completes.
type continuation int

const (
	// singleRequest stages finish with one bounded request/response.
	singleRequest continuation = iota
	// batched stages repeat batch calls until the server reports completion.
	batched
)

// stageOutput holds the typed response of a single-request stage until it
// is committed to the run result.
type stageOutput struct {
	stage1 *domain.Stage1Result
	stage2 *domain.Stage2Result
}

// stageDef describes how one stage is confirmed, called and reported.
type stageDef struct {
	prompt        domain.Prompt
	policy        continuation
	pollsProgress bool
	timeout       func(domain.SyncSettings) time.Duration
	request       func(ctx context.Context, api driven.SyncAPI, timeout time.Duration) (stageOutput, error)
	summary       func(r *domain.RunResult) string
}

// stageDefs is the dispatch table for the individually runnable stages.
var stageDefs = map[domain.Stage]stageDef{
	domain.StageOne: {
		prompt: domain.Prompt{
			Title:   "Run Stage 1?",
			Message: "Fetch and categorise source records into the sync data file.",
		},
		policy:  singleRequest,
		timeout: func(s domain.SyncSettings) time.Duration { return s.StageTimeout },
		request: func(ctx context.Context, api driven.SyncAPI, timeout time.Duration) (stageOutput, error) {
			res, err := api.RunStage1(ctx, timeout)
			return stageOutput{stage1: res}, err
		},
		summary: func(r *domain.RunResult) string {
			if r.Stage1 == nil {
				return "Stage 1 complete"
			}
			return fmt.Sprintf("Created %d and updated %d of %d procedures",
				r.Stage1.ProceduresCreated, r.Stage1.ProceduresUpdated, r.Stage1.TotalProcedures)
		},
	},
	domain.StageTwo: {
		prompt: domain.Prompt{
			Title:   "Run Stage 2?",
			Message: "Build the cross-reference manifest from the sync data. This can take several minutes.",
		},
		policy:        singleRequest,
		pollsProgress: true,
		timeout:       func(s domain.SyncSettings) time.Duration { return s.StageTimeout },
		request: func(ctx context.Context, api driven.SyncAPI, timeout time.Duration) (stageOutput, error) {
			res, err := api.RunStage2(ctx, timeout)
			return stageOutput{stage2: res}, err
		},
		summary: func(r *domain.RunResult) string {
			if r.Stage2 == nil {
				return "Stage 2 complete"
			}
			return fmt.Sprintf("Manifest built: %d procedures, %d cases",
				r.Stage2.ProcedureCount, r.Stage2.CaseCount)
		},
	},
	domain.StageThree: {
		prompt: domain.Prompt{
			Title:   "Run Stage 3?",
			Message: "Create and update target records from the manifest in batches. The run resumes where the last one stopped.",
		},
		policy:  batched,
		timeout: func(s domain.SyncSettings) time.Duration { return s.BatchTimeout },
		summary: batchSummary,
	},
}

// fullSyncPrompt guards the composed run.
var fullSyncPrompt = domain.Prompt{
	Title:   "Run Full Sync?",
	Message: "Run Stage 1, Stage 2 and Stage 3 in sequence. Any failure stops the remaining stages.",
}

// stopPrompt guards stopping an active run.
var stopPrompt = domain.Prompt{
	Title:       "Stop the sync?",
	Message:     "The current request finishes first; no further stages or batches will start.",
	Affirmative: "Stop",
	Negative:    "Keep running",
}

// batchSummary describes stage 3 totals.
func batchSummary(r *domain.RunResult) string {
	if r.Stage3 == nil {
		return "Stage 3 complete"
	}
	t := r.Stage3
	return fmt.Sprintf("Processed %d of %d cases (%d created, %d updated, %d failed)",
		t.Processed, t.Total, t.Created, t.Updated, t.Failed)
}

// runMessage builds the user-facing message for a finished run.
func runMessage(r *domain.RunResult, runErr error) string {
	switch r.Outcome {
	case domain.OutcomeSucceeded:
		if r.Stage == domain.StageFull {
			return "All stages completed. " + batchSummary(r)
		}
		return stageDefs[r.Stage].summary(r)
	case domain.OutcomeStalled:
		return "No further progress possible. " + batchSummary(r)
	case domain.OutcomeStopped:
		if len(r.Completed) == 0 {
			return "Sync stopped by user"
		}
		return fmt.Sprintf("Sync stopped by user after %s", r.Completed[len(r.Completed)-1].Title())
	default:
		return domain.UserMessage(runErr)
	}
}

// runTitle builds the notification title for a finished run.
func runTitle(r *domain.RunResult) string {
	switch r.Outcome {
	case domain.OutcomeSucceeded:
		return r.Stage.Title() + " complete"
	case domain.OutcomeStalled:
		return r.Stage.Title() + " stalled"
	case domain.OutcomeStopped:
		return r.Stage.Title() + " stopped"
	default:
		if r.FailedStage != domain.StageNone && r.FailedStage != r.Stage {
			return fmt.Sprintf("%s failed at %s", r.Stage.Title(), r.FailedStage.Title())
		}
		return r.Stage.Title() + " failed"
	}
}
