package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// BatchFunc issues one stage 3 batch call.
type BatchFunc func(ctx context.Context) (*domain.BatchResult, error)

// BatchProgress is reported after every successful batch.
type BatchProgress struct {
	// Result is the batch's own response.
	Result domain.BatchResult
	// Totals are the accumulated counters so far.
	Totals domain.BatchTotals
	// Percentage is the stage-native completion, 0 to 100.
	Percentage float64
	// Repeats counts consecutive batches that reported the same processed
	// value, including the current one.
	Repeats int
}

// BatchOutcome is the final state of a batch run.
type BatchOutcome struct {
	Totals     domain.BatchTotals
	Percentage float64
	Completed  bool
	Stalled    bool
	Cancelled  bool
}

// BatchEngine drives a stage whose remote work spans many bounded batch
// calls, until the server reports needsContinue=false.
type BatchEngine struct {
	stallThreshold int
	delay          time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewBatchEngine creates an engine from the stall threshold and inter-batch
// delay in settings.
func NewBatchEngine(settings domain.SyncSettings) *BatchEngine {
	threshold := settings.StallThreshold
	if threshold < 1 {
		threshold = domain.DefaultStallThreshold
	}
	return &BatchEngine{
		stallThreshold: threshold,
		delay:          settings.BatchDelay,
		sleep:          sleepContext,
	}
}

// Run repeats batch until completion, cancellation, stall or failure.
//
// Cancellation is checked only between batches. The run ends with
// domain.ErrUserCancelled when cancel is set, with domain.ErrStallDetected
// once the stall threshold of identical processed readings is reached, and
// with the call's error when a batch fails. The returned outcome is never
// nil and carries the totals accumulated so far.
func (e *BatchEngine) Run(
	ctx context.Context,
	cancel *CancelToken,
	batch BatchFunc,
	onProgress func(BatchProgress),
) (*BatchOutcome, error) {
	outcome := &BatchOutcome{}
	lastProcessed := -1
	repeats := 0

	for {
		if cancel.Cancelled() {
			logger.Info("stage 3 stopped by user after %d batches", outcome.Totals.Batches)
			outcome.Cancelled = true
			return outcome, domain.ErrUserCancelled
		}

		res, err := batch(ctx)
		if err != nil {
			return outcome, fmt.Errorf("batch %d: %w", outcome.Totals.Batches+1, err)
		}
		if res == nil {
			return outcome, fmt.Errorf("batch %d: empty response", outcome.Totals.Batches+1)
		}

		outcome.Totals.Apply(*res)
		logger.Debug("batch %d: processed %d/%d (created %d, updated %d, failed %d), continue=%t",
			outcome.Totals.Batches, res.Processed, res.Total, res.Created, res.Updated, res.Failed, res.NeedsContinue)

		if !res.NeedsContinue {
			outcome.Percentage = 100
			outcome.Completed = true
			e.report(onProgress, *res, outcome, repeats)
			return outcome, nil
		}

		if res.Processed == lastProcessed {
			repeats++
		} else {
			repeats = 1
		}
		lastProcessed = res.Processed

		if repeats >= e.stallThreshold {
			logger.Warn("stage 3 made no progress for %d batches at %d/%d", repeats, res.Processed, res.Total)
			outcome.Stalled = true
			return outcome, domain.ErrStallDetected
		}

		if pct := res.Fraction() * 100; pct > outcome.Percentage {
			outcome.Percentage = pct
		}
		e.report(onProgress, *res, outcome, repeats)

		if err := e.sleep(ctx, e.delay); err != nil {
			return outcome, err
		}
	}
}

// report sends progress to onProgress if set.
func (e *BatchEngine) report(onProgress func(BatchProgress), res domain.BatchResult, outcome *BatchOutcome, repeats int) {
	if onProgress == nil {
		return
	}
	onProgress(BatchProgress{
		Result:     res,
		Totals:     outcome.Totals,
		Percentage: outcome.Percentage,
		Repeats:    repeats,
	})
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
