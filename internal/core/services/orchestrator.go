package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/core/ports/driving"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// Ensure StageOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*StageOrchestrator)(nil)

// StageOrchestrator sequences the remote stages of a sync job.
//
// It owns the single SyncSession. Every status change happens through the
// session's transition methods while mu is held; the poller goroutine never
// touches the session directly and hands snapshots back through a callback
// that checks the session id first.
type StageOrchestrator struct {
	api      driven.SyncAPI
	gate     driven.ConfirmationGate
	sink     driven.NotificationSink
	runs     driven.RunStore
	settings SettingsProvider

	newID func() string
	now   func() time.Time

	mu      sync.Mutex
	session domain.SyncSession
	cancel  *CancelToken
	poller  *ProgressPoller

	subsMu  sync.RWMutex
	subs    map[int]domain.ProgressFunc
	nextSub int

	// signals tracks remote stop requests still in flight.
	signals sync.WaitGroup
}

// NewStageOrchestrator creates a new orchestrator.
// The run store is optional - if nil, run history is not recorded.
func NewStageOrchestrator(
	api driven.SyncAPI,
	gate driven.ConfirmationGate,
	sink driven.NotificationSink,
	runs driven.RunStore,
	settings SettingsProvider,
) *StageOrchestrator {
	if settings == nil {
		settings = StaticSettings(domain.DefaultSyncSettings())
	}
	return &StageOrchestrator{
		api:      api,
		gate:     gate,
		sink:     sink,
		runs:     runs,
		settings: settings,
		newID:    uuid.NewString,
		now:      time.Now,
		subs:     make(map[int]domain.ProgressFunc),
	}
}

// stageRun is the per-stage context threaded through a session.
type stageRun struct {
	sessionID string
	stage     domain.Stage
	band      domain.PercentBand
	settings  domain.SyncSettings
	token     *CancelToken
}

// RunStage asks for confirmation and runs one stage.
func (o *StageOrchestrator) RunStage(ctx context.Context, stage domain.Stage) (*domain.RunResult, error) {
	if stage == domain.StageFull {
		return o.RunFullSync(ctx)
	}
	def, ok := stageDefs[stage]
	if !ok {
		return nil, fmt.Errorf("%w: cannot run %s", domain.ErrInvalidInput, stage)
	}
	return o.confirmAndExecute(ctx, stage, def.prompt, []domain.Stage{stage})
}

// RunFullSync asks for confirmation and runs stages 1, 2 and 3 in sequence.
func (o *StageOrchestrator) RunFullSync(ctx context.Context) (*domain.RunResult, error) {
	return o.confirmAndExecute(ctx, domain.StageFull, fullSyncPrompt, domain.PipelineStages)
}

// confirmAndExecute refuses concurrent starts before prompting, then leaves
// the session untouched until the prompt resolves.
func (o *StageOrchestrator) confirmAndExecute(
	ctx context.Context,
	stage domain.Stage,
	prompt domain.Prompt,
	stages []domain.Stage,
) (*domain.RunResult, error) {
	if current := o.Status(); current.Status.Active() {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrSyncInProgress, current.Stage.Title(), current.Status)
	}

	approved, err := o.gate.Confirm(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("confirm %s: %w", stage.Title(), err)
	}
	if !approved {
		logger.Debug("%s declined", stage.Title())
		return &domain.RunResult{Stage: stage, Outcome: domain.OutcomeDeclined}, nil
	}

	return o.execute(ctx, stage, stages)
}

// execute runs stages under a new session and always leaves it terminal.
func (o *StageOrchestrator) execute(ctx context.Context, stage domain.Stage, stages []domain.Stage) (*domain.RunResult, error) {
	settings := o.settings.SyncSettings()

	sessionID, token, startedAt, err := o.begin(stage)
	if err != nil {
		return nil, err
	}

	logger.Section(stage.Title())
	logger.Info("session %s started", sessionID)

	result := &domain.RunResult{
		SessionID: sessionID,
		Stage:     stage,
		StartedAt: startedAt,
	}
	o.emitStatus(sessionID)

	var runErr error
	for i, st := range stages {
		// Stage boundary checkpoint.
		if i > 0 && token.Cancelled() {
			runErr = domain.ErrUserCancelled
			break
		}

		band := domain.FullBand
		if stage == domain.StageFull {
			band = domain.FullSyncBand(st)
		}
		run := &stageRun{
			sessionID: sessionID,
			stage:     st,
			band:      band,
			settings:  settings,
			token:     token,
		}

		if runErr = o.runStage(ctx, run, result); runErr != nil {
			if !domain.IsOperational(runErr) {
				result.FailedStage = st
				runErr = fmt.Errorf("%s: %w", st.Title(), runErr)
			}
			break
		}
		result.Completed = append(result.Completed, st)
		logger.Info("%s finished", st.Title())
	}

	return o.finish(ctx, result, runErr)
}

// begin starts a new session under the lock.
func (o *StageOrchestrator) begin(stage domain.Stage) (string, *CancelToken, time.Time, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.newID()
	startedAt := o.now()
	if err := o.session.Begin(id, stage, startedAt); err != nil {
		return "", nil, time.Time{}, err
	}

	// A poller surviving a previous session is a bug; never let it feed
	// the new one.
	if o.poller != nil {
		logger.Error("clearing poller left over from a previous session")
		stale := o.poller
		o.poller = nil
		go stale.Stop()
	}

	o.cancel = NewCancelToken()
	return id, o.cancel, startedAt, nil
}

// runStage dispatches one stage through its table entry.
func (o *StageOrchestrator) runStage(ctx context.Context, run *stageRun, result *domain.RunResult) error {
	def, ok := stageDefs[run.stage]
	if !ok {
		return fmt.Errorf("%w: no stage definition for %s", domain.ErrInvalidInput, run.stage)
	}

	o.advance(run, 0, "Starting "+run.stage.Title(), nil)

	switch def.policy {
	case batched:
		return o.runBatched(ctx, run, result)
	default:
		return o.runSingle(ctx, run, def, result)
	}
}

// runSingle performs a single bounded request, optionally with a poller
// feeding intermediate progress while the request is in flight.
func (o *StageOrchestrator) runSingle(ctx context.Context, run *stageRun, def stageDef, result *domain.RunResult) error {
	if def.pollsProgress {
		o.startPoller(ctx, run)
	}

	out, err := def.request(ctx, o.api, def.timeout(run.settings))
	o.stopPoller()

	if err != nil {
		return err
	}
	if !o.owns(run.sessionID) {
		logger.Warn("discarding %s response for stale session %s", run.stage.Title(), run.sessionID)
		return domain.ErrStaleResponse
	}

	if out.stage1 != nil {
		result.Stage1 = out.stage1
	}
	if out.stage2 != nil {
		result.Stage2 = out.stage2
	}
	o.advance(run, 100, run.stage.Title()+" complete", nil)
	return nil
}

// runBatched delegates to the batch engine.
func (o *StageOrchestrator) runBatched(ctx context.Context, run *stageRun, result *domain.RunResult) error {
	engine := NewBatchEngine(run.settings)

	batch := func(ctx context.Context) (*domain.BatchResult, error) {
		res, err := o.api.RunStage3Batch(ctx, run.settings.BatchTimeout)
		if err != nil {
			return nil, err
		}
		if !o.owns(run.sessionID) {
			return nil, domain.ErrStaleResponse
		}
		return res, nil
	}

	onProgress := func(p BatchProgress) {
		totals := p.Totals
		msg := fmt.Sprintf("Processed %d of %d cases", totals.Processed, totals.Total)
		o.advance(run, p.Percentage, msg, &totals)
	}

	outcome, err := engine.Run(ctx, run.token, batch, onProgress)
	totals := outcome.Totals
	result.Stage3 = &totals
	return err
}

// startPoller attaches a progress poller to the session.
func (o *StageOrchestrator) startPoller(ctx context.Context, run *stageRun) {
	poller := NewProgressPoller(run.settings.PollInterval, run.settings.PollMaxFailures)
	poll := func(ctx context.Context) (*domain.ProgressSnapshot, error) {
		return o.api.GetProgress(ctx, run.settings.PollTimeout)
	}
	onSnapshot := func(snap domain.ProgressSnapshot) {
		if !snap.Active {
			return
		}
		o.advance(run, snap.Percentage, snap.Message, nil)
	}

	if err := poller.Start(ctx, poll, onSnapshot); err != nil {
		logger.Warn("progress poller not started: %v", err)
		return
	}

	o.mu.Lock()
	o.poller = poller
	o.mu.Unlock()
}

// stopPoller stops and releases the session's poller. The lock is not held
// while waiting, since the poller's callback takes it.
func (o *StageOrchestrator) stopPoller() {
	o.mu.Lock()
	poller := o.poller
	o.poller = nil
	o.mu.Unlock()

	if poller != nil {
		poller.Stop()
	}
}

// owns reports whether sessionID is still the active session.
func (o *StageOrchestrator) owns(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Owns(sessionID)
}

// advance remaps a stage-native percentage into the run's band and emits
// the resulting non-decreasing overall progress. Updates for a session
// that is no longer current are dropped.
func (o *StageOrchestrator) advance(run *stageRun, stagePct float64, message string, totals *domain.BatchTotals) {
	o.mu.Lock()
	if !o.session.Owns(run.sessionID) {
		o.mu.Unlock()
		logger.Debug("dropping progress for stale session %s", run.sessionID)
		return
	}
	overall := o.session.Advance(run.band.Remap(stagePct), message)
	event := domain.ProgressEvent{
		SessionID:       run.sessionID,
		Stage:           o.session.Stage,
		Current:         run.stage,
		Status:          o.session.Status,
		StagePercentage: domain.ClampPercent(stagePct),
		Overall:         overall,
		Message:         o.session.Message,
		Batch:           totals,
		At:              o.now(),
	}
	o.mu.Unlock()

	o.publish(event)
}

// finish moves the session to its terminal state, notifies exactly once,
// records history and returns the session to Idle.
func (o *StageOrchestrator) finish(ctx context.Context, result *domain.RunResult, runErr error) (*domain.RunResult, error) {
	// Every exit path releases the poller before going terminal.
	o.stopPoller()

	result.Outcome = domain.OutcomeFor(runErr)
	result.EndedAt = o.now()
	result.Message = runMessage(result, runErr)

	o.mu.Lock()
	if result.Outcome == domain.OutcomeSucceeded {
		o.session.Advance(100, result.Message)
	} else {
		o.session.Message = result.Message
	}
	o.session.Finish(result.Outcome)
	result.Percentage = o.session.Percentage
	event := o.statusEventLocked(result.SessionID)
	o.mu.Unlock()

	o.publish(event)

	switch result.Outcome {
	case domain.OutcomeFailed:
		logger.Error("%s: %s", runTitle(result), result.Message)
	default:
		logger.Info("%s: %s", runTitle(result), result.Message)
	}

	o.sink.Notify(ctx, domain.Notification{
		Kind:    domain.NotificationFor(result.Outcome),
		Title:   runTitle(result),
		Message: result.Message,
	})

	if o.runs != nil {
		if err := o.runs.Record(context.WithoutCancel(ctx), domain.RecordFor(result)); err != nil {
			logger.Warn("failed to record run %s: %v", result.SessionID, err)
		}
	}

	o.mu.Lock()
	o.session.Reset()
	o.mu.Unlock()

	if result.Outcome == domain.OutcomeFailed {
		return result, runErr
	}
	return result, nil
}

// Stop asks for confirmation and requests cooperative cancellation.
func (o *StageOrchestrator) Stop(ctx context.Context) error {
	if current := o.Status(); !current.Status.Active() {
		return domain.ErrNoActiveSync
	}

	approved, err := o.gate.Confirm(ctx, stopPrompt)
	if err != nil {
		return fmt.Errorf("confirm stop: %w", err)
	}
	if !approved {
		return domain.ErrDeclined
	}
	return o.RequestStop(ctx)
}

// RequestStop requests cooperative cancellation without prompting. The
// in-flight request, if any, runs to completion; the run ends at the next
// checkpoint. The remote stop signal is sent in the background, bounded by
// the status timeout and by ctx, so RequestStop returns at once.
func (o *StageOrchestrator) RequestStop(ctx context.Context) error {
	o.mu.Lock()
	if err := o.session.RequestCancel(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.cancel.Cancel()
	settings := o.settings.SyncSettings()
	event := o.statusEventLocked(o.session.ID)
	o.mu.Unlock()

	logger.Info("stop requested for session %s", event.SessionID)
	o.publish(event)

	o.signals.Add(1)
	go func() {
		defer o.signals.Done()
		if err := o.api.StopSync(ctx, settings.StatusTimeout); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("remote stop signal failed: %v", err)
		}
	}()
	return nil
}

// Wait blocks until every remote stop signal sent by RequestStop has
// returned.
func (o *StageOrchestrator) Wait() {
	o.signals.Wait()
}

// Status returns a copy of the current session.
func (o *StageOrchestrator) Status() domain.SyncSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Subscribe registers fn for progress events.
func (o *StageOrchestrator) Subscribe(fn domain.ProgressFunc) func() {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()

	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn

	return func() {
		o.subsMu.Lock()
		defer o.subsMu.Unlock()
		delete(o.subs, id)
	}
}

// emitStatus publishes the session's current status.
func (o *StageOrchestrator) emitStatus(sessionID string) {
	o.mu.Lock()
	event := o.statusEventLocked(sessionID)
	o.mu.Unlock()
	o.publish(event)
}

// statusEventLocked builds a status event (caller must hold mu).
func (o *StageOrchestrator) statusEventLocked(sessionID string) domain.ProgressEvent {
	return domain.ProgressEvent{
		SessionID: sessionID,
		Stage:     o.session.Stage,
		Current:   o.session.Stage,
		Status:    o.session.Status,
		Overall:   o.session.Percentage,
		Message:   o.session.Message,
		At:        o.now(),
	}
}

// publish delivers an event to every subscriber.
func (o *StageOrchestrator) publish(event domain.ProgressEvent) {
	o.subsMu.RLock()
	defer o.subsMu.RUnlock()
	for _, fn := range o.subs {
		fn(event)
	}
}
