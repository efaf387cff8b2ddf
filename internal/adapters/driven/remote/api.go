package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
)

// Ensure API implements the interface.
var _ driven.SyncAPI = (*API)(nil)

// API is the typed set of remote actions.
type API struct {
	client driven.RemoteJobClient
}

// NewAPI creates a typed API over client.
func NewAPI(client driven.RemoteJobClient) *API {
	return &API{client: client}
}

// CheckFiles reports remote artifact existence and stage summaries.
func (a *API) CheckFiles(ctx context.Context, timeout time.Duration) (*domain.FileStatus, error) {
	var w checkFilesWire
	if err := a.call(ctx, ActionCheckFiles, nil, timeout, &w); err != nil {
		return nil, err
	}
	return w.toDomain(), nil
}

// RunStage1 fetches and categorises source records.
func (a *API) RunStage1(ctx context.Context, timeout time.Duration) (*domain.Stage1Result, error) {
	var w stage1Wire
	if err := a.call(ctx, ActionRunStage1, nil, timeout, &w); err != nil {
		return nil, err
	}
	return &domain.Stage1Result{
		ProceduresCreated: int(w.ProceduresCreated),
		ProceduresUpdated: int(w.ProceduresUpdated),
		TotalProcedures:   int(w.TotalProcedures),
	}, nil
}

// RunStage2 builds the manifest.
func (a *API) RunStage2(ctx context.Context, timeout time.Duration) (*domain.Stage2Result, error) {
	var w stage2Wire
	if err := a.call(ctx, ActionRunStage2, nil, timeout, &w); err != nil {
		return nil, err
	}
	return &domain.Stage2Result{
		FileExists:     bool(w.FileExists),
		ProcedureCount: int(w.ProcedureCount),
		CaseCount:      int(w.CaseCount),
	}, nil
}

// RunStage3Batch processes the next batch of stage 3 work.
func (a *API) RunStage3Batch(ctx context.Context, timeout time.Duration) (*domain.BatchResult, error) {
	var w batchWire
	if err := a.call(ctx, ActionRunStage3Batch, nil, timeout, &w); err != nil {
		return nil, err
	}
	return w.toDomain(), nil
}

// GetProgress returns the current remote progress.
func (a *API) GetProgress(ctx context.Context, timeout time.Duration) (*domain.ProgressSnapshot, error) {
	var w progressWire
	if err := a.call(ctx, ActionGetProgress, nil, timeout, &w); err != nil {
		return nil, err
	}
	return &domain.ProgressSnapshot{
		Stage:      domain.Stage(w.Stage),
		Active:     bool(w.Active),
		Percentage: domain.ClampPercent(float64(w.Percentage)),
		Message:    w.Message,
	}, nil
}

// GetDetailedProgress returns per-entity progress.
func (a *API) GetDetailedProgress(ctx context.Context, timeout time.Duration) (*domain.DetailedProgress, error) {
	var w detailedWire
	if err := a.call(ctx, ActionGetDetailedProgress, nil, timeout, &w); err != nil {
		return nil, err
	}
	return w.toDomain(), nil
}

// GetManifestPreview summarises the manifest.
func (a *API) GetManifestPreview(ctx context.Context, timeout time.Duration) (*domain.ManifestPreview, error) {
	var w manifestPreviewWire
	if err := a.call(ctx, ActionManifestPreview, nil, timeout, &w); err != nil {
		return nil, err
	}
	return w.toDomain(), nil
}

// DeleteArtifact removes a remote file and returns the server's message.
func (a *API) DeleteArtifact(ctx context.Context, name domain.Artifact, timeout time.Duration) (string, error) {
	var w messageWire
	payload := map[string]string{"file": string(name)}
	if err := a.call(ctx, ActionDeleteFile, payload, timeout, &w); err != nil {
		return "", err
	}
	return w.Message, nil
}

// ClearStage3Status resets the remote stage 3 record.
func (a *API) ClearStage3Status(ctx context.Context, timeout time.Duration) (string, error) {
	var w messageWire
	if err := a.call(ctx, ActionClearStage3Status, nil, timeout, &w); err != nil {
		return "", err
	}
	return w.Message, nil
}

// StopSync signals the remote side to stop.
func (a *API) StopSync(ctx context.Context, timeout time.Duration) error {
	return a.call(ctx, ActionStopSync, nil, timeout, nil)
}

// call performs action and decodes its data into out. Empty or string
// data leaves out untouched.
func (a *API) call(ctx context.Context, action string, payload map[string]string, timeout time.Duration, out any) error {
	data, err := a.client.Call(ctx, action, payload, timeout)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		// Some actions answer with a bare message.
		if msg, ok := out.(*messageWire); ok {
			return json.Unmarshal(data, &msg.Message)
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	return nil
}
