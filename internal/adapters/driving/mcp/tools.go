package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// RunStageInput is the input schema for run_stage.
type RunStageInput struct {
	Stage      string `json:"stage" jsonschema:"the stage to run: 1, 2, 3 or full"`
	Confirmed  bool   `json:"confirmed" jsonschema:"must be true; set only after the user approved the run"`
	Background bool   `json:"background,omitempty" jsonschema:"return immediately and follow progress with sync_status"`
}

// RunFullSyncInput is the input schema for run_full_sync.
type RunFullSyncInput struct {
	Confirmed  bool `json:"confirmed" jsonschema:"must be true; set only after the user approved the run"`
	Background bool `json:"background,omitempty" jsonschema:"return immediately and follow progress with sync_status"`
}

// StopInput is the input schema for stop_sync.
type StopInput struct {
	Confirmed bool `json:"confirmed" jsonschema:"must be true; set only after the user approved stopping"`
}

// RecentRunsInput is the input schema for recent_runs.
type RecentRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 10)"`
}

// RecentRunsOutput is the output schema for recent_runs.
type RecentRunsOutput struct {
	Runs  []RecordOutput `json:"runs"`
	Count int            `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_files",
		Description: "Report which remote sync files exist and which stages can run",
	}, s.handleCheckFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Report the current sync session: stage, status and overall percentage",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_stage",
		Description: "Run a single sync stage (1, 2 or 3) or the full sync",
	}, s.handleRunStage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_full_sync",
		Description: "Run stages 1, 2 and 3 in sequence, stopping at the first failure",
	}, s.handleRunFullSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stop_sync",
		Description: "Stop the active sync after its current request finishes",
	}, s.handleStop)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "manifest_preview",
		Description: "Summarise the manifest built by stage 2",
	}, s.handlePreview)

	if s.ports.History != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "recent_runs",
			Description: "List recently finished sync runs, newest first",
		}, s.handleRecentRuns)
	}
}

func (s *Server) handleCheckFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, FilesOutput, error) {
	status, elig, err := s.ports.Files.CheckFiles(ctx)
	if err != nil {
		return nil, FilesOutput{}, fmt.Errorf("checking files: %s", domain.UserMessage(err))
	}
	return nil, filesOutput(status, elig), nil
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	return nil, sessionOutput(s.ports.Sync.Status()), nil
}

func (s *Server) handleRunStage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunStageInput,
) (*mcp.CallToolResult, RunOutput, error) {
	stage, err := domain.ParseStage(input.Stage)
	if err != nil {
		return nil, RunOutput{}, err
	}
	return s.run(ctx, stage, input.Confirmed, input.Background)
}

func (s *Server) handleRunFullSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunFullSyncInput,
) (*mcp.CallToolResult, RunOutput, error) {
	return s.run(ctx, domain.StageFull, input.Confirmed, input.Background)
}

// run starts stage in the foreground, or in the background when asked.
func (s *Server) run(ctx context.Context, stage domain.Stage, confirmed, background bool) (*mcp.CallToolResult, RunOutput, error) {
	if !confirmed {
		return nil, RunOutput{}, ErrNotConfirmed
	}
	ctx = withConfirmed(ctx, true)

	if !background {
		result, err := s.ports.Sync.RunStage(ctx, stage)
		if err != nil {
			return nil, RunOutput{}, errors.New(domain.UserMessage(err))
		}
		return nil, runOutput(result), nil
	}

	if s.ports.Sync.Status().Status.Active() {
		return nil, RunOutput{}, errors.New(domain.UserMessage(domain.ErrSyncInProgress))
	}

	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.ports.Sync.RunStage(runCtx, stage); err != nil {
			logger.Warn("mcp: background %s: %v", stage.Title(), err)
		}
	}()

	return nil, RunOutput{
		Stage:      stage.String(),
		Outcome:    "started",
		Message:    stage.Title() + " started; follow progress with sync_status",
		Background: true,
	}, nil
}

func (s *Server) handleStop(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StopInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	if !input.Confirmed {
		return nil, SessionOutput{}, ErrNotConfirmed
	}
	if err := s.ports.Sync.Stop(withConfirmed(ctx, true)); err != nil {
		return nil, SessionOutput{}, errors.New(domain.UserMessage(err))
	}
	return nil, sessionOutput(s.ports.Sync.Status()), nil
}

func (s *Server) handlePreview(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, PreviewOutput, error) {
	preview, err := s.ports.Files.Preview(ctx)
	if err != nil {
		return nil, PreviewOutput{}, fmt.Errorf("manifest preview: %s", domain.UserMessage(err))
	}
	return nil, previewOutput(preview), nil
}

func (s *Server) handleRecentRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecentRunsInput,
) (*mcp.CallToolResult, RecentRunsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	runs, err := s.ports.History.Recent(ctx, limit)
	if err != nil {
		return nil, RecentRunsOutput{}, fmt.Errorf("listing runs: %w", err)
	}

	out := RecentRunsOutput{Runs: make([]RecordOutput, len(runs)), Count: len(runs)}
	for i := range runs {
		out.Runs[i] = recordOutput(runs[i])
	}
	return nil, out, nil
}
