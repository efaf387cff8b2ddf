package mcp

import (
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// SessionOutput is the wire form of the sync session.
type SessionOutput struct {
	SessionID       string  `json:"session_id,omitempty"`
	Stage           string  `json:"stage"`
	Status          string  `json:"status"`
	Active          bool    `json:"active"`
	CancelRequested bool    `json:"cancel_requested"`
	Percentage      float64 `json:"percentage"`
	Message         string  `json:"message,omitempty"`
	StartedAt       string  `json:"started_at,omitempty"`
}

// ArtifactOutput describes one remote file.
type ArtifactOutput struct {
	Exists bool   `json:"exists"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

// EligibilityOutput reports whether a stage can run.
type EligibilityOutput struct {
	Stage   string `json:"stage"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// Stage3Output is the remote stage 3 continuation record.
type Stage3Output struct {
	InProgress     bool   `json:"in_progress"`
	ProcessedCases int    `json:"processed_cases"`
	TotalCases     int    `json:"total_cases"`
	LastRun        string `json:"last_run,omitempty"`
}

// FilesOutput is the result of check_files.
type FilesOutput struct {
	SyncData        ArtifactOutput      `json:"sync_data"`
	Manifest        ArtifactOutput      `json:"manifest"`
	TotalProcedures int                 `json:"total_procedures,omitempty"`
	TotalCases      int                 `json:"total_cases,omitempty"`
	Stage3          *Stage3Output       `json:"stage3,omitempty"`
	Stages          []EligibilityOutput `json:"stages"`
	Next            string              `json:"next"`
}

// RunOutput is the result of run_stage and run_full_sync.
type RunOutput struct {
	SessionID   string   `json:"session_id,omitempty"`
	Stage       string   `json:"stage"`
	Outcome     string   `json:"outcome"`
	Message     string   `json:"message,omitempty"`
	Percentage  float64  `json:"percentage"`
	Completed   []string `json:"completed,omitempty"`
	FailedStage string   `json:"failed_stage,omitempty"`
	Processed   int      `json:"processed,omitempty"`
	Total       int      `json:"total,omitempty"`
	Background  bool     `json:"background,omitempty"`
}

// PreviewOutput is the result of manifest_preview.
type PreviewOutput struct {
	Exists          bool                               `json:"exists"`
	Date            string                             `json:"date,omitempty"`
	TotalProcedures int                                `json:"total_procedures"`
	TotalCases      int                                `json:"total_cases"`
	Procedures      map[string]domain.ProcedurePreview `json:"procedures,omitempty"`
}

// RecordOutput is one history entry.
type RecordOutput struct {
	ID         string  `json:"id"`
	Stage      string  `json:"stage"`
	Outcome    string  `json:"outcome"`
	Message    string  `json:"message,omitempty"`
	Percentage float64 `json:"percentage"`
	Processed  int     `json:"processed,omitempty"`
	Total      int     `json:"total,omitempty"`
	StartedAt  string  `json:"started_at"`
	EndedAt    string  `json:"ended_at,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func sessionOutput(s domain.SyncSession) SessionOutput {
	return SessionOutput{
		SessionID:       s.ID,
		Stage:           s.Stage.String(),
		Status:          s.Status.String(),
		Active:          s.Status.Active(),
		CancelRequested: s.CancelRequested,
		Percentage:      s.Percentage,
		Message:         s.Message,
		StartedAt:       formatTime(s.StartedAt),
	}
}

func artifactOutput(a domain.ArtifactInfo) ArtifactOutput {
	return ArtifactOutput{Exists: a.Exists, Date: formatTime(a.Date), URL: a.URL}
}

func filesOutput(status *domain.FileStatus, elig domain.Eligibility) FilesOutput {
	out := FilesOutput{Next: elig.Next.String()}
	if status != nil {
		out.SyncData = artifactOutput(status.SyncData)
		out.Manifest = artifactOutput(status.Manifest)
		if status.Stage1Info != nil {
			out.TotalProcedures = status.Stage1Info.TotalProcedures
			out.TotalCases = status.Stage1Info.TotalCases
		}
		if s3 := status.Stage3Status; s3 != nil {
			out.Stage3 = &Stage3Output{
				InProgress:     s3.InProgress,
				ProcessedCases: s3.ProcessedCases,
				TotalCases:     s3.TotalCases,
				LastRun:        formatTime(s3.LastRun),
			}
		}
	}
	for _, st := range elig.Stages {
		out.Stages = append(out.Stages, EligibilityOutput{
			Stage:   st.Stage.String(),
			Enabled: st.Enabled,
			Reason:  st.Reason,
		})
	}
	return out
}

func runOutput(r *domain.RunResult) RunOutput {
	if r == nil {
		return RunOutput{}
	}
	out := RunOutput{
		SessionID:  r.SessionID,
		Stage:      r.Stage.String(),
		Outcome:    string(r.Outcome),
		Message:    r.Message,
		Percentage: r.Percentage,
	}
	for _, st := range r.Completed {
		out.Completed = append(out.Completed, st.String())
	}
	if r.FailedStage != domain.StageNone {
		out.FailedStage = r.FailedStage.String()
	}
	if r.Stage3 != nil {
		out.Processed = r.Stage3.Processed
		out.Total = r.Stage3.Total
	}
	return out
}

func previewOutput(p *domain.ManifestPreview) PreviewOutput {
	if p == nil {
		return PreviewOutput{}
	}
	return PreviewOutput{
		Exists:          p.Exists,
		Date:            formatTime(p.Date),
		TotalProcedures: p.TotalProcedures,
		TotalCases:      p.TotalCases,
		Procedures:      p.Preview,
	}
}

func recordOutput(r domain.RunRecord) RecordOutput {
	return RecordOutput{
		ID:         r.ID,
		Stage:      r.Stage.String(),
		Outcome:    string(r.Outcome),
		Message:    r.Message,
		Percentage: r.Percentage,
		Processed:  r.Processed,
		Total:      r.Total,
		StartedAt:  formatTime(r.StartedAt),
		EndedAt:    formatTime(r.EndedAt),
	}
}
