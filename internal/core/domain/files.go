package domain

import (
	"fmt"
	"time"
)

// Artifact names a persisted remote file that can be deleted.
type Artifact string

const (
	// ArtifactSyncData is the output of stage 1.
	ArtifactSyncData Artifact = "syncData"
	// ArtifactManifest is the output of stage 2.
	ArtifactManifest Artifact = "manifest"
)

// ParseArtifact validates an artifact name.
func ParseArtifact(s string) (Artifact, error) {
	switch Artifact(s) {
	case ArtifactSyncData, ArtifactManifest:
		return Artifact(s), nil
	default:
		return "", fmt.Errorf("%w: unknown artifact %q (want %s or %s)",
			ErrInvalidInput, s, ArtifactSyncData, ArtifactManifest)
	}
}

// ArtifactInfo describes one remote file.
type ArtifactInfo struct {
	Exists bool      `json:"exists"`
	Date   time.Time `json:"date,omitempty"`
	URL    string    `json:"url,omitempty"`
}

// Stage1Info summarises the last stage 1 output.
type Stage1Info struct {
	TotalProcedures int `json:"totalProcedures"`
	TotalCases      int `json:"totalCases"`
}

// Stage3Status is the remote record of a resumable stage 3 run.
type Stage3Status struct {
	InProgress     bool      `json:"inProgress"`
	ProcessedCases int       `json:"processedCases"`
	TotalCases     int       `json:"totalCases"`
	LastRun        time.Time `json:"lastRun,omitempty"`
}

// FileStatus is the result of a checkFiles query.
type FileStatus struct {
	SyncData     ArtifactInfo
	Manifest     ArtifactInfo
	Stage1Info   *Stage1Info
	Stage3Status *Stage3Status
}

// StageEligibility reports whether a stage can be started and why not.
type StageEligibility struct {
	Stage   Stage
	Enabled bool
	Reason  string
}

// Eligibility is the derived set of runnable stages.
type Eligibility struct {
	Stages []StageEligibility
	// Next is the first stage whose prerequisites are met but whose
	// output does not exist yet; StageThree once everything exists.
	Next Stage
}

// For returns the eligibility entry for stage.
func (e Eligibility) For(stage Stage) StageEligibility {
	for _, s := range e.Stages {
		if s.Stage == stage {
			return s
		}
	}
	return StageEligibility{Stage: stage}
}

// EligibilityFor derives which stages may run from remote artifact
// existence alone, so every client observes the same answer.
func EligibilityFor(syncDataExists, manifestExists bool) Eligibility {
	e := Eligibility{
		Stages: []StageEligibility{
			{Stage: StageOne, Enabled: true},
			{Stage: StageTwo, Enabled: syncDataExists},
			{Stage: StageThree, Enabled: syncDataExists && manifestExists},
		},
	}

	if !syncDataExists {
		e.Stages[1].Reason = "Run Stage 1 first to create the sync data file"
		e.Stages[2].Reason = "Run Stage 1 and Stage 2 first"
	} else if !manifestExists {
		e.Stages[2].Reason = "Run Stage 2 first to build the manifest"
	}

	switch {
	case !syncDataExists:
		e.Next = StageOne
	case !manifestExists:
		e.Next = StageTwo
	default:
		e.Next = StageThree
	}
	return e
}

// Eligibility derives stage eligibility for this status.
func (f FileStatus) Eligibility() Eligibility {
	return EligibilityFor(f.SyncData.Exists, f.Manifest.Exists)
}

// ProcedurePreview is one manifest entry.
type ProcedurePreview struct {
	CaseCount int      `json:"caseCount"`
	SampleIDs []string `json:"sampleIds"`
}

// ManifestPreview summarises the stage 2 manifest.
type ManifestPreview struct {
	Exists          bool
	Date            time.Time
	TotalProcedures int
	TotalCases      int
	Preview         map[string]ProcedurePreview
}

// Stage1Result is returned by a stage 1 run.
type Stage1Result struct {
	ProceduresCreated int
	ProceduresUpdated int
	TotalProcedures   int
}

// Stage2Result is returned by a stage 2 run.
type Stage2Result struct {
	FileExists     bool
	ProcedureCount int
	CaseCount      int
}
