package remote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
)

// The remote job serialises numbers and booleans loosely; these types
// accept both JSON literals and their string forms.

// flexInt decodes 12, 12.0 or "12".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexFloat decodes 12.5 or "12.5".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// flexBool decodes true, 1, "1", "true" and "yes".
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch strings.ToLower(unquote(b)) {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// timeLayouts are the date formats the remote job is known to emit.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// flexTime decodes RFC 3339, "2006-01-02 15:04:05" and Unix seconds.
type flexTime time.Time

func (f *flexTime) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" || s == "false" {
		*f = flexTime(time.Time{})
		return nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexTime(time.Unix(secs, 0).UTC())
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*f = flexTime(t)
			return nil
		}
	}
	// Unparseable dates are informational only.
	*f = flexTime(time.Time{})
	return nil
}

func unquote(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return string(b)
}

type artifactWire struct {
	Exists flexBool `json:"exists"`
	Date   flexTime `json:"date"`
	URL    string   `json:"url"`
}

func (a artifactWire) toDomain() domain.ArtifactInfo {
	return domain.ArtifactInfo{Exists: bool(a.Exists), Date: time.Time(a.Date), URL: a.URL}
}

type checkFilesWire struct {
	SyncData   artifactWire `json:"syncData"`
	Manifest   artifactWire `json:"manifest"`
	Stage1Info *struct {
		TotalProcedures flexInt `json:"totalProcedures"`
		TotalCases      flexInt `json:"totalCases"`
	} `json:"stage1Info"`
	Stage3Status *struct {
		InProgress     flexBool `json:"inProgress"`
		ProcessedCases flexInt  `json:"processedCases"`
		TotalCases     flexInt  `json:"totalCases"`
		LastRun        flexTime `json:"lastRun"`
	} `json:"stage3Status"`
}

func (w checkFilesWire) toDomain() *domain.FileStatus {
	status := &domain.FileStatus{
		SyncData: w.SyncData.toDomain(),
		Manifest: w.Manifest.toDomain(),
	}
	if w.Stage1Info != nil {
		status.Stage1Info = &domain.Stage1Info{
			TotalProcedures: int(w.Stage1Info.TotalProcedures),
			TotalCases:      int(w.Stage1Info.TotalCases),
		}
	}
	if w.Stage3Status != nil {
		status.Stage3Status = &domain.Stage3Status{
			InProgress:     bool(w.Stage3Status.InProgress),
			ProcessedCases: int(w.Stage3Status.ProcessedCases),
			TotalCases:     int(w.Stage3Status.TotalCases),
			LastRun:        time.Time(w.Stage3Status.LastRun),
		}
	}
	return status
}

type stage1Wire struct {
	ProceduresCreated flexInt `json:"proceduresCreated"`
	ProceduresUpdated flexInt `json:"proceduresUpdated"`
	TotalProcedures   flexInt `json:"totalProcedures"`
}

type stage2Wire struct {
	FileExists     flexBool `json:"fileExists"`
	ProcedureCount flexInt  `json:"procedureCount"`
	CaseCount      flexInt  `json:"caseCount"`
}

type batchWire struct {
	ProcessedCases flexInt   `json:"processedCases"`
	CreatedPosts   flexInt   `json:"createdPosts"`
	UpdatedPosts   flexInt   `json:"updatedPosts"`
	FailedCases    flexInt   `json:"failedCases"`
	TotalCases     flexInt   `json:"totalCases"`
	Progress       flexFloat `json:"progress"`
	NeedsContinue  flexBool  `json:"needsContinue"`
}

func (w batchWire) toDomain() *domain.BatchResult {
	return &domain.BatchResult{
		Processed:     int(w.ProcessedCases),
		Created:       int(w.CreatedPosts),
		Updated:       int(w.UpdatedPosts),
		Failed:        int(w.FailedCases),
		Total:         int(w.TotalCases),
		Progress:      float64(w.Progress),
		NeedsContinue: bool(w.NeedsContinue),
	}
}

type progressWire struct {
	Active     flexBool  `json:"active"`
	Stage      flexInt   `json:"stage"`
	Percentage flexFloat `json:"percentage"`
	Message    string    `json:"message"`
}

type entityWire struct {
	Current    flexInt   `json:"current"`
	Total      flexInt   `json:"total"`
	Percentage flexFloat `json:"percentage"`
}

func (w entityWire) toDomain() domain.EntityProgress {
	return domain.EntityProgress{
		Current:    int(w.Current),
		Total:      int(w.Total),
		Percentage: float64(w.Percentage),
	}
}

type recentCaseWire struct {
	ID     json.RawMessage `json:"id"`
	Title  string          `json:"title"`
	Status string          `json:"status"`
}

type detailedWire struct {
	Stage             flexInt          `json:"stage"`
	OverallPercentage flexFloat        `json:"overallPercentage"`
	CurrentProcedure  string           `json:"currentProcedure"`
	ProcedureProgress entityWire       `json:"procedureProgress"`
	CaseProgress      entityWire       `json:"caseProgress"`
	CurrentStep       string           `json:"currentStep"`
	RecentCases       []recentCaseWire `json:"recentCases"`
}

func (w detailedWire) toDomain() *domain.DetailedProgress {
	d := &domain.DetailedProgress{
		Stage:             int(w.Stage),
		OverallPercentage: float64(w.OverallPercentage),
		CurrentProcedure:  w.CurrentProcedure,
		ProcedureProgress: w.ProcedureProgress.toDomain(),
		CaseProgress:      w.CaseProgress.toDomain(),
		CurrentStep:       w.CurrentStep,
	}
	for _, c := range w.RecentCases {
		d.RecentCases = append(d.RecentCases, domain.RecentCase{
			ID:     unquote(c.ID),
			Title:  c.Title,
			Status: c.Status,
		})
	}
	return d
}

type procedurePreviewWire struct {
	CaseCount flexInt           `json:"caseCount"`
	SampleIDs []json.RawMessage `json:"sampleIds"`
}

type manifestPreviewWire struct {
	Exists          flexBool                        `json:"exists"`
	Date            flexTime                        `json:"date"`
	TotalProcedures flexInt                         `json:"totalProcedures"`
	TotalCases      flexInt                         `json:"totalCases"`
	Preview         map[string]procedurePreviewWire `json:"preview"`
}

func (w manifestPreviewWire) toDomain() *domain.ManifestPreview {
	p := &domain.ManifestPreview{
		Exists:          bool(w.Exists),
		Date:            time.Time(w.Date),
		TotalProcedures: int(w.TotalProcedures),
		TotalCases:      int(w.TotalCases),
		Preview:         make(map[string]domain.ProcedurePreview, len(w.Preview)),
	}
	for id, entry := range w.Preview {
		ids := make([]string, 0, len(entry.SampleIDs))
		for _, raw := range entry.SampleIDs {
			ids = append(ids, unquote(raw))
		}
		p.Preview[id] = domain.ProcedurePreview{CaseCount: int(entry.CaseCount), SampleIDs: ids}
	}
	return p
}

type messageWire struct {
	Message string `json:"message"`
}
