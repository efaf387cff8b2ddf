package domain

import (
	"fmt"
	"strings"
)

// Stage identifies one of the three dependent remote processing phases,
// or the composed full sync.
type Stage int

const (
	// StageNone is the zero value used by an idle session.
	StageNone Stage = iota
	// StageOne fetches and categorises source records into the sync data file.
	StageOne
	// StageTwo builds the cross-reference manifest from the sync data.
	StageTwo
	// StageThree materialises target records in resumable batches.
	StageThree
	// StageFull runs stages one, two and three in sequence.
	StageFull
)

// PipelineStages lists the individually runnable stages in execution order.
var PipelineStages = []Stage{StageOne, StageTwo, StageThree}

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageOne:
		return "stage1"
	case StageTwo:
		return "stage2"
	case StageThree:
		return "stage3"
	case StageFull:
		return "full"
	default:
		return "unknown"
	}
}

// Title returns a human-readable label for the stage.
func (s Stage) Title() string {
	switch s {
	case StageOne:
		return "Stage 1"
	case StageTwo:
		return "Stage 2"
	case StageThree:
		return "Stage 3"
	case StageFull:
		return "Full Sync"
	default:
		return "Idle"
	}
}

// ParseStage converts user input ("1", "stage2", "full", ...) into a Stage.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "one", "stage1":
		return StageOne, nil
	case "2", "two", "stage2":
		return StageTwo, nil
	case "3", "three", "stage3":
		return StageThree, nil
	case "full", "all":
		return StageFull, nil
	default:
		return StageNone, fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, s)
	}
}

// PercentBand is the slice of overall progress a stage occupies.
type PercentBand struct {
	Start float64
	End   float64
}

// FullBand covers the whole 0 to 100 range; used for individually run stages.
var FullBand = PercentBand{Start: 0, End: 100}

// fullSyncBands maps each stage to its band when composing a full sync.
var fullSyncBands = map[Stage]PercentBand{
	StageOne:   {Start: 0, End: 33},
	StageTwo:   {Start: 33, End: 66},
	StageThree: {Start: 66, End: 100},
}

// FullSyncBand returns the band a stage occupies inside a full sync.
// Unknown stages get FullBand.
func FullSyncBand(s Stage) PercentBand {
	if b, ok := fullSyncBands[s]; ok {
		return b
	}
	return FullBand
}

// Remap projects a stage-native percentage (0 to 100) into the band.
// Input is clamped to [0, 100].
func (b PercentBand) Remap(pct float64) float64 {
	return b.Start + (b.End-b.Start)*ClampPercent(pct)/100
}

// ClampPercent bounds pct to [0, 100].
func ClampPercent(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
