package analysis

import (
	"fmt"

	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
	"github.com/rewired-gh/sigsplit/internal/offset"
)

// Junction is one side of a coordination analysis: a log and the sub-stages
// opening and closing its coordinated green.
type Junction struct {
	Name   string
	Events []models.RawEvent
	Onset  models.SubStageID
	End    models.SubStageID
}

// OffsetParams configures a coordination run.
type OffsetParams struct {
	A        Junction
	B        Junction
	Travel   float64
	MaxOrder int
}

// OffsetResult is the coordination table with one junction as reference.
type OffsetResult struct {
	Reference string               `json:"reference" yaml:"reference"`
	Other     string               `json:"other" yaml:"other"`
	Travel    float64              `json:"travel" yaml:"travel"`
	Rows      []models.AnalysisRow `json:"rows" yaml:"rows"`
}

// Offsets analyzes A against B and B against A.
func Offsets(p OffsetParams) ([]OffsetResult, error) {
	if p.Travel < 0 {
		return nil, models.NewConfigError("travel", "must not be negative, got %g", p.Travel)
	}

	a, err := offset.Intervals(p.A.Events, p.A.Onset, p.A.End)
	if err != nil {
		return nil, fmt.Errorf("failed to extract green intervals of %s: %w", p.A.Name, err)
	}
	b, err := offset.Intervals(p.B.Events, p.B.Onset, p.B.End)
	if err != nil {
		return nil, fmt.Errorf("failed to extract green intervals of %s: %w", p.B.Name, err)
	}

	results := make([]OffsetResult, 0, 2)
	for _, dir := range []struct {
		ref, other       string
		refInt, otherInt []models.GreenInterval
	}{
		{p.A.Name, p.B.Name, a, b},
		{p.B.Name, p.A.Name, b, a},
	} {
		rows, err := offset.Analyze(dir.refInt, dir.otherInt, p.Travel, p.MaxOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze %s against %s: %w", dir.ref, dir.other, err)
		}
		results = append(results, OffsetResult{
			Reference: dir.ref,
			Other:     dir.other,
			Travel:    p.Travel,
			Rows:      rows,
		})
	}

	logger.Info("Coordination %s/%s: %d and %d green intervals", p.A.Name, p.B.Name, len(a), len(b))
	return results, nil
}
