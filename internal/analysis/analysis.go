// Package analysis runs the signal-timing pipeline over one traffic light:
//
//	log -> terminal row -> stage table -> green designation
//	    -> reduced matrix -> quasi-cycle buckets -> display data
//
// and the coordination analysis between two traffic lights in both
// directions. Each step fails the whole run; no partial result is returned.
package analysis

import (
	"fmt"
	"math"

	"github.com/rewired-gh/sigsplit/internal/display"
	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
	"github.com/rewired-gh/sigsplit/internal/series"
	"github.com/rewired-gh/sigsplit/internal/stages"
)

// Params configures a single-light run.
type Params struct {
	Assignment  []int
	StageNames  []models.StageName
	Method      stages.Method
	GreenSymbol models.Indicator
	// EndTime is the time of the synthetic terminal row. Zero uses the time
	// of the last event.
	EndTime float64
	Policy  series.Policy
	Segment series.Options
	// AlignEachStage also segments once per stage with buckets aligned to
	// that stage's first green onset.
	AlignEachStage bool
	NumBins        int
	View           display.View
}

// Result holds every intermediate product of a run.
type Result struct {
	Events  []models.RawEvent
	Table   *models.StageTable
	Greens  models.GreenSet
	Matrix  *models.ReducedMatrix
	Totals  []float64
	Buckets []models.CycleBucket
	Aligned map[models.StageName][]models.CycleBucket
	Display display.Data
}

// Run executes the pipeline. events are not modified.
func Run(events []models.RawEvent, p Params) (*Result, error) {
	if len(events) == 0 {
		return nil, models.NewConfigError("events", "log is empty")
	}

	end := p.EndTime
	if end == 0 {
		end = events[len(events)-1].Time
		logger.Warn("No end time given, ending the log at the last event (t=%g); its duration is counted as 0", end)
	}
	extended, err := series.WithTerminal(events, end)
	if err != nil {
		return nil, fmt.Errorf("failed to extend log: %w", err)
	}

	table, err := stages.Classify(extended, p.Assignment, p.StageNames, p.Method)
	if err != nil {
		return nil, fmt.Errorf("failed to classify stages: %w", err)
	}
	for _, row := range table.Rows {
		logger.Debug("Sub-stage %s", stages.Describe(table, row.SubStageID))
	}
	greens, err := stages.GreenSubStages(table, p.GreenSymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to designate green sub-stages: %w", err)
	}
	matrix, err := series.ReduceWith(extended, table.Stages, greens)
	if err != nil {
		return nil, fmt.Errorf("failed to reduce log: %w", err)
	}
	buckets, err := series.Segment(matrix, greens, p.Policy, p.Segment)
	if err != nil {
		return nil, fmt.Errorf("failed to segment cycles: %w", err)
	}

	res := &Result{
		Events:  extended,
		Table:   table,
		Greens:  greens,
		Matrix:  matrix,
		Totals:  series.Totals(matrix),
		Buckets: buckets,
	}

	if p.AlignEachStage {
		res.Aligned = make(map[models.StageName][]models.CycleBucket, len(table.Stages))
		for _, stage := range table.Stages {
			opts := p.Segment
			opts.AlignTo = stage
			aligned, err := series.Segment(matrix, greens, p.Policy, opts)
			if err != nil {
				return nil, fmt.Errorf("failed to segment cycles aligned to %s: %w", stage, err)
			}
			res.Aligned[stage] = aligned
		}
	}

	edges, err := display.BinEdges(matrix, p.NumBins)
	if err != nil {
		return nil, fmt.Errorf("failed to compute histogram bins: %w", err)
	}
	res.Display, err = display.Recompute(matrix, table, edges, p.View)
	if err != nil {
		return nil, fmt.Errorf("failed to compute display data: %w", err)
	}

	logger.Info("Analyzed %d events: %d sub-stages, %d stages, %d cycles (%s)",
		len(events), len(table.Rows), len(table.Stages), len(buckets), p.Policy)
	return res, nil
}

// MeanShares averages each stage's green share over the non-degenerate
// buckets. Stages get NaN when no bucket qualifies.
func MeanShares(buckets []models.CycleBucket, stageNames []models.StageName) map[models.StageName]float64 {
	sums := make(map[models.StageName]float64, len(stageNames))
	var n int
	for i := range buckets {
		if buckets[i].Degenerate {
			continue
		}
		n++
		for _, s := range stageNames {
			sums[s] += buckets[i].Shares[s]
		}
	}
	for _, s := range stageNames {
		if n == 0 {
			sums[s] = math.NaN()
			continue
		}
		sums[s] /= float64(n)
	}
	return sums
}
