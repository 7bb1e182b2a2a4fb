// Package display derives the data behind the interactive split, distribution
// and signal-plan panels from an immutable reduced matrix.
//
// Every panel update is a pure recomputation from the matrix and the current
// View. Session holds the view a UI is showing and hands back fresh display
// data on every change; nothing is kept in package state.
package display

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/sigsplit/internal/models"
	"github.com/rewired-gh/sigsplit/internal/series"
)

// ResidualLabel names the amber/red column in split output.
const ResidualLabel = "Yellow & red"

// View is the user-adjustable part of the display.
type View struct {
	WindowStart float64 `json:"window_start" yaml:"window_start"`
	WindowEnd   float64 `json:"window_end" yaml:"window_end"`
	Density     bool    `json:"density" yaml:"density"`
	GreenOnly   bool    `json:"green_only" yaml:"green_only"`
}

// Split is the cumulative green split bar.
type Split struct {
	Labels []string  `json:"labels" yaml:"labels"`
	Totals []float64 `json:"totals" yaml:"totals"`
	Shares []float64 `json:"shares" yaml:"shares"`
	// Edges are the cumulative bar positions, starting at 0.
	Edges []float64 `json:"edges" yaml:"edges"`
}

// Histogram is the green-duration distribution of one stage.
type Histogram struct {
	Stage   models.StageName `json:"stage" yaml:"stage"`
	Heights []float64        `json:"heights" yaml:"heights"`
	Samples int              `json:"samples" yaml:"samples"`
}

// PlanBar is one sub-stage interval of the signal plan.
type PlanBar struct {
	Start      float64            `json:"start" yaml:"start"`
	Width      float64            `json:"width" yaml:"width"`
	SubStageID models.SubStageID  `json:"sub_stage_id" yaml:"sub_stage_id"`
	Indicators []models.Indicator `json:"indicators" yaml:"indicators"`
}

// Data is everything the panels need for one view.
type Data struct {
	View       View        `json:"view" yaml:"view"`
	Split      Split       `json:"split" yaml:"split"`
	BinEdges   []float64   `json:"bin_edges" yaml:"bin_edges"`
	Histograms []Histogram `json:"histograms" yaml:"histograms"`
	Plan       []PlanBar   `json:"plan" yaml:"plan"`
}

// BinEdges returns numBins+1 evenly spaced edges over every green duration of
// the matrix. Edges stay fixed while the window changes so histograms remain
// comparable. A constant sample is widened by half a second each side.
func BinEdges(m *models.ReducedMatrix, numBins int) ([]float64, error) {
	if numBins < 1 {
		return nil, models.NewConfigError("num_bins", "must be at least 1, got %d", numBins)
	}

	var values []float64
	for col := range m.Stages {
		for _, v := range m.Column(col) {
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}
	}

	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = floats.Min(values), floats.Max(values)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, numBins+1), lo, hi)
	// The last bin is closed on the right.
	edges[numBins] = math.Nextafter(hi, math.Inf(1))
	return edges, nil
}

// Recompute derives the display data for a view. The window is open on both
// ends: rows with WindowStart < Time < WindowEnd are selected.
func Recompute(m *models.ReducedMatrix, table *models.StageTable, edges []float64, v View) (Data, error) {
	if v.WindowEnd <= v.WindowStart {
		return Data{}, models.NewConfigError("window", "end %g must be after start %g", v.WindowEnd, v.WindowStart)
	}
	if len(edges) < 2 || !sort.Float64sAreSorted(edges) {
		return Data{}, models.NewConfigError("bin_edges", "need at least two ascending edges")
	}

	return Data{
		View:       v,
		Split:      split(m, v),
		BinEdges:   append([]float64(nil), edges...),
		Histograms: histograms(m, edges, v),
		Plan:       plan(m, table, v),
	}, nil
}

func split(m *models.ReducedMatrix, v View) Split {
	totals := series.WindowTotals(m, v.WindowStart, v.WindowEnd)
	labels := make([]string, 0, len(totals))
	for _, s := range m.Stages {
		labels = append(labels, string(s))
	}
	labels = append(labels, ResidualLabel)
	if v.GreenOnly {
		totals = totals[:len(m.Stages)]
		labels = labels[:len(m.Stages)]
	}

	shares := make([]float64, len(totals))
	if sum := floats.Sum(totals); sum > 0 {
		floats.ScaleTo(shares, 1/sum, totals)
	}

	edges := make([]float64, len(totals)+1)
	floats.CumSum(edges[1:], totals)

	return Split{Labels: labels, Totals: totals, Shares: shares, Edges: edges}
}

func histograms(m *models.ReducedMatrix, edges []float64, v View) []Histogram {
	lo, hi := edges[0], edges[len(edges)-1]
	out := make([]Histogram, len(m.Stages))
	for col, stage := range m.Stages {
		var values []float64
		for i := range m.Rows {
			row := &m.Rows[i]
			if row.Time <= v.WindowStart || row.Time >= v.WindowEnd {
				continue
			}
			d := row.Durations[col]
			if math.IsNaN(d) || d < lo || d >= hi {
				continue
			}
			values = append(values, d)
		}
		sort.Float64s(values)

		heights := stat.Histogram(nil, edges, values, nil)
		if v.Density && len(values) > 0 {
			for i := range heights {
				heights[i] /= float64(len(values)) * (edges[i+1] - edges[i])
			}
		}
		out[col] = Histogram{Stage: stage, Heights: heights, Samples: len(values)}
	}
	return out
}

func plan(m *models.ReducedMatrix, table *models.StageTable, v View) []PlanBar {
	var bars []PlanBar
	for i := 0; i+1 < len(m.Rows); i++ {
		start, end := m.Rows[i].Time, m.Rows[i+1].Time
		if end <= v.WindowStart || start >= v.WindowEnd {
			continue
		}
		bar := PlanBar{Start: start, Width: end - start, SubStageID: m.Rows[i].SubStageID}
		if table != nil {
			if row, ok := table.Row(m.Rows[i].SubStageID); ok {
				bar.Indicators = row.Indicators
			}
		}
		bars = append(bars, bar)
	}
	return bars
}
