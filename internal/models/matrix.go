package models

import "math"

// ReducedRow is one row of the reduced matrix. Durations holds the gap to the
// next event in the column of the stage the sub-stage is green for; every other
// cell is NaN. Residual holds the gap when the sub-stage is green for no stage.
type ReducedRow struct {
	Time       float64
	SubStageID SubStageID
	Durations  []float64 // aligned with ReducedMatrix.Stages
	Residual   float64
}

// Column returns the stage column the row's duration is attributed to,
// len(Durations) for the residual column, or -1 when nothing is attributed.
func (r *ReducedRow) Column() int {
	for i, d := range r.Durations {
		if !math.IsNaN(d) {
			return i
		}
	}
	if !math.IsNaN(r.Residual) {
		return len(r.Durations)
	}
	return -1
}

// Duration returns the attributed duration of the row.
func (r *ReducedRow) Duration() (float64, bool) {
	col := r.Column()
	switch {
	case col < 0:
		return math.NaN(), false
	case col == len(r.Durations):
		return r.Residual, true
	default:
		return r.Durations[col], true
	}
}

// ReducedMatrix is the dense per-event duration table, one row per raw event
// including the synthetic terminal one.
type ReducedMatrix struct {
	Stages []StageName
	Rows   []ReducedRow
}

// Len returns the number of rows.
func (m *ReducedMatrix) Len() int {
	return len(m.Rows)
}

// Column returns a copy of one stage column; col == len(Stages) selects the
// residual column.
func (m *ReducedMatrix) Column(col int) []float64 {
	out := make([]float64, len(m.Rows))
	for i := range m.Rows {
		if col == len(m.Stages) {
			out[i] = m.Rows[i].Residual
		} else {
			out[i] = m.Rows[i].Durations[col]
		}
	}
	return out
}
