package series

import (
	"math"

	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
	"github.com/rewired-gh/sigsplit/internal/stages"
)

// Reduce builds the reduced matrix of a terminal-extended log. A sub-stage
// counts as green for a stage when the stage table shows symbol for it.
func Reduce(events []models.RawEvent, table *models.StageTable, symbol models.Indicator) (*models.ReducedMatrix, error) {
	greens, err := stages.GreenSubStages(table, symbol)
	if err != nil {
		return nil, err
	}
	return ReduceWith(events, table.Stages, greens)
}

// ReduceWith builds the reduced matrix from an explicit green designation.
// Every row but the last gets events[i+1].Time - events[i].Time in exactly one
// column; the last row is all NaN.
func ReduceWith(events []models.RawEvent, stageNames []models.StageName, greens models.GreenSet) (*models.ReducedMatrix, error) {
	if len(events) == 0 {
		return nil, models.NewConfigError("events", "log is empty")
	}
	if err := greens.Validate(stageNames); err != nil {
		return nil, err
	}
	owners, err := greens.Owners(stageNames)
	if err != nil {
		return nil, err
	}

	column := make(map[models.StageName]int, len(stageNames))
	for i, name := range stageNames {
		column[name] = i
	}

	rows := make([]models.ReducedRow, len(events))
	var residualRows int
	for i := range events {
		row := models.ReducedRow{
			Time:       events[i].Time,
			SubStageID: events[i].SubStageID,
			Durations:  nanSlice(len(stageNames)),
			Residual:   math.NaN(),
		}
		if i+1 < len(events) {
			d := events[i+1].Time - events[i].Time
			if d < 0 {
				return nil, models.NewConfigError("events",
					"event %d at t=%g precedes event %d at t=%g", i+1, events[i+1].Time, i, events[i].Time)
			}
			if stage, ok := owners[events[i].SubStageID]; ok {
				row.Durations[column[stage]] = d
			} else {
				row.Residual = d
				residualRows++
			}
		}
		rows[i] = row
	}

	logger.Debug("Reduced %d events: %d green rows, %d residual rows",
		len(rows), len(rows)-1-residualRows, residualRows)

	names := make([]models.StageName, len(stageNames))
	copy(names, stageNames)
	return &models.ReducedMatrix{Stages: names, Rows: rows}, nil
}

// Totals sums each stage column and the residual column, ignoring NaN cells.
// The result has len(m.Stages)+1 entries, residual last.
func Totals(m *models.ReducedMatrix) []float64 {
	return WindowTotals(m, math.Inf(-1), math.Inf(1))
}

// WindowTotals is Totals restricted to rows with from < Time < to.
func WindowTotals(m *models.ReducedMatrix, from, to float64) []float64 {
	totals := make([]float64, len(m.Stages)+1)
	for i := range m.Rows {
		row := &m.Rows[i]
		if row.Time <= from || row.Time >= to {
			continue
		}
		col := row.Column()
		if col < 0 {
			continue
		}
		d, _ := row.Duration()
		totals[col] += d
	}
	return totals
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

