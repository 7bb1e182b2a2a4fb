package models

import (
	"errors"
	"fmt"
)

// StageRow holds the per-stage indicators of one sub-stage.
type StageRow struct {
	SubStageID SubStageID  `json:"sub_stage_id" yaml:"sub_stage_id"`
	State      string      `json:"state" yaml:"state"`
	Indicators []Indicator `json:"indicators" yaml:"indicators"` // aligned with StageTable.Stages
}

// StageTable maps every distinct sub-stage to the indicator of each stage.
// Rows keep the order in which sub-stages first appear in the log.
type StageTable struct {
	Stages []StageName `json:"stages" yaml:"stages"`
	Rows   []StageRow  `json:"rows" yaml:"rows"`

	index map[SubStageID]int
}

// NewStageTable builds a table and its lookup index.
func NewStageTable(stages []StageName, rows []StageRow) *StageTable {
	t := &StageTable{Stages: stages, Rows: rows}
	t.index = make(map[SubStageID]int, len(rows))
	for i, row := range rows {
		t.index[row.SubStageID] = i
	}
	return t
}

// Row returns the row of a sub-stage.
func (t *StageTable) Row(id SubStageID) (StageRow, bool) {
	if t.index == nil {
		// zero value or decoded from a report
		for _, row := range t.Rows {
			if row.SubStageID == id {
				return row, true
			}
		}
		return StageRow{}, false
	}
	i, ok := t.index[id]
	if !ok {
		return StageRow{}, false
	}
	return t.Rows[i], true
}

// StageIndex returns the column of a stage, or -1.
func (t *StageTable) StageIndex(name StageName) int {
	for i, s := range t.Stages {
		if s == name {
			return i
		}
	}
	return -1
}

// Indicator returns the indicator a sub-stage shows for a stage.
func (t *StageTable) Indicator(id SubStageID, stage StageName) (Indicator, bool) {
	col := t.StageIndex(stage)
	if col < 0 {
		return 0, false
	}
	row, ok := t.Row(id)
	if !ok {
		return 0, false
	}
	return row.Indicators[col], true
}

// Validate checks that every row carries one indicator per stage.
func (t *StageTable) Validate() error {
	if len(t.Stages) == 0 {
		return errors.New("stage table must have at least one stage")
	}
	seen := make(map[SubStageID]bool, len(t.Rows))
	for _, row := range t.Rows {
		if row.SubStageID == "" {
			return errors.New("stage table row has an empty sub-stage ID")
		}
		if seen[row.SubStageID] {
			return errors.New("stage table has duplicate sub-stage " + string(row.SubStageID))
		}
		seen[row.SubStageID] = true
		if len(row.Indicators) != len(t.Stages) {
			return errors.New("stage table row " + string(row.SubStageID) + " does not cover every stage")
		}
	}
	return nil
}

// GreenSet maps each stage to the sub-stages counted as its green time.
type GreenSet map[StageName][]SubStageID

// Owners returns the stage that owns each green sub-stage.
// It fails when a sub-stage is green for more than one stage, which the
// reducer and segmenter cannot attribute.
func (g GreenSet) Owners(stages []StageName) (map[SubStageID]StageName, error) {
	owners := make(map[SubStageID]StageName)
	for _, stage := range stages {
		for _, id := range g[stage] {
			if prev, ok := owners[id]; ok && prev != stage {
				return nil, NewConfigError("green sub-stages",
					"sub-stage %s is green for both %s and %s", id, prev, stage)
			}
			owners[id] = stage
		}
	}
	return owners, nil
}

// Validate checks that every stage has at least one green sub-stage and that
// no sub-stage is shared between stages.
func (g GreenSet) Validate(stages []StageName) error {
	for _, stage := range stages {
		if len(g[stage]) == 0 {
			return fmt.Errorf("%w: stage %s", ErrNoGreenSubStage, stage)
		}
	}
	_, err := g.Owners(stages)
	return err
}
