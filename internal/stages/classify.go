// Package stages derives the per-stage indicator of every sub-stage of a
// traffic-light log.
//
// Each movement position of the state string is assigned to a logical stage.
// A stage's indicator for a sub-stage is resolved from the characters at its
// movement positions, either by majority (mode) or by taking the first one:
//
//	assignment = [0 0 0 1 1 1 0 1]
//	state      = "yggrrrgr"
//	mode  -> stage0: g (3 g over 1 y), stage1: r
//	first -> stage0: y,                stage1: r
package stages

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
)

// Method selects how a stage's indicator is resolved from its movements.
type Method string

const (
	// MethodMode takes the most frequent indicator. Ties go to the indicator
	// seen first in assignment order.
	MethodMode Method = "mode"
	// MethodFirst takes the indicator of the stage's first movement.
	MethodFirst Method = "first"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodMode, MethodFirst:
		return Method(s), nil
	default:
		return "", models.NewConfigError("method", "unknown classification method %q", s)
	}
}

// Classify builds the stage table of a log. assignment maps every movement
// position of the state string to a stage ordinal indexing names. The inputs
// are not modified.
func Classify(events []models.RawEvent, assignment []int, names []models.StageName, method Method) (*models.StageTable, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, models.NewConfigError("events", "log is empty")
	}

	positions, err := movementPositions(assignment, names)
	if err != nil {
		return nil, err
	}

	for i := range events {
		if len(events[i].State) != len(assignment) {
			return nil, models.NewConfigError("stage_indices",
				"%d movements assigned but event %d (t=%g) has state %q of width %d",
				len(assignment), i, events[i].Time, events[i].State, len(events[i].State))
		}
	}

	states := lo.GroupBy(events, func(e models.RawEvent) models.SubStageID { return e.SubStageID })
	ids := lo.Uniq(lo.Map(events, func(e models.RawEvent, _ int) models.SubStageID { return e.SubStageID }))

	rows := make([]models.StageRow, 0, len(ids))
	for _, id := range ids {
		distinct := lo.Uniq(lo.Map(states[id], func(e models.RawEvent, _ int) string { return e.State }))
		if len(distinct) > 1 {
			sort.Strings(distinct)
			return nil, &models.ConflictError{SubStageID: id, States: distinct}
		}

		first := states[id][0]
		indicators := make([]models.Indicator, len(names))
		for stage, pos := range positions {
			chars := make([]models.Indicator, len(pos))
			for k, p := range pos {
				chars[k] = first.Indicator(p)
			}
			indicators[stage] = resolve(chars, method)
		}
		rows = append(rows, models.StageRow{
			SubStageID: id,
			State:      first.State,
			Indicators: indicators,
		})
	}

	logger.Debug("Classified %d sub-stages over %d stages (%s)", len(rows), len(names), method)

	stagesCopy := make([]models.StageName, len(names))
	copy(stagesCopy, names)
	return models.NewStageTable(stagesCopy, rows), nil
}

// movementPositions groups movement positions by stage ordinal.
func movementPositions(assignment []int, names []models.StageName) ([][]int, error) {
	if len(names) == 0 {
		return nil, models.NewConfigError("stage_names", "at least one stage is required")
	}
	if len(assignment) == 0 {
		return nil, models.NewConfigError("stage_indices", "at least one movement is required")
	}
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return nil, models.NewConfigError("stage_names", "duplicate stage name %q", dups[0])
	}

	positions := make([][]int, len(names))
	for pos, ord := range assignment {
		if ord < 0 || ord >= len(names) {
			return nil, models.NewConfigError("stage_indices",
				"movement %d is assigned to stage %d, but only %d stages are named", pos, ord, len(names))
		}
		positions[ord] = append(positions[ord], pos)
	}
	for ord, pos := range positions {
		if len(pos) == 0 {
			return nil, models.NewConfigError("stage_indices", "stage %q has no movements", names[ord])
		}
	}
	return positions, nil
}

func resolve(chars []models.Indicator, method Method) models.Indicator {
	if method == MethodFirst {
		return chars[0]
	}
	return mode(chars)
}

// mode returns the most frequent indicator; ties go to the indicator that
// occurs first in assignment order.
func mode(chars []models.Indicator) models.Indicator {
	counts := lo.CountValues(chars)
	best := chars[0]
	for _, c := range chars {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// Describe renders a table row for logs.
func Describe(table *models.StageTable, id models.SubStageID) string {
	row, ok := table.Row(id)
	if !ok {
		return fmt.Sprintf("%s: unknown", id)
	}
	out := string(id) + ":"
	for i, stage := range table.Stages {
		out += fmt.Sprintf(" %s=%s", stage, row.Indicators[i])
	}
	return out
}
