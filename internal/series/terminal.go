// Package series reduces a traffic-light event log into a per-event duration
// matrix and segments that matrix into quasi-cycles.
//
// A log must end with a synthetic terminal event (see WithTerminal) so every
// real event has a successor and therefore a duration. Durations are
// attributed to the stage a sub-stage is green for, or to a residual
// amber/red column otherwise. Segmentation then walks the matrix once,
// accumulating green time per stage until a recurrence policy closes the
// current quasi-cycle.
package series

import (
	"github.com/rewired-gh/sigsplit/internal/models"
)

// WithTerminal returns a copy of events extended by a synthetic event at
// endTime that repeats the first event's sub-stage and state.
func WithTerminal(events []models.RawEvent, endTime float64) ([]models.RawEvent, error) {
	if len(events) == 0 {
		return nil, models.NewConfigError("events", "log is empty")
	}
	last := events[len(events)-1]
	if endTime < last.Time {
		return nil, models.NewConfigError("end_time", "%g precedes the last event at %g", endTime, last.Time)
	}

	out := make([]models.RawEvent, len(events), len(events)+1)
	copy(out, events)
	terminal := events[0]
	terminal.Time = endTime
	return append(out, terminal), nil
}
