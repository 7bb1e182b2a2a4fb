package offset

import (
	"github.com/samber/lo"

	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
)

// Intervals extracts green windows from a log: each event of the onset
// sub-stage opens a window closed by the next event of the end sub-stage.
// An onset without a later end event is dropped.
func Intervals(events []models.RawEvent, onset, end models.SubStageID) ([]models.GreenInterval, error) {
	if onset == "" || end == "" {
		return nil, models.NewConfigError("intervals", "onset and end sub-stages are required")
	}
	if onset == end {
		return nil, models.NewConfigError("intervals", "onset and end sub-stage are both %s", onset)
	}

	times := func(id models.SubStageID) []float64 {
		return lo.FilterMap(events, func(e models.RawEvent, _ int) (float64, bool) {
			return e.Time, e.SubStageID == id
		})
	}
	starts, ends := times(onset), times(end)

	intervals := make([]models.GreenInterval, 0, len(starts))
	j := 0
	for _, s := range starts {
		for j < len(ends) && ends[j] <= s {
			j++
		}
		if j == len(ends) {
			logger.Debug("Dropping %d trailing onsets of %s without an end", len(starts)-len(intervals), onset)
			break
		}
		intervals = append(intervals, models.GreenInterval{Start: s, End: ends[j]})
		j++
	}
	return intervals, nil
}
