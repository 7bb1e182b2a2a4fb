package tlslog

import (
	"strconv"

	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
)

// Remap renumbers the phases of one program: an event of programID whose
// sub-stage id is "i" gets newIDs[i]. Several old phases may map to the same
// new id, which merges them. Other events are copied unchanged. An empty
// programID applies the mapping to every event.
func Remap(events []models.RawEvent, programID string, newIDs []models.SubStageID) []models.RawEvent {
	mapping := make(map[models.SubStageID]models.SubStageID, len(newIDs))
	for old, id := range newIDs {
		mapping[models.SubStageID(strconv.Itoa(old))] = id
	}

	out := make([]models.RawEvent, len(events))
	var changed int
	for i, e := range events {
		if programID == "" || e.ProgramID == programID {
			if id, ok := mapping[e.SubStageID]; ok {
				e.SubStageID = id
				changed++
			}
		}
		out[i] = e
	}

	logger.Debug("Remapped %d of %d events of program %q", changed, len(events), programID)
	return out
}
