package tlslog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rewired-gh/sigsplit/internal/models"
)

// ReadCSV decodes a CSV log. Column names are matched case-insensitively;
// "phase" and "subStageID" are synonyms.
func ReadCSV(r io.Reader, opts Options) ([]models.RawEvent, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.NewConfigError("csv", "missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idx := func(cols ...string) int {
		for i, h := range head {
			for _, col := range cols {
				if strings.EqualFold(strings.TrimSpace(h), col) {
					return i
				}
			}
		}
		return -1
	}
	timeCol := idx("time")
	idCol := idx("phase", "subStageID")
	stateCol := idx("state")
	tlsCol := idx("id")
	programCol := idx("programID")
	if timeCol < 0 || idCol < 0 || stateCol < 0 {
		return nil, models.NewConfigError("csv", "header must name time, phase and state columns, got %v", head)
	}

	field := func(rec []string, col int) string {
		if col < 0 || col >= len(rec) {
			return ""
		}
		return rec[col]
	}

	var events []models.RawEvent
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		if !opts.keep(field(rec, tlsCol)) {
			continue
		}

		t, err := strconv.ParseFloat(field(rec, timeCol), 64)
		if err != nil {
			return nil, models.NewConfigError("time", "line %d: %v", line, err)
		}
		events = append(events, models.RawEvent{
			Time:       t,
			SubStageID: models.SubStageID(field(rec, idCol)),
			State:      field(rec, stateCol),
			TLSID:      field(rec, tlsCol),
			ProgramID:  field(rec, programCol),
		})
	}
	return events, nil
}
