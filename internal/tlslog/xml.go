package tlslog

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/rewired-gh/sigsplit/internal/models"
)

type xmlState struct {
	Time      float64 `xml:"time,attr"`
	ID        string  `xml:"id,attr"`
	ProgramID string  `xml:"programID,attr"`
	Phase     string  `xml:"phase,attr"`
	State     string  `xml:"state,attr"`
}

// ReadXML decodes a SUMO tlsStates document one tlsState element at a time.
func ReadXML(r io.Reader, opts Options) ([]models.RawEvent, error) {
	dec := xml.NewDecoder(r)
	var events []models.RawEvent
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "tlsState" {
			continue
		}

		var s xmlState
		if err := dec.DecodeElement(&s, &start); err != nil {
			return nil, fmt.Errorf("failed to decode tlsState: %w", err)
		}
		if !opts.keep(s.ID) {
			continue
		}
		events = append(events, models.RawEvent{
			Time:       s.Time,
			SubStageID: models.SubStageID(s.Phase),
			State:      s.State,
			TLSID:      s.ID,
			ProgramID:  s.ProgramID,
		})
	}
	return events, nil
}
