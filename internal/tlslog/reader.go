// Package tlslog reads traffic-light state logs into raw events.
//
// Two formats are understood: the SUMO tlsStates XML output
//
//	<tlsStates>
//	    <tlsState time="0.00" id="J1" programID="0" phase="0" state="GGrr"/>
//	</tlsStates>
//
// and CSV with a header naming at least time, phase (or subStageID) and state.
package tlslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
)

// Format is a log file format.
type Format string

const (
	FormatXML Format = "xml"
	FormatCSV Format = "csv"
)

// Options filter what is read.
type Options struct {
	// TLSID keeps only records of one traffic light. Empty keeps all.
	TLSID string
}

// ParseFormat validates a format name. An empty name means auto-detect.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatXML, FormatCSV:
		return f, nil
	default:
		return "", models.NewConfigError("format", "unknown log format %q", s)
	}
}

// DetectFormat picks a format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", models.NewConfigError("path", "cannot detect log format of %s", path)
	}
}

// ReadFile reads a log file. An empty format is detected from the extension.
func ReadFile(path string, format Format, opts Options) ([]models.RawEvent, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	events, err := Read(f, format, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	logger.Debug("Read %d events from %s", len(events), path)
	return events, nil
}

// Read decodes a log from r.
func Read(r io.Reader, format Format, opts Options) ([]models.RawEvent, error) {
	var (
		events []models.RawEvent
		err    error
	)
	switch format {
	case FormatXML:
		events, err = ReadXML(r, opts)
	case FormatCSV:
		events, err = ReadCSV(r, opts)
	default:
		return nil, models.NewConfigError("format", "unknown log format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, models.NewConfigError("events", "no records for traffic light %q", opts.TLSID)
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return events, nil
}

func (o Options) keep(tlsID string) bool {
	return o.TLSID == "" || o.TLSID == tlsID
}
