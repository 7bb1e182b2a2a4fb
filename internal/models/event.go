// Package models defines the core domain entities for the sigsplit application.
// These models describe a traffic-signal event log and the structures derived
// from it: stage tables, reduced duration matrices, quasi-cycle buckets and
// offset coordination tables.
//
// Terminology:
//   - Sub-stage: one indicator-state row class of the raw log, keyed by SubStageID.
//   - Stage: a caller-defined group of movements (e.g. "North-South").
//   - Indicator: one character of a SUMO state string (r, y, g, G, ...).
package models

import (
	"errors"
	"math"
)

// SubStageID identifies one row class of the raw log. Integer phase indices
// coming from simulators are carried in their decimal string form.
type SubStageID string

// StageName is the display name of a logical stage.
type StageName string

// Indicator is a single movement signal character.
type Indicator byte

const (
	Red           Indicator = 'r'
	Amber         Indicator = 'y'
	Green         Indicator = 'g'
	GreenPriority Indicator = 'G'
)

// String returns the indicator character.
func (i Indicator) String() string {
	return string(rune(i))
}

// MarshalText encodes the indicator as its character.
func (i Indicator) MarshalText() ([]byte, error) {
	return []byte{byte(i)}, nil
}

// UnmarshalText decodes a single-character indicator.
func (i *Indicator) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return errors.New("indicator must be exactly one character")
	}
	*i = Indicator(text[0])
	return nil
}

// IsGreenSymbol reports whether the indicator may be used as the green symbol.
func (i Indicator) IsGreenSymbol() bool {
	return i == Green || i == GreenPriority
}

// RawEvent is one indicator change of a traffic light.
type RawEvent struct {
	Time       float64    `json:"time"`                 // Simulation time in seconds
	SubStageID SubStageID `json:"sub_stage_id"`         // Phase / sub-stage key
	State      string     `json:"state"`                // One indicator per movement
	TLSID      string     `json:"tls_id,omitempty"`     // Traffic light id, when the source has one
	ProgramID  string     `json:"program_id,omitempty"` // Signal program, when the source has one
}

// Indicator returns the indicator of the movement at position pos.
func (e *RawEvent) Indicator(pos int) Indicator {
	return Indicator(e.State[pos])
}

// Validate checks that all event fields are valid.
func (e *RawEvent) Validate() error {
	if math.IsNaN(e.Time) || math.IsInf(e.Time, 0) {
		return errors.New("event time must be finite")
	}
	if e.Time < 0 {
		return errors.New("event time must not be negative")
	}
	if e.SubStageID == "" {
		return errors.New("sub-stage ID must not be empty")
	}
	if e.State == "" {
		return errors.New("state must not be empty")
	}
	return nil
}
