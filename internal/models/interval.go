package models

import "errors"

// GreenInterval is one green window of a coordinated stage.
type GreenInterval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Contains reports whether t lies in [Start, End).
func (g GreenInterval) Contains(t float64) bool {
	return g.Start <= t && t < g.End
}

// Width returns End - Start.
func (g GreenInterval) Width() float64 {
	return g.End - g.Start
}

// Validate checks that the interval is well formed.
func (g *GreenInterval) Validate() error {
	if g.End < g.Start {
		return errors.New("green interval end must not precede its start")
	}
	return nil
}

// OrderWindow is the progression opportunity offered by the n-th upcoming
// green of the other intersection. Offset and Usable are only meaningful when
// Available is true; an unavailable window means there were fewer than Order
// upcoming intervals, which is different from zero usable time.
type OrderWindow struct {
	Order     int     `json:"order" yaml:"order"`
	Available bool    `json:"available" yaml:"available"`
	Offset    float64 `json:"offset,omitempty" yaml:"offset,omitempty"`
	Usable    float64 `json:"usable,omitempty" yaml:"usable,omitempty"`
}

// AnalysisRow is the coordination result for one reference green interval.
type AnalysisRow struct {
	Reference    GreenInterval `json:"reference" yaml:"reference"`
	Concurrent   bool          `json:"concurrent" yaml:"concurrent"`
	ConcurUsable float64       `json:"concur_usable" yaml:"concur_usable"`
	Orders       []OrderWindow `json:"orders" yaml:"orders"`
}

// Window returns the window of a given order (1-based).
func (r *AnalysisRow) Window(order int) (OrderWindow, bool) {
	if order < 1 || order > len(r.Orders) {
		return OrderWindow{}, false
	}
	w := r.Orders[order-1]
	return w, w.Available
}
