package display

import (
	"github.com/rewired-gh/sigsplit/internal/models"
)

// Session owns the view of one interactive display. Handlers for sliders
// and radio buttons call its setters and redraw from the returned Data.
type Session struct {
	matrix  *models.ReducedMatrix
	table   *models.StageTable
	edges   []float64
	initial View
	view    View
}

// NewSession prepares a session over an immutable matrix.
func NewSession(m *models.ReducedMatrix, table *models.StageTable, numBins int, initial View) (*Session, error) {
	edges, err := BinEdges(m, numBins)
	if err != nil {
		return nil, err
	}
	s := &Session{matrix: m, table: table, edges: edges, initial: initial, view: initial}
	if _, err := s.Current(); err != nil {
		return nil, err
	}
	return s, nil
}

// View returns the current view.
func (s *Session) View() View {
	return s.view
}

// Current recomputes the data for the current view.
func (s *Session) Current() (Data, error) {
	return Recompute(s.matrix, s.table, s.edges, s.view)
}

// SetWindow moves the time window. An invalid window leaves the view unchanged.
func (s *Session) SetWindow(start, end float64) (Data, error) {
	next := s.view
	next.WindowStart, next.WindowEnd = start, end
	return s.apply(next)
}

// SetDensity switches histograms between frequency and probability density.
func (s *Session) SetDensity(density bool) (Data, error) {
	next := s.view
	next.Density = density
	return s.apply(next)
}

// SetGreenOnly hides or shows the amber/red column of the split.
func (s *Session) SetGreenOnly(greenOnly bool) (Data, error) {
	next := s.view
	next.GreenOnly = greenOnly
	return s.apply(next)
}

// Reset restores the initial view.
func (s *Session) Reset() (Data, error) {
	return s.apply(s.initial)
}

func (s *Session) apply(next View) (Data, error) {
	data, err := Recompute(s.matrix, s.table, s.edges, next)
	if err != nil {
		return Data{}, err
	}
	s.view = next
	return data, nil
}
