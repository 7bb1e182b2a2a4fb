// Package offset measures signal coordination between two intersections.
//
// For every green onset of a reference intersection it reports whether the
// other intersection is green at that moment, and how much of each of the
// next green windows at the other intersection a platoon released at the
// onset could use, given the travel time between the two junctions.
package offset

import (
	"sort"

	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
)

// Analyze computes one coordination row per reference interval. travel is
// the travel time at progression speed between the intersections; maxOrder
// is the number of upcoming windows to evaluate. Intervals with End < Start
// produce undefined results.
func Analyze(reference, other []models.GreenInterval, travel float64, maxOrder int) ([]models.AnalysisRow, error) {
	if maxOrder < 1 {
		return nil, models.NewConfigError("max_order", "must be at least 1, got %d", maxOrder)
	}

	upcoming := make([]models.GreenInterval, len(other))
	copy(upcoming, other)
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start < upcoming[j].Start
	})

	rows := make([]models.AnalysisRow, len(reference))
	for i, ref := range reference {
		row := models.AnalysisRow{
			Reference: ref,
			Orders:    make([]models.OrderWindow, maxOrder),
		}

		if match, ok := containing(other, ref.Start); ok {
			row.Concurrent = true
			if usable := ref.Start - match.End - travel; usable > 0 {
				row.ConcurUsable = usable
			}
		}

		// first interval starting strictly after the onset
		k := sort.Search(len(upcoming), func(j int) bool {
			return upcoming[j].Start > ref.Start
		})
		candidates := upcoming[k:]
		for order := 1; order <= maxOrder; order++ {
			row.Orders[order-1] = window(ref, candidates, order, travel)
		}
		rows[i] = row
	}

	logger.Debug("Analyzed %d reference intervals against %d others (travel %.1fs, %d orders)",
		len(reference), len(other), travel, maxOrder)
	return rows, nil
}

// containing returns the first interval whose [Start, End) holds t.
func containing(intervals []models.GreenInterval, t float64) (models.GreenInterval, bool) {
	for _, iv := range intervals {
		if iv.Contains(t) {
			return iv, true
		}
	}
	return models.GreenInterval{}, false
}

// window evaluates the order-th upcoming interval. A platoon leaving at the
// reference onset reaches the other junction after travel seconds; the
// usable time is the part of the window left once it arrives.
func window(ref models.GreenInterval, candidates []models.GreenInterval, order int, travel float64) models.OrderWindow {
	w := models.OrderWindow{Order: order}
	if len(candidates) < order {
		return w
	}
	next := candidates[order-1]

	w.Available = true
	w.Offset = next.Start - ref.Start

	usableEnd := next.End - ref.Start - travel
	usableStart := next.Start - ref.Start - travel
	switch {
	case usableEnd > 0 && usableStart < 0:
		w.Usable = usableEnd
	case usableEnd > 0 && usableStart > 0:
		w.Usable = next.Width()
	default:
		w.Usable = 0
	}
	return w
}
