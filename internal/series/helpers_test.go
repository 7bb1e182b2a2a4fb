package series

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/sigsplit/internal/models"
	"github.com/rewired-gh/sigsplit/internal/stages"
)

var scenarioStages = []models.StageName{"S0", "S1"}

// scenarioLog is the three-event log A, B, A extended to t=30.
func scenarioLog(t *testing.T) []models.RawEvent {
	t.Helper()
	events, err := WithTerminal([]models.RawEvent{
		{Time: 0, SubStageID: "A", State: "rg"},
		{Time: 10, SubStageID: "B", State: "gr"},
		{Time: 20, SubStageID: "A", State: "rg"},
	}, 30)
	require.NoError(t, err)
	return events
}

func scenarioMatrix(t *testing.T) (*models.ReducedMatrix, models.GreenSet) {
	t.Helper()
	events := scenarioLog(t)
	table, err := stages.Classify(events, []int{0, 1}, scenarioStages, stages.MethodFirst)
	require.NoError(t, err)
	greens, err := stages.GreenSubStages(table, models.Green)
	require.NoError(t, err)
	m, err := Reduce(events, table, models.Green)
	require.NoError(t, err)
	return m, greens
}

// cycleLog builds a two-stage fixed-time plan: NS green 30s, amber 3s,
// WE green 20s, amber 3s, repeated n times.
func cycleLog(n int) []models.RawEvent {
	var events []models.RawEvent
	t := 0.0
	for c := 0; c < n; c++ {
		events = append(events,
			models.RawEvent{Time: t, SubStageID: "0", State: "GGrr"},
			models.RawEvent{Time: t + 30, SubStageID: "1", State: "yyrr"},
			models.RawEvent{Time: t + 33, SubStageID: "2", State: "rrGG"},
			models.RawEvent{Time: t + 53, SubStageID: "3", State: "rryy"},
		)
		t += 56
	}
	events = append(events, models.RawEvent{Time: t, SubStageID: "0", State: "GGrr"})
	return events
}
