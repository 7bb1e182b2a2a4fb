package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/sigsplit/internal/models"
)

func scenarioEvents() []models.RawEvent {
	return []models.RawEvent{
		{Time: 0, SubStageID: "A", State: "rg"},
		{Time: 10, SubStageID: "B", State: "gr"},
		{Time: 20, SubStageID: "A", State: "rg"},
		{Time: 30, SubStageID: "A", State: "rg"},
	}
}

func TestClassify_FirstMethod(t *testing.T) {
	table, err := Classify(scenarioEvents(), []int{0, 1}, []models.StageName{"S0", "S1"}, MethodFirst)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, models.SubStageID("A"), table.Rows[0].SubStageID)
	assert.Equal(t, models.SubStageID("B"), table.Rows[1].SubStageID)

	tests := []struct {
		id    models.SubStageID
		stage models.StageName
		want  models.Indicator
	}{
		{"A", "S0", models.Red},
		{"A", "S1", models.Green},
		{"B", "S0", models.Green},
		{"B", "S1", models.Red},
	}
	for _, tt := range tests {
		got, ok := table.Indicator(tt.id, tt.stage)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "%s/%s", tt.id, tt.stage)
	}
}

func TestClassify_ModeVersusFirst(t *testing.T) {
	events := []models.RawEvent{{Time: 0, SubStageID: "0", State: "yggrrrgr"}}
	assignment := []int{0, 0, 0, 1, 1, 1, 0, 1}
	names := []models.StageName{"NS", "WE"}

	byMode, err := Classify(events, assignment, names, MethodMode)
	require.NoError(t, err)
	assert.Equal(t, []models.Indicator{models.Green, models.Red}, byMode.Rows[0].Indicators)

	byFirst, err := Classify(events, assignment, names, MethodFirst)
	require.NoError(t, err)
	assert.Equal(t, []models.Indicator{models.Amber, models.Red}, byFirst.Rows[0].Indicators)
}

func TestClassify_ModeTieBreak(t *testing.T) {
	// Stage 0 sees y, G, G, y: tie goes to the indicator seen first.
	events := []models.RawEvent{{Time: 0, SubStageID: "0", State: "yGGyr"}}
	table, err := Classify(events, []int{0, 0, 0, 0, 1}, []models.StageName{"S0", "S1"}, MethodMode)
	require.NoError(t, err)
	assert.Equal(t, models.Amber, table.Rows[0].Indicators[0])
}

func TestMode_TieGoesToFirstOccurrence(t *testing.T) {
	tests := []struct {
		name  string
		chars string
		want  models.Indicator
	}{
		{name: "g first, y completes the tie first", chars: "gyyg", want: models.Green},
		{name: "y first", chars: "ygGy", want: models.Amber},
		{name: "clear majority", chars: "rGGG", want: models.GreenPriority},
		{name: "all distinct", chars: "ryg", want: models.Red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chars := make([]models.Indicator, len(tt.chars))
			for i := range tt.chars {
				chars[i] = models.Indicator(tt.chars[i])
			}
			assert.Equal(t, tt.want, mode(chars))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	events := scenarioEvents()
	first, err := Classify(events, []int{0, 1}, []models.StageName{"S0", "S1"}, MethodMode)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Classify(events, []int{0, 1}, []models.StageName{"S0", "S1"}, MethodMode)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestClassify_DoesNotMutateInputs(t *testing.T) {
	events := scenarioEvents()
	names := []models.StageName{"S0", "S1"}
	table, err := Classify(events, []int{0, 1}, names, MethodMode)
	require.NoError(t, err)

	table.Stages[0] = "changed"
	assert.Equal(t, models.StageName("S0"), names[0])
	assert.Equal(t, scenarioEvents(), events)
}

func TestClassify_Conflict(t *testing.T) {
	events := []models.RawEvent{
		{Time: 0, SubStageID: "A", State: "rg"},
		{Time: 10, SubStageID: "A", State: "gr"},
	}
	_, err := Classify(events, []int{0, 1}, []models.StageName{"S0", "S1"}, MethodMode)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrClassificationConflict))

	var conflict *models.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.SubStageID("A"), conflict.SubStageID)
	assert.Equal(t, []string{"gr", "rg"}, conflict.States)
}

func TestClassify_ConfigurationErrors(t *testing.T) {
	names := []models.StageName{"S0", "S1"}
	tests := []struct {
		name       string
		events     []models.RawEvent
		assignment []int
		names      []models.StageName
		method     Method
	}{
		{name: "assignment too short", events: scenarioEvents(), assignment: []int{0}, names: names, method: MethodMode},
		{name: "assignment too long", events: scenarioEvents(), assignment: []int{0, 1, 1}, names: names, method: MethodMode},
		{name: "unknown method", events: scenarioEvents(), assignment: []int{0, 1}, names: names, method: "median"},
		{name: "ordinal out of range", events: scenarioEvents(), assignment: []int{0, 2}, names: names, method: MethodMode},
		{name: "stage without movements", events: scenarioEvents(), assignment: []int{0, 0}, names: names, method: MethodMode},
		{name: "duplicate names", events: scenarioEvents(), assignment: []int{0, 1}, names: []models.StageName{"S", "S"}, method: MethodMode},
		{name: "empty log", events: nil, assignment: []int{0, 1}, names: names, method: MethodMode},
		{
			name: "later event of another width",
			events: []models.RawEvent{
				{Time: 0, SubStageID: "A", State: "rg"},
				{Time: 5, SubStageID: "B", State: "grr"},
			},
			assignment: []int{0, 1},
			names:      names,
			method:     MethodFirst,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.events, tt.assignment, tt.names, tt.method)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)
		})
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("first")
	require.NoError(t, err)
	assert.Equal(t, MethodFirst, m)

	_, err = ParseMethod("last")
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestDescribe(t *testing.T) {
	table, err := Classify(scenarioEvents(), []int{0, 1}, []models.StageName{"S0", "S1"}, MethodFirst)
	require.NoError(t, err)
	assert.Equal(t, "A: S0=r S1=g", Describe(table, "A"))
	assert.Equal(t, "Z: unknown", Describe(table, "Z"))
}
