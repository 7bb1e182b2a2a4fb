package analysis

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/rewired-gh/sigsplit/internal/display"
	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
	"github.com/rewired-gh/sigsplit/internal/series"
	"github.com/rewired-gh/sigsplit/internal/stages"
)

// fixedTime returns n cycles of NS green 30s, amber 3s, WE green 20s,
// amber 3s, starting at shift.
func fixedTime(n int, shift float64) []models.RawEvent {
	var events []models.RawEvent
	for c := 0; c < n; c++ {
		at := shift + float64(c)*56
		events = append(events,
			models.RawEvent{Time: at, SubStageID: "0", State: "GGrr"},
			models.RawEvent{Time: at + 30, SubStageID: "1", State: "yyrr"},
			models.RawEvent{Time: at + 33, SubStageID: "2", State: "rrGG"},
			models.RawEvent{Time: at + 53, SubStageID: "3", State: "rryy"},
		)
	}
	return events
}

func params() Params {
	return Params{
		Assignment:  []int{0, 0, 1, 1},
		StageNames:  []models.StageName{"NS", "WE"},
		Method:      stages.MethodMode,
		GreenSymbol: models.GreenPriority,
		EndTime:     224,
		Policy:      series.PolicyFirstRecur,
		NumBins:     10,
		View:        display.View{WindowStart: 0, WindowEnd: 180},
	}
}

func TestRun(t *testing.T) {
	events := fixedTime(4, 0)
	res, err := Run(events, params())
	require.NoError(t, err)

	assert.Len(t, events, 16, "input must not be extended in place")
	assert.Len(t, res.Events, 17)
	assert.Equal(t, 224.0, res.Events[16].Time)

	assert.Len(t, res.Table.Rows, 4)
	assert.Equal(t, models.GreenSet{"NS": {"0"}, "WE": {"2"}}, res.Greens)
	assert.Equal(t, []float64{120, 80, 24}, res.Totals)
	assert.Equal(t, 17, res.Matrix.Len())

	require.Len(t, res.Buckets, 4)
	for _, b := range res.Buckets {
		assert.InDelta(t, 0.6, b.Shares["NS"], 1e-9)
		assert.InDelta(t, 0.4, b.Shares["WE"], 1e-9)
	}
	assert.Nil(t, res.Aligned)

	assert.Equal(t, params().View, res.Display.View)
	assert.Len(t, res.Display.BinEdges, 11)
}

func TestRun_AlignEachStage(t *testing.T) {
	p := params()
	p.AlignEachStage = true
	res, err := Run(fixedTime(4, 0), p)
	require.NoError(t, err)

	require.Len(t, res.Aligned, 2)
	assert.Equal(t, res.Buckets, res.Aligned["NS"])

	we := res.Aligned["WE"]
	require.Len(t, we, 4)
	assert.Equal(t, 33.0, we[0].Start)
	assert.Equal(t, 89.0, we[0].End)
	// The last WE-aligned bucket is cut by the end of the log.
	assert.InDelta(t, 1.0, we[3].Shares["WE"], 1e-9)
}

func TestRun_DefaultEndTime(t *testing.T) {
	p := params()
	p.EndTime = 0
	res, err := Run(fixedTime(1, 0), p)
	require.NoError(t, err)
	assert.Equal(t, 53.0, res.Events[len(res.Events)-1].Time)
	assert.Equal(t, []float64{30, 20, 3}, res.Totals)
}

func TestRun_DefaultEndTimeWarns(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "warn", "json")
	t.Cleanup(func() { logger.InitWithWriter(io.Discard, "error", "json") })

	p := params()
	p.EndTime = 0
	_, err := Run(fixedTime(1, 0), p)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "No end time given")

	buf.Reset()
	_, err = Run(fixedTime(1, 0), params())
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "No end time given")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		events []models.RawEvent
		mutate func(*Params)
		target error
	}{
		{
			name:   "empty log",
			mutate: func(*Params) {},
			target: models.ErrConfiguration,
		},
		{
			name:   "end before last event",
			events: fixedTime(1, 0),
			mutate: func(p *Params) { p.EndTime = 10 },
			target: models.ErrConfiguration,
		},
		{
			name: "conflicting states",
			events: []models.RawEvent{
				{Time: 0, SubStageID: "0", State: "GGrr"},
				{Time: 10, SubStageID: "0", State: "rrGG"},
			},
			mutate: func(*Params) {},
			target: models.ErrClassificationConflict,
		},
		{
			name:   "stage never green",
			events: fixedTime(1, 0),
			mutate: func(p *Params) { p.GreenSymbol = models.Green },
			target: models.ErrNoGreenSubStage,
		},
		{
			name:   "unknown policy",
			events: fixedTime(1, 0),
			mutate: func(p *Params) { p.Policy = "sometimes" },
			target: models.ErrConfiguration,
		},
		{
			name:   "no bins",
			events: fixedTime(1, 0),
			mutate: func(p *Params) { p.NumBins = 0 },
			target: models.ErrConfiguration,
		},
		{
			name:   "reversed window",
			events: fixedTime(1, 0),
			mutate: func(p *Params) { p.View = display.View{WindowStart: 50, WindowEnd: 5} },
			target: models.ErrConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params()
			tt.mutate(&p)
			_, err := Run(tt.events, p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestMeanShares(t *testing.T) {
	names := []models.StageName{"S0", "S1"}
	buckets := []models.CycleBucket{
		{Shares: map[models.StageName]float64{"S0": 0.5, "S1": 0.5}},
		{Shares: map[models.StageName]float64{"S0": 1}},
		{Degenerate: true},
	}

	got := MeanShares(buckets, names)
	assert.InDelta(t, 0.75, got["S0"], 1e-9)
	assert.InDelta(t, 0.25, got["S1"], 1e-9)

	empty := MeanShares(nil, names)
	assert.True(t, math.IsNaN(empty["S0"]))
}

func TestOffsets(t *testing.T) {
	results, err := Offsets(OffsetParams{
		A:        Junction{Name: "J1", Events: fixedTime(2, 0), Onset: "0", End: "1"},
		B:        Junction{Name: "J2", Events: fixedTime(2, 10), Onset: "0", End: "1"},
		Travel:   5,
		MaxOrder: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	ab := results[0]
	assert.Equal(t, "J1", ab.Reference)
	assert.Equal(t, "J2", ab.Other)
	require.Len(t, ab.Rows, 2)
	assert.False(t, ab.Rows[0].Concurrent)
	offsets := []float64{ab.Rows[0].Orders[0].Offset, ab.Rows[0].Orders[1].Offset}
	assert.True(t, floats.Equal([]float64{10, 66}, offsets))
	assert.Equal(t, 30.0, ab.Rows[0].Orders[0].Usable)
	_, ok := ab.Rows[1].Window(2)
	assert.False(t, ok)

	ba := results[1]
	assert.Equal(t, "J2", ba.Reference)
	assert.True(t, ba.Rows[0].Concurrent)
	assert.Equal(t, 0.0, ba.Rows[0].ConcurUsable)
	assert.Equal(t, 46.0, ba.Rows[0].Orders[0].Offset)
}

func TestOffsets_Errors(t *testing.T) {
	good := Junction{Name: "J1", Events: fixedTime(2, 0), Onset: "0", End: "1"}

	tests := []struct {
		name string
		p    OffsetParams
	}{
		{name: "negative travel", p: OffsetParams{A: good, B: good, Travel: -1, MaxOrder: 1}},
		{name: "missing onset", p: OffsetParams{A: good, B: Junction{Name: "J2", End: "1"}, MaxOrder: 1}},
		{name: "no orders", p: OffsetParams{A: good, B: good}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Offsets(tt.p)
			assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)
		})
	}
}
