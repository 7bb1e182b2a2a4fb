package series

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
)

// Policy decides when a quasi-cycle closes.
type Policy string

const (
	// PolicyFirstRecur closes a bucket as soon as any green sub-stage has
	// been seen twice since the last close.
	PolicyFirstRecur Policy = "first_recur"
	// PolicyAllPresent closes a bucket once every stage has shown one of its
	// green sub-stages since the last close.
	PolicyAllPresent Policy = "all_present"
)

// ParsePolicy validates a policy name. The numeric forms 1 and 2 used by
// plotting scripts are accepted as aliases.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case string(PolicyFirstRecur), "firstRecur", "1":
		return PolicyFirstRecur, nil
	case string(PolicyAllPresent), "allPresent", "2":
		return PolicyAllPresent, nil
	default:
		return "", models.NewConfigError("policy", "unknown cyclicity policy %q", s)
	}
}

// Options tunes segmentation.
type Options struct {
	// AllowEmpty emits buckets without green time as degenerate buckets with
	// no shares instead of failing with models.ErrEmptyBucket.
	AllowEmpty bool
	// AlignTo, when set, drops the rows before the first green onset of the
	// named stage, so every bucket starts on that stage.
	AlignTo models.StageName
}

// bucketState is the running state of one quasi-cycle.
type bucketState struct {
	storage  map[models.SubStageID]int
	totals   map[models.StageName]float64
	segments []models.GreenSegment
	start    float64
	firstRow int
}

func newBucketState(seed models.SubStageID, start float64, firstRow int) *bucketState {
	return &bucketState{
		storage:  map[models.SubStageID]int{seed: 1},
		totals:   make(map[models.StageName]float64),
		start:    start,
		firstRow: firstRow,
	}
}

// Segment splits a reduced matrix into quasi-cycle buckets in a single
// forward pass. The row that triggers a close seeds the next bucket, and the
// final row always closes the open bucket. A close that would cover no rows
// is skipped.
func Segment(m *models.ReducedMatrix, greens models.GreenSet, policy Policy, opts Options) ([]models.CycleBucket, error) {
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if m == nil || len(m.Rows) == 0 {
		return nil, models.NewConfigError("matrix", "reduced matrix is empty")
	}
	if err := greens.Validate(m.Stages); err != nil {
		return nil, err
	}
	owners, err := greens.Owners(m.Stages)
	if err != nil {
		return nil, err
	}

	offset, err := alignOffset(m, greens, opts.AlignTo)
	if err != nil {
		return nil, err
	}
	rows := m.Rows[offset:]

	var buckets []models.CycleBucket
	state := newBucketState(rows[0].SubStageID, rows[0].Time, offset)
	for i := range rows {
		id := rows[i].SubStageID
		if i > 0 {
			state.storage[id]++
		}

		last := i == len(rows)-1
		if last || shouldClose(state, greens, m.Stages, policy) {
			if offset+i > state.firstRow {
				bucket, err := state.close(rows[i].Time, offset+i-1, m.Stages, opts.AllowEmpty)
				if err != nil {
					return nil, err
				}
				buckets = append(buckets, bucket)
			}
			state = newBucketState(id, rows[i].Time, offset+i)
		}

		if last {
			break
		}
		if stage, ok := owners[id]; ok {
			d := rows[i+1].Time - rows[i].Time
			state.totals[stage] += d
			state.segments = append(state.segments, models.GreenSegment{
				Stage:      stage,
				SubStageID: id,
				Start:      rows[i].Time,
				Duration:   d,
			})
		}
	}

	logger.Debug("Segmented %d rows into %d buckets (%s)", len(rows), len(buckets), policy)
	return buckets, nil
}

// shouldClose evaluates the recurrence policy against the sub-stages seen
// since the last close.
func shouldClose(state *bucketState, greens models.GreenSet, stageNames []models.StageName, policy Policy) bool {
	switch policy {
	case PolicyFirstRecur:
		for _, stage := range stageNames {
			for _, id := range greens[stage] {
				if state.storage[id] > 1 {
					return true
				}
			}
		}
		return false
	case PolicyAllPresent:
		for _, stage := range stageNames {
			present := false
			for _, id := range greens[stage] {
				if state.storage[id] > 0 {
					present = true
					break
				}
			}
			if !present {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// close normalizes the accumulated green time into a bucket spanning
// [state.start, end).
func (s *bucketState) close(end float64, lastRow int, stageNames []models.StageName, allowEmpty bool) (models.CycleBucket, error) {
	present := make([]models.StageName, 0, len(s.totals))
	values := make([]float64, 0, len(s.totals))
	for _, stage := range stageNames {
		if v, ok := s.totals[stage]; ok {
			present = append(present, stage)
			values = append(values, v)
		}
	}

	bucket := models.CycleBucket{
		Start:    s.start,
		End:      end,
		FirstRow: s.firstRow,
		LastRow:  lastRow,
		Totals:   make(map[models.StageName]float64, len(present)),
		Shares:   make(map[models.StageName]float64, len(present)),
		Segments: s.segments,
	}

	sum := 0.0
	if len(values) > 0 {
		sum = floats.Sum(values)
	}
	if sum <= 0 {
		if !allowEmpty {
			return models.CycleBucket{}, fmt.Errorf("%w: bucket [%g, %g) has no green time", models.ErrEmptyBucket, s.start, end)
		}
		logger.Debug("Degenerate bucket [%g, %g)", s.start, end)
		bucket.Degenerate = true
		for i, stage := range present {
			bucket.Totals[stage] = values[i]
		}
		return bucket, nil
	}

	for i, stage := range present {
		bucket.Totals[stage] = values[i]
		bucket.Shares[stage] = values[i] / sum
	}
	return bucket, nil
}

// alignOffset returns the index of the first green onset of stage, or 0 when
// no alignment is requested.
func alignOffset(m *models.ReducedMatrix, greens models.GreenSet, stage models.StageName) (int, error) {
	if stage == "" {
		return 0, nil
	}
	ids, ok := greens[stage]
	if !ok {
		return 0, models.NewConfigError("align_to", "unknown stage %q", stage)
	}
	for i := range m.Rows {
		for _, id := range ids {
			if m.Rows[i].SubStageID == id {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: stage %s never turns green", models.ErrNoGreenSubStage, stage)
}

