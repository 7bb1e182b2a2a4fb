package models

// GreenSegment is one green contribution inside a quasi-cycle.
type GreenSegment struct {
	Stage      StageName  `json:"stage" yaml:"stage"`
	SubStageID SubStageID `json:"sub_stage_id" yaml:"sub_stage_id"`
	Start      float64    `json:"start" yaml:"start"`
	Duration   float64    `json:"duration" yaml:"duration"`
}

// CycleBucket is one quasi-cycle: a contiguous run of rows between two closes.
// It spans [Start, End) and rows FirstRow..LastRow of the reduced matrix.
type CycleBucket struct {
	Start    float64 `json:"start" yaml:"start"`
	End      float64 `json:"end" yaml:"end"`
	FirstRow int     `json:"first_row" yaml:"first_row"`
	LastRow  int     `json:"last_row" yaml:"last_row"`

	// Totals holds the accumulated green seconds of each stage present.
	Totals map[StageName]float64 `json:"totals" yaml:"totals"`
	// Shares is the cycle split: Totals normalized to sum to 1.
	Shares map[StageName]float64 `json:"shares" yaml:"shares"`
	// Segments lists the green contributions in time order.
	Segments []GreenSegment `json:"segments" yaml:"segments"`
	// Degenerate is set when the bucket closed with no green time.
	Degenerate bool `json:"degenerate" yaml:"degenerate"`
}

// GreenTime returns the total green seconds of the bucket.
func (b *CycleBucket) GreenTime() float64 {
	var sum float64
	for _, seg := range b.Segments {
		sum += seg.Duration
	}
	return sum
}
