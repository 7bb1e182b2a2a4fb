// Package report assembles the results of a run into a serializable document
// and writes it atomically as JSON or YAML.
package report

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/sigsplit/internal/analysis"
	"github.com/rewired-gh/sigsplit/internal/display"
	"github.com/rewired-gh/sigsplit/internal/models"
)

// Version is the report schema version.
const Version = "1.0"

// Report is the document written at the end of a run.
type Report struct {
	Version     string    `json:"version" yaml:"version"`
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`

	Stages     []models.StageName `json:"stages" yaml:"stages"`
	StageTable []models.StageRow  `json:"stage_table" yaml:"stage_table"`
	Greens     models.GreenSet    `json:"greens" yaml:"greens"`
	Matrix     []MatrixRow        `json:"matrix" yaml:"matrix"`
	Split      Split              `json:"split" yaml:"split"`

	Buckets    []models.CycleBucket                      `json:"buckets" yaml:"buckets"`
	Aligned    map[models.StageName][]models.CycleBucket `json:"aligned,omitempty" yaml:"aligned,omitempty"`
	MeanShares map[models.StageName]*float64             `json:"mean_shares" yaml:"mean_shares"`

	Display display.Data            `json:"display" yaml:"display"`
	Offsets []analysis.OffsetResult `json:"offsets,omitempty" yaml:"offsets,omitempty"`
}

// MatrixRow is a reduced-matrix row with unset cells as null.
type MatrixRow struct {
	Time       float64           `json:"time" yaml:"time"`
	SubStageID models.SubStageID `json:"sub_stage_id" yaml:"sub_stage_id"`
	Durations  []*float64        `json:"durations" yaml:"durations"`
	Residual   *float64          `json:"residual" yaml:"residual"`
}

// Split is the whole-log green split.
type Split struct {
	Labels []string  `json:"labels" yaml:"labels"`
	Totals []float64 `json:"totals" yaml:"totals"`
}

// New builds a report from a run. offsets may be nil.
func New(source string, res *analysis.Result, offsets []analysis.OffsetResult) *Report {
	r := &Report{
		Version:     Version,
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Stages:      res.Table.Stages,
		StageTable:  res.Table.Rows,
		Greens:      res.Greens,
		Matrix:      make([]MatrixRow, len(res.Matrix.Rows)),
		Buckets:     res.Buckets,
		Aligned:     res.Aligned,
		MeanShares:  make(map[models.StageName]*float64, len(res.Table.Stages)),
		Display:     res.Display,
		Offsets:     offsets,
	}

	for i, row := range res.Matrix.Rows {
		mr := MatrixRow{
			Time:       row.Time,
			SubStageID: row.SubStageID,
			Durations:  make([]*float64, len(row.Durations)),
			Residual:   nullable(row.Residual),
		}
		for j, d := range row.Durations {
			mr.Durations[j] = nullable(d)
		}
		r.Matrix[i] = mr
	}

	for _, s := range res.Table.Stages {
		r.Split.Labels = append(r.Split.Labels, string(s))
	}
	r.Split.Labels = append(r.Split.Labels, display.ResidualLabel)
	r.Split.Totals = res.Totals

	for stage, share := range analysis.MeanShares(res.Buckets, res.Table.Stages) {
		r.MeanShares[stage] = nullable(share)
	}
	return r
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
