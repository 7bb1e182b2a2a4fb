package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/rewired-gh/sigsplit/internal/analysis"
	"github.com/rewired-gh/sigsplit/internal/config"
	"github.com/rewired-gh/sigsplit/internal/display"
	"github.com/rewired-gh/sigsplit/internal/logger"
	"github.com/rewired-gh/sigsplit/internal/models"
	"github.com/rewired-gh/sigsplit/internal/report"
	"github.com/rewired-gh/sigsplit/internal/series"
	"github.com/rewired-gh/sigsplit/internal/stages"
	"github.com/rewired-gh/sigsplit/internal/tlslog"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	events, err := readLog(cfg.Input.Path, cfg.Input.Format, cfg.Input.TLSID)
	if err != nil {
		logger.Fatal("Failed to read log: %v", err)
	}
	if cfg.Remap.Enabled {
		events = tlslog.Remap(events, cfg.Remap.ProgramID, toSubStageIDs(cfg.Remap.NewIDs))
	}

	params, err := buildParams(cfg)
	if err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	res, err := analysis.Run(events, params)
	if err != nil {
		logger.Fatal("Analysis failed: %s", explain(err))
	}

	var offsets []analysis.OffsetResult
	if cfg.Offset.Enabled {
		offsets, err = runOffsets(cfg)
		if err != nil {
			logger.Fatal("Coordination analysis failed: %s", explain(err))
		}
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	w := report.NewWriter(cfg.Output.Path, format,
		os.FileMode(cfg.Output.FilePermissions), os.FileMode(cfg.Output.DirPermissions))
	rep := report.New(cfg.Input.Path, res, offsets)
	if err := w.Save(rep); err != nil {
		logger.Fatal("Failed to write report: %v", err)
	}

	for i := range res.Buckets {
		b := &res.Buckets[i]
		logger.Debug("Cycle %d [%.1f, %.1f): %.1fs green", i+1, b.Start, b.End, b.GreenTime())
	}
	for _, stage := range res.Table.Stages {
		share := rep.MeanShares[stage]
		if share == nil {
			logger.Info("Stage %s: no complete cycle", stage)
			continue
		}
		logger.Info("Stage %s: mean cycle share %.1f%%", stage, *share*100)
	}
	for _, o := range offsets {
		var n int
		var usable float64
		for i := range o.Rows {
			if win, ok := o.Rows[i].Window(1); ok {
				n++
				usable += win.Usable
			}
		}
		if n > 0 {
			logger.Info("Coordination %s -> %s: %d onsets, mean usable %.1fs in the next green", o.Reference, o.Other, n, usable/float64(n))
		}
	}
	logger.Info("Report %s written to %s", rep.RunID, w.Path())
}

func readLog(path, format, tlsID string) ([]models.RawEvent, error) {
	f, err := tlslog.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return tlslog.ReadFile(path, f, tlslog.Options{TLSID: tlsID})
}

func buildParams(cfg *config.Config) (analysis.Params, error) {
	method, err := stages.ParseMethod(cfg.Stages.Method)
	if err != nil {
		return analysis.Params{}, err
	}
	policy, err := series.ParsePolicy(cfg.Cyclicity.Policy)
	if err != nil {
		return analysis.Params{}, err
	}
	var symbol models.Indicator
	if err := symbol.UnmarshalText([]byte(cfg.Stages.GreenSymbol)); err != nil {
		return analysis.Params{}, err
	}

	names := make([]models.StageName, len(cfg.Stages.Names))
	for i, n := range cfg.Stages.Names {
		names[i] = models.StageName(n)
	}

	return analysis.Params{
		Assignment:  cfg.Stages.Assignment,
		StageNames:  names,
		Method:      method,
		GreenSymbol: symbol,
		EndTime:     cfg.Input.EndTime,
		Policy:      policy,
		Segment: series.Options{
			AllowEmpty: cfg.Cyclicity.AllowEmpty,
			AlignTo:    models.StageName(cfg.Cyclicity.AlignTo),
		},
		AlignEachStage: cfg.Cyclicity.AlignEachStage,
		NumBins:        cfg.Display.NumBins,
		View: display.View{
			WindowStart: cfg.Display.WindowStart,
			WindowEnd:   cfg.Display.WindowEnd,
			Density:     cfg.Display.Density,
			GreenOnly:   cfg.Display.GreenOnly,
		},
	}, nil
}

func runOffsets(cfg *config.Config) ([]analysis.OffsetResult, error) {
	junction := func(j config.JunctionConfig) (analysis.Junction, error) {
		events, err := readLog(j.Path, j.Format, j.TLSID)
		if err != nil {
			return analysis.Junction{}, err
		}
		return analysis.Junction{
			Name:   j.Name,
			Events: events,
			Onset:  models.SubStageID(j.OnsetPhase),
			End:    models.SubStageID(j.EndPhase),
		}, nil
	}

	ref, err := junction(cfg.Offset.Reference)
	if err != nil {
		return nil, err
	}
	other, err := junction(cfg.Offset.Other)
	if err != nil {
		return nil, err
	}
	return analysis.Offsets(analysis.OffsetParams{
		A:        ref,
		B:        other,
		Travel:   cfg.Offset.TravelTime,
		MaxOrder: cfg.Offset.MaxOrder,
	})
}

// explain appends the config keys to look at for a pipeline error.
func explain(err error) string {
	var conflict *models.ConflictError
	switch {
	case errors.As(err, &conflict):
		return err.Error() + " (check stages.assignment and stages.method)"
	case errors.Is(err, models.ErrNoGreenSubStage):
		return err.Error() + " (check stages.green_symbol)"
	case errors.Is(err, models.ErrEmptyBucket):
		return err.Error() + " (set cyclicity.allow_empty to keep empty cycles)"
	default:
		return err.Error()
	}
}

func toSubStageIDs(ids []string) []models.SubStageID {
	out := make([]models.SubStageID, len(ids))
	for i, id := range ids {
		out[i] = models.SubStageID(id)
	}
	return out
}
