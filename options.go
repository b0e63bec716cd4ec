package bridgelift

import (
	"bridgelift/config"
	"bridgelift/fuse"
	"bridgelift/models"
)

// OutlierOptions controls the Tukey fences used to flag unusually long lifts
// in the report. Flagged lifts stay in the training data.
type OutlierOptions struct {
	UpperPercentile float64
	LowerPercentile float64
	TukeyFactor     float64
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.5,
	}
}

// Options configures a pipeline run.
type Options struct {
	FuseOptions    *fuse.Options
	MLPOptions     *models.MLPOptions
	OutlierOptions *OutlierOptions

	TestFraction      float64
	SplitSeed         uint64
	ImportanceRepeats int
	ImportanceSeed    uint64
}

func NewDefaultOptions() *Options {
	return &Options{
		FuseOptions:       fuse.NewDefaultOptions(),
		MLPOptions:        models.NewDefaultMLPOptions(),
		OutlierOptions:    NewOutlierOptions(),
		TestFraction:      0.2,
		SplitSeed:         42,
		ImportanceRepeats: 30,
		ImportanceSeed:    42,
	}
}

// OptionsFromConfig maps the loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) *Options {
	opt := NewDefaultOptions()
	if cfg == nil {
		return opt
	}
	opt.FuseOptions.Seed = cfg.Model.ImputeSeed
	opt.MLPOptions.MaxIter = cfg.Model.MaxIter
	opt.MLPOptions.Seed = cfg.Model.SplitSeed
	opt.TestFraction = cfg.Model.TestFraction
	opt.SplitSeed = cfg.Model.SplitSeed
	opt.ImportanceRepeats = cfg.Model.ImportanceRepeats
	opt.ImportanceSeed = cfg.Model.SplitSeed
	return opt
}
