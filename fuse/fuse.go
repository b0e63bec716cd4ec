// Package fuse aligns lift events to the hourly grid and left-joins the tide
// and weather series onto them. Gaps are filled field by field from a
// configured fallback policy so every record reaches the model fully
// populated; no record is ever dropped for missing external data.
package fuse

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"bridgelift/feature"
	"bridgelift/liftlog"
	"bridgelift/tide"
	"bridgelift/weather"
)

var ErrPairLenMismatch = errors.New("events and derived features have different lengths")

// Options configures the fallback imputation distributions. The seed makes
// the random draws reproducible; two runs with the same seed over the same
// inputs produce identical fused tables.
type Options struct {
	TempMeanC  float64
	TempStdC   float64
	WindMeanMph float64
	WindStdMph  float64
	TideMinFt   float64
	TideMaxFt   float64
	Seed        uint64
}

// NewDefaultOptions returns the fallback policy matching the historical
// climate at the bridge: temperature N(18,5) C, windspeed N(10,3) mph, tide
// uniform over [0,10) ft.
func NewDefaultOptions() *Options {
	return &Options{
		TempMeanC:   18.0,
		TempStdC:    5.0,
		WindMeanMph: 10.0,
		WindStdMph:  3.0,
		TideMinFt:   0.0,
		TideMaxFt:   10.0,
	}
}

// Record is a fully populated fused row: the lift event, its derived
// features, and one matched (or imputed) sample per external series.
type Record struct {
	Event    liftlog.LiftEvent
	Features feature.Derived

	TemperatureC    float64
	TAVG            float64
	PrecipitationMm float64
	WindspeedMph    float64
	DidRain         bool
	TideFt          float64

	ImputedWeather bool // weather join missed; temperature/windspeed drawn from fallback
	ImputedTide    bool // tide join missed; height drawn from fallback
}

// Fuse joins both hourly series onto the events by hour-truncated ETA and
// applies the fallback policy to the fields each missed join leaves open.
func Fuse(events []liftlog.LiftEvent, derived []feature.Derived, preds []tide.Prediction, obs []weather.Observation, opt *Options) ([]Record, error) {
	if len(events) != len(derived) {
		return nil, fmt.Errorf("%d events with %d feature sets, %w", len(events), len(derived), ErrPairLenMismatch)
	}
	if opt == nil {
		opt = NewDefaultOptions()
	}

	tideByHour := indexTide(preds)
	weatherByHour := indexWeather(obs)
	rnd := rand.New(rand.NewPCG(opt.Seed, opt.Seed))

	records := make([]Record, 0, len(events))
	for i, ev := range events {
		rec := Record{
			Event:    ev,
			Features: derived[i],
		}
		key := ev.ETA.Truncate(time.Hour)

		if o, exists := weatherByHour[key]; exists {
			rec.TemperatureC = o.TemperatureC
			rec.PrecipitationMm = o.PrecipitationMm
			rec.WindspeedMph = o.WindspeedMph
			rec.DidRain = o.DidRain
		} else {
			rec.TemperatureC = rnd.NormFloat64()*opt.TempStdC + opt.TempMeanC
			rec.WindspeedMph = rnd.NormFloat64()*opt.WindStdMph + opt.WindMeanMph
			// dry-hour assumption: precipitation 0, no rain
			rec.ImputedWeather = true
		}
		rec.TAVG = rec.TemperatureC

		if p, exists := tideByHour[key]; exists {
			rec.TideFt = p.HeightFt
		} else {
			rec.TideFt = rnd.Float64()*(opt.TideMaxFt-opt.TideMinFt) + opt.TideMinFt
			rec.ImputedTide = true
		}

		records = append(records, rec)
	}
	return records, nil
}

// duplicate hours in an external series resolve first-occurrence-wins so
// repeat runs stay deterministic
func indexTide(preds []tide.Prediction) map[time.Time]tide.Prediction {
	byHour := make(map[time.Time]tide.Prediction, len(preds))
	for _, p := range preds {
		key := p.T.Truncate(time.Hour)
		if _, exists := byHour[key]; !exists {
			byHour[key] = p
		}
	}
	return byHour
}

func indexWeather(obs []weather.Observation) map[time.Time]weather.Observation {
	byHour := make(map[time.Time]weather.Observation, len(obs))
	for _, o := range obs {
		key := o.T.Truncate(time.Hour)
		if _, exists := byHour[key]; !exists {
			byHour[key] = o
		}
	}
	return byHour
}
