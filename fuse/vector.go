package fuse

// Labels is the fixed feature order consumed by the model. Training and
// inference must both use this order.
var Labels = []string{
	"temperature_C",
	"precipitation_mm",
	"windspeed_mph",
	"tide_ft",
	"is_daylight",
	"hour",
	"day_of_week",
	"time_of_day",
	"TAVG",
	"did_rain",
	"vessel_count",
	"start_minutes",
	"end_minutes",
	"has_barge",
	"has_tanker",
}

// Vector returns the record's features in the fixed Labels order.
func (r *Record) Vector() []float64 {
	return []float64{
		r.TemperatureC,
		r.PrecipitationMm,
		r.WindspeedMph,
		r.TideFt,
		boolToFloat(r.Features.IsDaylight),
		float64(r.Features.Hour),
		float64(r.Features.DayOfWeek),
		float64(r.Features.TimeOfDayBucket),
		r.TAVG,
		boolToFloat(r.DidRain),
		float64(r.Features.VesselCount),
		float64(r.Features.StartMinutes),
		float64(r.Features.EndMinutes),
		boolToFloat(r.Features.HasBarge),
		boolToFloat(r.Features.HasTanker),
	}
}

// Table extracts the design matrix rows and target durations from a fused
// record set.
func Table(records []Record) ([][]float64, []float64) {
	x := make([][]float64, 0, len(records))
	y := make([]float64, 0, len(records))
	for i := range records {
		x = append(x, records[i].Vector())
		y = append(y, records[i].Event.DurationMin)
	}
	return x, y
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
