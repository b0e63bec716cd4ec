package bridgelift

import (
	"time"

	"bridgelift/fuse"
	"bridgelift/stats"
)

// Results holds everything produced by one pipeline run: the fused feature
// table, the held-out evaluation, and the feature importance ranking.
type Results struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Records     []fuse.Record `json:"records"`
	Labels      []string      `json:"labels"`
	DroppedRows int           `json:"dropped_rows"`

	ImputedWeather int `json:"imputed_weather"`
	ImputedTide    int `json:"imputed_tide"`

	TrainSize int `json:"train_size"`
	TestSize  int `json:"test_size"`

	Actual    []float64 `json:"actual"`
	Predicted []float64 `json:"predicted"`

	Scores      *stats.Scores      `json:"scores"`
	Importances []stats.Importance `json:"importances"`
	LossCurve   []float64          `json:"loss_curve"`
	OutlierIdxs []int              `json:"outlier_idxs"`
}
