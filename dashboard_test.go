package bridgelift

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bridgelift/feature"
	"bridgelift/fuse"
	"bridgelift/liftlog"
	"bridgelift/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResults(t *testing.T) *Results {
	t.Helper()

	records := make([]fuse.Record, 0, 12)
	base := time.Date(2024, 5, 1, 6, 15, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		ev := liftlog.LiftEvent{
			ETA:         base.Add(time.Duration(i) * time.Hour),
			Start:       base.Add(time.Duration(i)*time.Hour + 2*time.Minute),
			End:         base.Add(time.Duration(i)*time.Hour + 12*time.Minute),
			DurationMin: float64(5 + i),
			Vessels:     "Tug Alpha",
		}
		if i%2 == 0 {
			ev.Vessels = "Tanker Beta"
		}
		records = append(records, fuse.Record{
			Event:        ev,
			Features:     feature.Derive(ev),
			TemperatureC: 15.0,
			TAVG:         15.0,
			WindspeedMph: 8.0,
			TideFt:       3.0,
		})
	}

	imps := make([]stats.Importance, len(fuse.Labels))
	for i := range imps {
		imps[i] = stats.Importance{Mean: float64(len(imps) - i)}
	}

	return &Results{
		RunID:       "test-run",
		GeneratedAt: base,
		Records:     records,
		Labels:      fuse.Labels,
		TrainSize:   9,
		TestSize:    3,
		Actual:      []float64{6, 9, 14},
		Predicted:   []float64{7, 9, 12},
		Scores:      &stats.Scores{RMSE: 1.29, MAE: 1.0, Within5Min: 100.0},
		Importances: imps,
		LossCurve:   []float64{10.0, 5.0, 2.5},
	}
}

func TestWriteHTML(t *testing.T) {
	res := newTestResults(t)

	var buf bytes.Buffer
	require.Nil(t, res.WriteHTML(&buf))
	html := buf.String()

	assert.Contains(t, html, "Bridge Lift Duration Report")
	assert.Contains(t, html, "test-run")
	assert.Contains(t, html, "Lift Duration Distribution (min)")
	assert.Contains(t, html, "Predicted vs Actual Duration")
	assert.Contains(t, html, "Permutation Feature Importance")
	assert.Contains(t, html, "<table")

	// preview table carries the feature headers
	for _, label := range fuse.Labels {
		assert.Contains(t, html, label)
	}
}

func TestWriteHTMLPreviewCapped(t *testing.T) {
	res := newTestResults(t)
	rows := res.preview(previewRows)
	assert.Len(t, rows, 10)
	assert.Len(t, rows[0], len(fuse.Labels))

	rows = res.preview(100)
	assert.Len(t, rows, len(res.Records))
}

func TestRenderHTML(t *testing.T) {
	res := newTestResults(t)
	path := filepath.Join(t.TempDir(), "report.html")
	require.Nil(t, res.RenderHTML(path))

	body, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Contains(t, string(body), "Bridge Lift Duration Report")
}

func TestHandler(t *testing.T) {
	res := newTestResults(t)
	srv := httptest.NewServer(res.Handler(nil))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.Nil(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
