package bridgelift

import (
	"bytes"
	"testing"

	"bridgelift/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarHistogram(t *testing.T) {
	values := []float64{1, 1, 2, 2, 2, 3, 9, 10}
	bar := BarHistogram("Durations", values, 3)
	require.NotNil(t, bar)

	var buf bytes.Buffer
	require.Nil(t, bar.Render(&buf))
	assert.Contains(t, buf.String(), "Durations")
}

func TestBarHistogramEmpty(t *testing.T) {
	bar := BarHistogram("Empty", nil, 10)
	require.NotNil(t, bar)

	var buf bytes.Buffer
	assert.Nil(t, bar.Render(&buf))
}

func TestBoxPlot(t *testing.T) {
	box := BoxPlot(
		"Duration by Tanker Involvement",
		[]string{"No Tanker", "Tanker"},
		[][]float64{{5, 6, 7, 8, 9}, {10, 12, 20}},
	)
	require.NotNil(t, box)

	var buf bytes.Buffer
	require.Nil(t, box.Render(&buf))
	assert.Contains(t, buf.String(), "Tanker")
}

func TestScatterPredicted(t *testing.T) {
	scatter := ScatterPredicted("Predicted vs Actual", []float64{5, 10, 15}, []float64{6, 9, 16})
	require.NotNil(t, scatter)

	var buf bytes.Buffer
	require.Nil(t, scatter.Render(&buf))
	assert.Contains(t, buf.String(), "Perfect")
}

func TestBarImportanceSorted(t *testing.T) {
	labels := []string{"low", "high", "mid"}
	imps := []stats.Importance{{Mean: 0.1}, {Mean: 0.9}, {Mean: 0.5}}

	bar := BarImportance("Importance", labels, imps)
	require.NotNil(t, bar)

	var buf bytes.Buffer
	require.Nil(t, bar.Render(&buf))
	html := buf.String()

	// highest importance label is listed first on the axis
	assert.Less(t, bytes.Index([]byte(html), []byte("high")), bytes.Index([]byte(html), []byte("mid")))
	assert.Less(t, bytes.Index([]byte(html), []byte("mid")), bytes.Index([]byte(html), []byte("low")))
}

func TestLineLossCurve(t *testing.T) {
	line := LineLossCurve("Training Loss", []float64{10, 5, 2.5, 1.25})
	require.NotNil(t, line)

	var buf bytes.Buffer
	require.Nil(t, line.Render(&buf))
	assert.Contains(t, buf.String(), "Training Loss")
}
