package bridgelift

import (
	"fmt"
	"math"
	"sort"

	"bridgelift/stats"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
)

// BarHistogram generates an echart bar chart binning the values into bins
// equal-width buckets.
func BarHistogram(title string, values []float64, bins int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)
	if len(values) == 0 || bins < 1 {
		return bar
	}

	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	width := (maxVal - minVal) / float64(bins)
	if width == 0 {
		width = 1.0
	}

	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - minVal) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	labels := make([]string, 0, bins)
	barData := make([]opts.BarData, 0, bins)
	for i := 0; i < bins; i++ {
		lo := minVal + float64(i)*width
		labels = append(labels, fmt.Sprintf("%.1f", lo))
		barData = append(barData, opts.BarData{Value: counts[i]})
	}

	bar.SetXAxis(labels).AddSeries("Count", barData)
	return bar
}

// BoxPlot generates an echart box plot with one box per named group. Each box
// is the five number summary of its group.
func BoxPlot(title string, names []string, groups [][]float64) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	boxData := make([]opts.BoxPlotData, 0, len(groups))
	for _, group := range groups {
		sorted := make([]float64, len(group))
		copy(sorted, group)
		sort.Float64s(sorted)
		if len(sorted) == 0 {
			boxData = append(boxData, opts.BoxPlotData{Value: []float64{0, 0, 0, 0, 0}})
			continue
		}
		boxData = append(boxData, opts.BoxPlotData{
			Value: []float64{
				sorted[0],
				stat.Quantile(0.25, stat.Empirical, sorted, nil),
				stat.Quantile(0.50, stat.Empirical, sorted, nil),
				stat.Quantile(0.75, stat.Empirical, sorted, nil),
				sorted[len(sorted)-1],
			},
		})
	}

	box.SetXAxis(names).AddSeries("Duration", boxData)
	return box
}

// ScatterPredicted generates an echart scatter of predicted against actual
// values with the identity line overlaid. Points on the line are perfect
// predictions.
func ScatterPredicted(title string, actual, predicted []float64) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithXAxisOpts(
			opts.XAxis{
				Name: "Actual (min)",
				Type: "value",
			},
		),
		charts.WithYAxisOpts(
			opts.YAxis{
				Name: "Predicted (min)",
				Type: "value",
			},
		),
	)

	scatterData := make([]opts.ScatterData, 0, len(actual))
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for i := 0; i < len(actual) && i < len(predicted); i++ {
		scatterData = append(scatterData, opts.ScatterData{
			Value: []float64{actual[i], predicted[i]},
		})
		minVal = math.Min(minVal, math.Min(actual[i], predicted[i]))
		maxVal = math.Max(maxVal, math.Max(actual[i], predicted[i]))
	}
	scatter.AddSeries("Lifts", scatterData)

	if len(scatterData) > 0 {
		line := charts.NewLine()
		line.AddSeries("Perfect", []opts.LineData{
			{Value: []float64{minVal, minVal}},
			{Value: []float64{maxVal, maxVal}},
		})
		scatter.Overlap(line)
	}
	return scatter
}

// BarImportance generates an echart bar chart of permutation importances
// sorted from most to least important.
func BarImportance(title string, labels []string, imps []stats.Importance) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithXAxisOpts(
			opts.XAxis{
				AxisLabel: &opts.AxisLabel{Rotate: 45, Show: opts.Bool(true)},
			},
		),
	)

	idxs := make([]int, len(imps))
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool {
		return imps[idxs[a]].Mean > imps[idxs[b]].Mean
	})

	sortedLabels := make([]string, 0, len(idxs))
	barData := make([]opts.BarData, 0, len(idxs))
	for _, idx := range idxs {
		if idx >= len(labels) {
			continue
		}
		sortedLabels = append(sortedLabels, labels[idx])
		barData = append(barData, opts.BarData{Value: imps[idx].Mean})
	}

	bar.SetXAxis(sortedLabels).AddSeries("Importance", barData)
	return bar
}

// LineLossCurve generates an echart line chart of the training loss per
// iteration.
func LineLossCurve(title string, loss []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	iters := make([]int, len(loss))
	lineData := make([]opts.LineData, 0, len(loss))
	for i, v := range loss {
		iters[i] = i
		lineData = append(lineData, opts.LineData{Value: v})
	}

	line.SetXAxis(iters).AddSeries("Loss", lineData)
	return line
}
