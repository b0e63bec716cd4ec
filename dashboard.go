package bridgelift

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/components"
	"go.uber.org/zap"
)

const (
	histogramBins = 30
	previewRows   = 10
)

// summaryTpl is spliced into the rendered chart page since echarts pages
// have no component for plain text or tables.
var summaryTpl = template.Must(template.New("summary").Parse(`
<div style="margin:25px;font-family:sans-serif">
<h2>Bridge Lift Duration Report</h2>
<p>Run {{.RunID}} generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
<p>
<b>RMSE:</b> {{printf "%.2f" .Scores.RMSE}} min &nbsp;
<b>MAE:</b> {{printf "%.2f" .Scores.MAE}} min &nbsp;
<b>Within 5 min:</b> {{printf "%.1f" .Scores.Within5Min}}%
</p>
<p>
{{len .Records}} lifts analyzed ({{.TrainSize}} train, {{.TestSize}} held out).
{{.ImputedWeather}} lifts with imputed weather and {{.ImputedTide}} with imputed tide.
{{if .OutlierIdxs}}{{len .OutlierIdxs}} unusually long lifts flagged.{{end}}
</p>
<h3>Sample of fused records</h3>
<table border="1" cellpadding="4" cellspacing="0" style="border-collapse:collapse;font-size:12px">
<tr>{{range .Labels}}<th>{{.}}</th>{{end}}</tr>
{{range .Preview}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
</table>
</div>
`))

type summaryData struct {
	*Results
	Preview [][]string
}

// WriteHTML renders the full report into w: the run summary, a sample of the
// fused feature table, and the interactive charts.
func (r *Results) WriteHTML(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "Bridge Lift Duration Report"

	durations := make([]float64, 0, len(r.Records))
	tanker := make([]float64, 0, len(r.Records))
	noTanker := make([]float64, 0, len(r.Records))
	for _, rec := range r.Records {
		d := rec.Event.DurationMin
		durations = append(durations, d)
		if rec.Features.HasTanker {
			tanker = append(tanker, d)
		} else {
			noTanker = append(noTanker, d)
		}
	}

	page.AddCharts(
		BarHistogram("Lift Duration Distribution (min)", durations, histogramBins),
		BoxPlot("Duration by Tanker Involvement", []string{"No Tanker", "Tanker"}, [][]float64{noTanker, tanker}),
		ScatterPredicted("Predicted vs Actual Duration", r.Actual, r.Predicted),
		BarImportance("Permutation Feature Importance", r.Labels, r.Importances),
		LineLossCurve("Training Loss", r.LossCurve),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("unable to render chart page, %w", err)
	}

	var summary bytes.Buffer
	if err := summaryTpl.Execute(&summary, summaryData{
		Results: r,
		Preview: r.preview(previewRows),
	}); err != nil {
		return fmt.Errorf("unable to render summary, %w", err)
	}

	body := bytes.Replace(buf.Bytes(), []byte("<body>"), append([]byte("<body>"), summary.Bytes()...), 1)
	_, err := w.Write(body)
	return err
}

// RenderHTML writes the report to an html file at path.
func (r *Results) RenderHTML(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return r.WriteHTML(file)
}

// Handler serves the report over http.
func (r *Results) Handler(log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := r.WriteHTML(w); err != nil && log != nil {
			log.Error("failed to serve report", zap.Error(err))
		}
	})
}

// preview formats the first n fused records for the report's sample table,
// in the same column order as Labels.
func (r *Results) preview(n int) [][]string {
	if n > len(r.Records) {
		n = len(r.Records)
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		vec := r.Records[i].Vector()
		row := make([]string, 0, len(vec))
		for _, v := range vec {
			row = append(row, strconv.FormatFloat(v, 'g', 4, 64))
		}
		rows = append(rows, row)
	}
	return rows
}
