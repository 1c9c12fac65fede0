package render

import (
	"html/template"
	"io"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/diversity"
	"github.com/yumyai/biodiv/pkg/fasta"
	"github.com/yumyai/biodiv/pkg/quality"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

var analysisPageTemplate *template.Template

// AnalysisPageData describes the state of one analysis for rendering.
type AnalysisPageData struct {
	FileID                 string
	FileName               string
	FileSize               int64
	Status                 string
	CurrentStep            string
	ErrorMessage           string
	TotalSequences         int
	ProcessingTimeMS       float64
	Quality                *quality.Metrics
	Indices                *diversity.Indices
	Families               []taxonomy.LevelEntry
	Preview                []fasta.SequenceRecord
	ShouldRefresh          bool
	RefreshIntervalSeconds int
}

func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
	    <title>Biodiversity analysis {{ .FileName }}</title>
	    <style>
        table { border-collapse: collapse; }
        td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
   		</style>
		{{ if .ShouldRefresh }}
        <script>
	        setTimeout(function () { window.location.reload(); }, {{ mul .RefreshIntervalSeconds 1000 }});
        </script>
		{{ end }}
	</head>
	<body>
		<h1>Biodiversity analysis</h1>
		<p><strong>File ID:</strong> {{ .FileID }}</p>
		<p><strong>File:</strong> {{ .FileName }} ({{ bytes .FileSize }})</p>
		<p><strong>Status:</strong> {{ .Status }}</p>
		{{ if .ErrorMessage }}
			<p style="color: red;">{{ .ErrorMessage }}</p>
		{{ else if eq .Status "completed" }}
			<p><strong>Sequences:</strong> {{ comma .TotalSequences }} in {{ printf "%.0f" .ProcessingTimeMS }} ms</p>
			{{ with .Quality }}
			<h2>Quality</h2>
			<p>Score {{ .QualityScore }}, contamination risk {{ .ContaminationRisk }}%, {{ .LowQualitySequences }} low quality sequences</p>
			{{ end }}
			{{ with .Indices }}
			<h2>Diversity</h2>
			<p>Shannon {{ .ShannonIndex }}, Simpson {{ .SimpsonIndex }}, richness {{ .SpeciesRichness }}, evenness {{ .Evenness }}</p>
			{{ end }}
			<h2>Families</h2>
			<table>
				<tr><th>Family</th><th>Count</th><th>%</th></tr>
				{{ range .Families }}
				<tr><td>{{ .Name }}</td><td>{{ .Count }}</td><td>{{ printf "%.1f" .Percentage }}</td></tr>
				{{ end }}
			</table>
			{{ if .Preview }}
			<h2>Sample sequences</h2>
			<table>
				<tr><th>Header</th><th>Length</th><th>GC %</th><th>Sequence</th></tr>
				{{ range .Preview }}
				<tr><td>{{ .Header }}</td><td>{{ comma .Length }}</td><td>{{ printf "%.1f" .GCContent }}</td><td><code>{{ .Sequence }}</code></td></tr>
				{{ end }}
			</table>
			{{ end }}
			<p><img src="/report/{{ .FileID }}/chart.svg?level=family" alt="family distribution"></p>
			<p><a href="/api/v1/report/{{ .FileID }}?format=csv">Download CSV report</a></p>
		{{ else }}
			<p>Analysis is {{ .Status }}{{ if .CurrentStep }} ({{ .CurrentStep }}){{ end }}. This page refreshes every {{ .RefreshIntervalSeconds }} seconds.</p>
		{{ end }}
	</body>
	</html>`

	analysisPageTemplate = template.New("analysis_page").Funcs(template.FuncMap{
		"mul":   func(a, b int) int { return a * b },
		"bytes": func(n int64) string { return humanize.Bytes(uint64(max(n, 0))) },
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
	})
	analysisPageTemplate = template.Must(analysisPageTemplate.Parse(mainTmpl))
}

func RenderAnalysisPage(w io.Writer, data AnalysisPageData) error {
	logger.Info("Rendering analysis page", zap.String("file_id", data.FileID), zap.String("status", data.Status))
	return analysisPageTemplate.Execute(w, data)
}
