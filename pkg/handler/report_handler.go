package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/handler/params"
	"github.com/yumyai/biodiv/pkg/handler/types"
	"github.com/yumyai/biodiv/pkg/render"
	"github.com/yumyai/biodiv/pkg/report"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

// ReportHandler serves the report of a completed analysis as JSON or CSV.
func (dbctx *DBContext) ReportHandler(w http.ResponseWriter, r *http.Request) {

	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	format := params.ParseReportFormat(r.URL.Query().Get("format"))
	if format == params.ReportFormatUnknown {
		writeError(w, http.StatusBadRequest, "Supported formats: json, csv")
		return
	}

	a, err := dbctx.loadAnalysis(r.Context(), fileID)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	rep, err := report.Build(a)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	switch format {
	case params.ReportFormatCSV:
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, rep); err != nil {
			writeErr(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s.csv", fileID))
		_, _ = buf.WriteTo(w)
	default:
		writeJSON(w, http.StatusOK, types.Response{Success: true, Data: rep})
	}
}

// ChartsHandler returns the data series of one chart.
func (dbctx *DBContext) ChartsHandler(w http.ResponseWriter, r *http.Request) {

	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	ct, err := report.ParseChartType(r.URL.Query().Get("chartType"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	a, err := dbctx.loadAnalysis(r.Context(), fileID)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	chart, err := report.BuildChart(a, ct)
	if errors.Is(err, report.ErrNotCompleted) {
		writeError(w, http.StatusNotFound, "Analysis not found or not completed")
		return
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.Response{Success: true, Data: chart})
}

// ChartSVGHandler draws the distribution at one taxonomic level as an SVG
// bar chart. The level defaults to family.
func (dbctx *DBContext) ChartSVGHandler(w http.ResponseWriter, r *http.Request) {

	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	level := taxonomy.Family
	if raw := r.URL.Query().Get("level"); raw != "" {
		l, ok := taxonomy.ParseLevel(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown taxonomic level %q", raw))
			return
		}
		level = l
	}

	a, err := dbctx.loadAnalysis(r.Context(), fileID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if a.Result == nil {
		writeError(w, http.StatusNotFound, "Analysis not found or not completed")
		return
	}

	data := render.LevelBarChart(a.OriginalName, level, a.Result.HierarchicalDistribution[level])
	var buf bytes.Buffer
	if err := render.RenderBarChartSVG(&buf, data); err != nil {
		logger.Error("render chart", zap.String("file_id", fileID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = buf.WriteTo(w)
}
