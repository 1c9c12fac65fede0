package handler

import (
	"bytes"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/db"
	"github.com/yumyai/biodiv/pkg/handler/types"
	"github.com/yumyai/biodiv/pkg/render"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

const pageRefreshSeconds = 3

// GetAnalysisHandler returns the full record of a completed analysis. While
// the analysis is still running it answers 202 with the bare status.
func (dbctx *DBContext) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {

	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	a, err := dbctx.loadAnalysis(r.Context(), fileID)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	switch a.Status {
	case db.StatusPending, db.StatusProcessing:
		writeJSON(w, http.StatusAccepted, types.Response{
			Success: true,
			Message: "Analysis not yet completed",
			Data: types.StatusData{
				FileID:     a.FileID,
				FileName:   a.OriginalName,
				Status:     a.Status,
				UploadDate: a.UploadDate,
			},
		})
		return
	}

	writeJSON(w, http.StatusOK, types.Response{Success: true, Data: a})
}

// ListAnalysesHandler returns the summaries of every analysis.
func (dbctx *DBContext) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {

	all, err := dbctx.Store.All(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Response{Success: true, Data: all})
}

// DeleteAnalysisHandler drops a finished analysis and its uploaded file.
func (dbctx *DBContext) DeleteAnalysisHandler(w http.ResponseWriter, r *http.Request) {

	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	a, err := dbctx.Store.Get(r.Context(), fileID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if a.Status == db.StatusPending || a.Status == db.StatusProcessing {
		writeError(w, http.StatusBadRequest, "Analysis is still running")
		return
	}

	if err := dbctx.Store.Delete(r.Context(), fileID); err != nil {
		writeErr(w, r, err)
		return
	}
	dbctx.forget(fileID)
	if err := dbctx.Uploads.Remove(filepath.Join(dbctx.Uploads.Dir, a.FileName)); err != nil {
		logger.Warn("remove upload", zap.String("file_id", fileID), zap.Error(err))
	}

	logger.Info("Analysis deleted", zap.String("file_id", fileID))
	writeJSON(w, http.StatusOK, types.Response{Success: true, Message: "Analysis deleted"})
}

// AnalysisPage renders the HTML view of one analysis. The page reloads
// itself until the analysis has finished.
func (dbctx *DBContext) AnalysisPage(w http.ResponseWriter, r *http.Request) {

	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	a, err := dbctx.loadAnalysis(r.Context(), fileID)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		logger.Error("load analysis", zap.String("file_id", fileID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := render.AnalysisPageData{
		FileID:                 a.FileID,
		FileName:               a.OriginalName,
		FileSize:               a.FileSize,
		Status:                 string(a.Status),
		ErrorMessage:           a.Error,
		TotalSequences:         a.TotalSequences,
		ProcessingTimeMS:       a.ProcessingTime,
		RefreshIntervalSeconds: pageRefreshSeconds,
	}
	switch a.Status {
	case db.StatusPending, db.StatusProcessing:
		data.ShouldRefresh = true
		if p, ok := dbctx.Jobs.Progress(fileID); ok {
			data.CurrentStep = p.CurrentStep
		}
	case db.StatusCompleted:
		if a.Result != nil {
			data.Quality = &a.Result.QualityMetrics
			data.Indices = &a.Result.BiodiversityIndices
			data.Families = a.Result.HierarchicalDistribution[taxonomy.Family]
			data.Preview = a.Result.SequencePreview
		}
	}

	var buf bytes.Buffer
	if err := render.RenderAnalysisPage(&buf, data); err != nil {
		logger.Error("render analysis page", zap.String("file_id", fileID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
