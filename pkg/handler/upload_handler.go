package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/db"
	"github.com/yumyai/biodiv/pkg/handler/request"
	"github.com/yumyai/biodiv/pkg/handler/types"
)

const (
	uploadField     = "fastaFile"
	maxMultipartMem = 32 << 20
	cancelledByUser = "Analysis cancelled by user"
)

// UploadHandler stores the uploaded FASTA file, creates a pending record and
// starts the analysis in the background.
func (dbctx *DBContext) UploadHandler(w http.ResponseWriter, r *http.Request) {

	if r.ContentLength > dbctx.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, dbctx.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "Please select a FASTA file to upload")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	fileID := uuid.NewString()
	path, size, err := dbctx.Uploads.Save(fileID, header.Filename, file)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if size == 0 {
		_ = dbctx.Uploads.Remove(path)
		writeError(w, http.StatusBadRequest, "The uploaded file is empty")
		return
	}

	record := &db.Analysis{
		FileID:       fileID,
		FileName:     filepath.Base(path),
		OriginalName: header.Filename,
		FileSize:     size,
		UploadDate:   time.Now().UTC(),
	}
	if err := dbctx.Store.Create(r.Context(), record); err != nil {
		_ = dbctx.Uploads.Remove(path)
		writeErr(w, r, err)
		return
	}

	logger.Info("File uploaded",
		zap.String("file_id", fileID),
		zap.String("original_name", header.Filename),
		zap.Int64("size", size),
	)

	ctx := dbctx.Jobs.Start(context.Background(), fileID)
	go dbctx.runAnalysis(ctx, fileID, path, header.Filename)

	writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "File uploaded successfully",
		Data: types.UploadData{
			FileID:     fileID,
			FileName:   header.Filename,
			FileSize:   size,
			UploadDate: record.UploadDate,
			Status:     db.StatusPending,
		},
	})
}

// runAnalysis validates then analyzes one upload and records the outcome.
// Store writes use their own context so a cancelled job can still be
// recorded.
func (dbctx *DBContext) runAnalysis(ctx context.Context, fileID, path, name string) {
	defer dbctx.Jobs.Finish(fileID)
	bg := context.Background()

	if err := dbctx.Store.MarkProcessing(bg, fileID, time.Now().UTC()); err != nil {
		logger.Error("mark processing", zap.String("file_id", fileID), zap.Error(err))
		return
	}

	validation := dbctx.Engine.ValidateFile(path)
	if !validation.IsValid {
		dbctx.failAnalysis(fileID, path, fmt.Sprintf("Invalid FASTA file: %s", validation.Error))
		return
	}
	logger.Info("FASTA file validated", zap.String("file_id", fileID), zap.Int("sequences", validation.SequenceCount))

	res, err := dbctx.Engine.AnalyzeFile(ctx, path, name, func(step string) {
		dbctx.Jobs.SetStep(fileID, step)
	})

	if dbctx.Jobs.Cancelled(fileID) {
		logger.Info("Discarding cancelled analysis", zap.String("file_id", fileID))
		dbctx.cleanup(path)
		return
	}
	if err != nil {
		dbctx.failAnalysis(fileID, path, err.Error())
		return
	}

	if err := dbctx.Store.Complete(bg, fileID, res); err != nil {
		if errors.Is(err, db.ErrStatus) {
			logger.Info("Analysis no longer processing, result discarded", zap.String("file_id", fileID))
			return
		}
		logger.Error("store result", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	logger.Info("Analysis completed", zap.String("file_id", fileID), zap.Int("sequences", res.TotalSequences))
}

func (dbctx *DBContext) failAnalysis(fileID, path, msg string) {
	logger.Warn("Analysis failed", zap.String("file_id", fileID), zap.String("error", msg))
	if err := dbctx.Store.Fail(context.Background(), fileID, msg); err != nil {
		logger.Error("mark failed", zap.String("file_id", fileID), zap.Error(err))
	}
	dbctx.cleanup(path)
}

func (dbctx *DBContext) cleanup(path string) {
	if !dbctx.CleanupOnFail {
		return
	}
	if err := dbctx.Uploads.Remove(path); err != nil {
		logger.Error("Error cleaning up file", zap.String("path", path), zap.Error(err))
	}
}

// UploadStatusHandler reports status, with progress while processing.
func (dbctx *DBContext) UploadStatusHandler(w http.ResponseWriter, r *http.Request) {

	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	a, err := dbctx.Store.Get(r.Context(), fileID)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	data := types.StatusData{
		FileID:       a.FileID,
		FileName:     a.OriginalName,
		Status:       a.Status,
		UploadDate:   a.UploadDate,
		AnalysisDate: a.AnalysisDate,
	}
	switch a.Status {
	case db.StatusProcessing:
		if p, ok := dbctx.Jobs.Progress(fileID); ok {
			data.Progress = p
		}
	case db.StatusCompleted:
		data.TotalSequences = &a.TotalSequences
		data.ProcessingTime = &a.ProcessingTime
	case db.StatusFailed:
		data.Error = a.Error
	}

	writeJSON(w, http.StatusOK, types.Response{Success: true, Data: data})
}

// RecentUploadsHandler lists uploads newest first, paginated by limit and page.
func (dbctx *DBContext) RecentUploadsHandler(w http.ResponseWriter, r *http.Request) {

	page := request.NewPageRequest(r.URL.Query())

	uploads, err := dbctx.Store.Recent(r.Context(), page.Limit, page.Page)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	total, err := dbctx.Store.Count(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Data: types.RecentUploads{
			Uploads: uploads,
			Pagination: types.Pagination{
				Page:  page.Page,
				Limit: page.Limit,
				Total: total,
				Pages: page.Pages(total),
			},
		},
	})
}

// CancelHandler marks a processing analysis as failed and cancels its run.
func (dbctx *DBContext) CancelHandler(w http.ResponseWriter, r *http.Request) {

	fileID, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	a, err := dbctx.Store.Get(r.Context(), fileID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if a.Status != db.StatusProcessing {
		writeError(w, http.StatusBadRequest, "Only processing analyses can be cancelled")
		return
	}

	dbctx.Jobs.Cancel(fileID)
	if err := dbctx.Store.Fail(r.Context(), fileID, cancelledByUser); err != nil {
		if errors.Is(err, db.ErrStatus) {
			writeError(w, http.StatusBadRequest, "Only processing analyses can be cancelled")
			return
		}
		writeErr(w, r, err)
		return
	}

	logger.Info("Analysis cancelled", zap.String("file_id", fileID))
	writeJSON(w, http.StatusOK, types.Response{
		Success: true,
		Message: "Analysis cancellation requested",
	})
}
