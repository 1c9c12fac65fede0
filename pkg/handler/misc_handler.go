// Handler for miscellaneous endpoints such as health check, plus the JSON
// helpers every handler shares.

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/db"
	"github.com/yumyai/biodiv/pkg/fasta"
	"github.com/yumyai/biodiv/pkg/handler/request"
	"github.com/yumyai/biodiv/pkg/handler/types"
	"github.com/yumyai/biodiv/pkg/report"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Timestamp time.Time `json:"timestamp"`
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Timestamp: time.Now(),
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.ErrorResponse{
		Error:     true,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// statusFor maps an error to the HTTP status it should be reported with.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, request.ErrInvalidFileID),
		errors.Is(err, db.ErrUnsupportedExt),
		errors.Is(err, db.ErrStatus),
		errors.Is(err, fasta.ErrInvalidFasta),
		errors.Is(err, report.ErrChartType),
		errors.Is(err, report.ErrNotCompleted):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeErr reports err with its mapped status. Server errors are logged and
// their details kept out of the response.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		message = "Internal server error"
	}
	if status == http.StatusRequestEntityTooLarge {
		message = "File too large"
	}
	writeError(w, status, message)
}

// fileIDParam validates the {fileId} path segment and writes a 400 when it
// is malformed.
func fileIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := request.ParseFileID(r.PathValue("fileId"))
	if err != nil {
		writeErr(w, r, err)
		return "", false
	}
	return id, true
}
