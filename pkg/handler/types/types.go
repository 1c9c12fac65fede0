package types

import (
	"time"

	"github.com/yumyai/biodiv/pkg/db"
)

// Response envelope shared by the JSON API.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error     bool      `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type UploadData struct {
	FileID     string    `json:"fileId"`
	FileName   string    `json:"fileName"`
	FileSize   int64     `json:"fileSize"`
	UploadDate time.Time `json:"uploadDate"`
	Status     db.Status `json:"status"`
}

type Progress struct {
	ElapsedTime            int64  `json:"elapsedTime"`
	EstimatedTimeRemaining *int64 `json:"estimatedTimeRemaining"`
	CurrentStep            string `json:"currentStep"`
}

// StatusData is an upload's status. Totals are set once completed and Error
// once failed.
type StatusData struct {
	FileID         string     `json:"fileId"`
	FileName       string     `json:"fileName"`
	Status         db.Status  `json:"status"`
	UploadDate     time.Time  `json:"uploadDate"`
	AnalysisDate   *time.Time `json:"analysisDate,omitempty"`
	Progress       *Progress  `json:"progress"`
	TotalSequences *int       `json:"totalSequences,omitempty"`
	ProcessingTime *float64   `json:"processingTime,omitempty"`
	Error          string     `json:"error,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type RecentUploads struct {
	Uploads    []*db.Analysis `json:"uploads"`
	Pagination Pagination     `json:"pagination"`
}
