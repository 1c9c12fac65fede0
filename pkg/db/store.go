package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yumyai/biodiv/internal/util"
	"github.com/yumyai/biodiv/pkg/analysis"
)

var (
	ErrNotFound = errors.New("analysis not found")
	// ErrStatus is returned when a transition is not allowed from the
	// record's current status.
	ErrStatus = errors.New("analysis is not in the expected status")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Analysis is one uploaded file and, once completed, its result.
type Analysis struct {
	FileID         string           `json:"fileId"`
	FileName       string           `json:"fileName"`
	OriginalName   string           `json:"originalName"`
	FileSize       int64            `json:"fileSize"`
	Status         Status           `json:"status"`
	UploadDate     time.Time        `json:"uploadDate"`
	AnalysisDate   *time.Time       `json:"analysisDate,omitempty"`
	Error          string           `json:"error,omitempty"`
	TotalSequences int              `json:"totalSequences"`
	ProcessingTime float64          `json:"processingTime"`
	Result         *analysis.Result `json:"results,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	file_id         TEXT PRIMARY KEY,
	file_name       TEXT NOT NULL,
	original_name   TEXT NOT NULL,
	file_size       INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL,
	upload_date     TEXT NOT NULL,
	analysis_date   TEXT,
	error           TEXT NOT NULL DEFAULT '',
	total_sequences INTEGER NOT NULL DEFAULT 0,
	processing_time REAL NOT NULL DEFAULT 0,
	result_json     TEXT
);
CREATE INDEX IF NOT EXISTS analyses_upload_date ON analyses (upload_date DESC);
`

const summaryColumns = `file_id, file_name, original_name, file_size, status, upload_date,
	analysis_date, error, total_sequences, processing_time`

// Store keeps analysis records in SQLite. Writes go through one mutex so a
// record never sees interleaved status transitions.
type Store struct {
	sql *sql.DB
	mu  sync.Mutex
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)

	s := &Store{sql: conn}
	if err := s.Migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.sql.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.sql.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if _, err := s.sql.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Create inserts a new pending record.
func (s *Store) Create(ctx context.Context, a *Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.UploadDate.IsZero() {
		a.UploadDate = time.Now().UTC()
	}
	a.Status = StatusPending

	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO analyses (file_id, file_name, original_name, file_size, status, upload_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.FileID, a.FileName, a.OriginalName, a.FileSize, a.Status, formatTime(a.UploadDate))
	if err != nil {
		return fmt.Errorf("create %s: %w", a.FileID, err)
	}
	return nil
}

// MarkProcessing moves a pending record to processing.
func (s *Store) MarkProcessing(ctx context.Context, fileID string, at time.Time) error {
	return s.transition(ctx, fileID, []Status{StatusPending},
		`UPDATE analyses SET status = ?, analysis_date = ? WHERE file_id = ? AND status = ?`,
		StatusProcessing, formatTime(at), fileID, StatusPending)
}

// Complete stores the result of a processing record. A record that was
// failed in the meantime (for example cancelled) is left alone and
// ErrStatus is returned.
func (s *Store) Complete(ctx context.Context, fileID string, res *analysis.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return s.transition(ctx, fileID, []Status{StatusProcessing},
		`UPDATE analyses SET status = ?, analysis_date = ?, total_sequences = ?, processing_time = ?, result_json = ?, error = ''
		 WHERE file_id = ? AND status = ?`,
		StatusCompleted, formatTime(res.AnalyzedAt), res.TotalSequences, res.ProcessingTime, string(raw),
		fileID, StatusProcessing)
}

// Fail marks a pending or processing record as failed with msg.
func (s *Store) Fail(ctx context.Context, fileID, msg string) error {
	return s.transition(ctx, fileID, []Status{StatusPending, StatusProcessing},
		`UPDATE analyses SET status = ?, error = ? WHERE file_id = ? AND status IN (?, ?)`,
		StatusFailed, msg, fileID, StatusPending, StatusProcessing)
}

func (s *Store) transition(ctx context.Context, fileID string, from []Status, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.sql.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", fileID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", fileID, err)
	}
	if n > 0 {
		return nil
	}

	var current Status
	err = s.sql.QueryRowContext(ctx, `SELECT status FROM analyses WHERE file_id = ?`, fileID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s is %s, want one of %v", ErrStatus, fileID, current, from)
}

// Get returns the full record including its decoded result.
func (s *Store) Get(ctx context.Context, fileID string) (*Analysis, error) {
	row := s.sql.QueryRowContext(ctx,
		`SELECT `+summaryColumns+`, result_json FROM analyses WHERE file_id = ?`, fileID)

	var resultJSON sql.NullString
	a, err := scanSummary(row, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if resultJSON.Valid && resultJSON.String != "" {
		var res analysis.Result
		if err := json.Unmarshal([]byte(resultJSON.String), &res); err != nil {
			return nil, fmt.Errorf("decode result for %s: %w", fileID, err)
		}
		a.Result = &res
	}
	return a, nil
}

// Recent lists records newest first without their results. page starts at 1.
func (s *Store) Recent(ctx context.Context, limit, page int) ([]*Analysis, error) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	// keeps the offset within int32 range
	page = min(page, math.MaxInt32/limit)

	stm, err := s.sql.PrepareContext(ctx,
		`SELECT `+summaryColumns+` FROM analyses ORDER BY upload_date DESC, file_id LIMIT ? OFFSET ?`)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	rows, err := stm.QueryContext(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// All lists every record newest first without their results.
func (s *Store) All(ctx context.Context) ([]*Analysis, error) {
	rows, err := s.sql.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM analyses ORDER BY upload_date DESC, file_id`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.sql.QueryRowContext(ctx, `SELECT COUNT(file_id) FROM analyses`).Scan(&n)
	return n, err
}

func (s *Store) Delete(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.sql.ExecContext(ctx, `DELETE FROM analyses WHERE file_id = ?`, fileID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, extra ...any) (*Analysis, error) {
	var (
		a            Analysis
		uploadDate   string
		analysisDate sql.NullString
	)
	dest := []any{
		&a.FileID, &a.FileName, &a.OriginalName, &a.FileSize, &a.Status, &uploadDate,
		&analysisDate, &a.Error, &a.TotalSequences, &a.ProcessingTime,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if a.UploadDate, err = parseTime(uploadDate); err != nil {
		return nil, err
	}
	if analysisDate.Valid {
		t, err := parseTime(analysisDate.String)
		if err != nil {
			return nil, err
		}
		a.AnalysisDate = &t
	}
	return &a, nil
}

func collect(rows *sql.Rows) ([]*Analysis, error) {
	defer rows.Close()

	out := make([]*Analysis, 0, 16)
	for rows.Next() {
		a, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Times are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
