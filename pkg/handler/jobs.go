package handler

import (
	"context"
	"sync"
	"time"

	"github.com/yumyai/biodiv/pkg/handler/types"
)

// AnalysisJob keeps track of a background analysis while it runs.
type AnalysisJob struct {
	FileID      string
	CurrentStep string
	Cancelled   bool
	StartedAt   time.Time
	UpdatedAt   time.Time

	cancel context.CancelFunc
}

// JobManager stores running analyses indexed by file ID.
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*AnalysisJob
	wg   sync.WaitGroup
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*AnalysisJob),
	}
}

// Start registers a job and returns the context its analysis must run
// under. Every Start must be paired with Finish.
func (m *JobManager) Start(parent context.Context, fileID string) context.Context {
	ctx, cancel := context.WithCancel(parent)
	job := &AnalysisJob{
		FileID:    fileID,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
		cancel:    cancel,
	}

	m.mu.Lock()
	m.jobs[fileID] = job
	m.mu.Unlock()
	m.wg.Add(1)
	return ctx
}

// SetStep records the pipeline step currently running.
func (m *JobManager) SetStep(fileID, step string) {
	m.updateJob(fileID, func(job *AnalysisJob) {
		job.CurrentStep = step
	})
}

// Cancel flags the job and cancels its context. In-flight work that does
// not watch the context still runs to the end; its result is discarded.
func (m *JobManager) Cancel(fileID string) bool {
	found := false
	m.updateJob(fileID, func(job *AnalysisJob) {
		found = true
		job.Cancelled = true
		job.cancel()
	})
	return found
}

func (m *JobManager) Cancelled(fileID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[fileID]
	return ok && job.Cancelled
}

// Finish drops the job.
func (m *JobManager) Finish(fileID string) {
	m.mu.Lock()
	job, ok := m.jobs[fileID]
	delete(m.jobs, fileID)
	m.mu.Unlock()

	if ok {
		job.cancel()
		m.wg.Done()
	}
}

// Progress reports elapsed time and step of a running job.
func (m *JobManager) Progress(fileID string) (*types.Progress, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[fileID]
	if !ok {
		return nil, false
	}
	step := job.CurrentStep
	if step == "" {
		step = "Waiting to start"
	}
	return &types.Progress{
		ElapsedTime: time.Since(job.StartedAt).Milliseconds(),
		CurrentStep: step,
	}, true
}

// Running is the number of jobs not yet finished.
func (m *JobManager) Running() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}

// Wait blocks until every started job has finished.
func (m *JobManager) Wait() {
	m.wg.Wait()
}

func (m *JobManager) updateJob(fileID string, update func(job *AnalysisJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[fileID]
	if !ok {
		return
	}

	update(job)
	job.UpdatedAt = time.Now()
}
