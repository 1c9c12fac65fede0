package handler

// DI for all handlers and models alike.

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yumyai/biodiv/pkg/analysis"
	"github.com/yumyai/biodiv/pkg/db"
)

// completedCacheSize bounds the in-memory copies of completed analyses.
const completedCacheSize = 128

type DBContext struct {
	Store          *db.Store
	Uploads        *db.UploadDir
	Engine         *analysis.Engine
	Jobs           *JobManager
	MaxUploadBytes int64
	CleanupOnFail  bool

	completed *lru.Cache[string, *db.Analysis]
}

func NewDBContext(store *db.Store, uploads *db.UploadDir, engine *analysis.Engine, maxUploadBytes int64, cleanupOnFail bool) (*DBContext, error) {
	cache, err := lru.New[string, *db.Analysis](completedCacheSize)
	if err != nil {
		return nil, err
	}
	return &DBContext{
		Store:          store,
		Uploads:        uploads,
		Engine:         engine,
		Jobs:           NewJobManager(),
		MaxUploadBytes: maxUploadBytes,
		CleanupOnFail:  cleanupOnFail,
		completed:      cache,
	}, nil
}

// loadAnalysis returns the record for fileID, from cache when it is
// already completed.
func (dbctx *DBContext) loadAnalysis(ctx context.Context, fileID string) (*db.Analysis, error) {
	if a, ok := dbctx.completed.Get(fileID); ok {
		return a, nil
	}
	a, err := dbctx.Store.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if a.Status == db.StatusCompleted {
		dbctx.completed.Add(fileID, a)
	}
	return a, nil
}

func (dbctx *DBContext) forget(fileID string) {
	dbctx.completed.Remove(fileID)
}
