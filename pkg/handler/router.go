package handler

import (
	"mime"
	"net/http"
	"path/filepath"
)

// NewRouter wires every route. Static assets, including the upload page
// served at "/", come from staticDir.
func NewRouter(dbctx *DBContext, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Main routes
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	})
	mux.HandleFunc("GET /analysis/{fileId}", dbctx.AnalysisPage)
	mux.HandleFunc("GET /report/{fileId}/chart.svg", dbctx.ChartSVGHandler)

	// API routes
	mux.HandleFunc("GET /api/v1/health", HealthCheck)

	mux.HandleFunc("POST /api/v1/upload", dbctx.UploadHandler)
	mux.HandleFunc("GET /api/v1/upload/status/{fileId}", dbctx.UploadStatusHandler)
	mux.HandleFunc("GET /api/v1/upload/recent", dbctx.RecentUploadsHandler)
	mux.HandleFunc("POST /api/v1/upload/{fileId}/cancel", dbctx.CancelHandler)

	mux.HandleFunc("GET /api/v1/analysis", dbctx.ListAnalysesHandler)
	mux.HandleFunc("GET /api/v1/analysis/{fileId}", dbctx.GetAnalysisHandler)
	mux.HandleFunc("DELETE /api/v1/analysis/{fileId}", dbctx.DeleteAnalysisHandler)

	mux.HandleFunc("GET /api/v1/report/{fileId}", dbctx.ReportHandler)
	mux.HandleFunc("GET /api/v1/report/{fileId}/charts", dbctx.ChartsHandler)

	// Static files
	setupStaticFiles(mux, staticDir)

	return mux
}

func setupStaticFiles(mux *http.ServeMux, dir string) {
	_ = mime.AddExtensionType(".js", "text/javascript")
	_ = mime.AddExtensionType(".css", "text/css")
	fs := http.FileServer(http.Dir(dir))
	mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
}
