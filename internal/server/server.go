package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/runtimeconfig"
	"github.com/sentiview/sentiview/pkg/session"
)

//go:embed web
var WebFS embed.FS

type Server struct {
	Session *session.Session
	// Root is the static site directory holding index.html and config.js.
	Root string
}

func New(sess *session.Session, root string) *Server {
	return &Server{
		Session: sess,
		Root:    root,
	}
}

// Handler returns the routes for the demo UI, its JSON endpoints and the
// static site.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// UI
	mux.HandleFunc("GET /ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("GET /ui/{$}", s.handleUI)
	mux.HandleFunc("POST /ui/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /ui/batch", s.handleBatch)
	mux.HandleFunc("POST /ui/batch/toggle", s.handleBatchToggle)
	mux.HandleFunc("GET /ui/batch.csv", s.handleBatchCSV)
	mux.HandleFunc("POST /ui/history/clear", s.handleClearHistory)
	mux.HandleFunc("POST /ui/settings", s.handleSettings)

	// API Group
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	// Static Files
	fileServer := http.FileServer(http.Dir(s.Root))
	mux.Handle("/", noCacheConfig(fileServer))

	return logRequests(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s (root: %s)", addr, s.Root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		utils.Log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// SeedSite copies the embedded default site into root when root has no
// index.html yet. It reports whether anything was written.
func SeedSite(root string) (bool, error) {
	if _, err := os.Stat(filepath.Join(root, runtimeconfig.IndexFile)); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	webRoot, err := fs.Sub(WebFS, "web")
	if err != nil {
		return false, err
	}
	err = fs.WalkDir(webRoot, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dst := filepath.Join(root, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		if _, err := os.Stat(dst); err == nil {
			return nil
		}
		b, err := fs.ReadFile(webRoot, path)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, b, 0o644)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// noCacheConfig stops browsers from holding on to a stale config.js.
func noCacheConfig(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == runtimeconfig.ScriptSrc {
			w.Header().Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		utils.Log.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
