package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/session"
)

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := AppPage(s.Session.State()).Render(w); err != nil {
		utils.Log.Errorf("render ui: %v", err)
	}
}

// The API call outlives the browser request: an in-flight analysis is not
// cancelled when the client goes away, its result just lands in the state.
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	_, err := s.Session.Analyze(detached(r), r.FormValue("text"))
	if !s.writeSessionError(w, err) {
		return
	}
	http.Redirect(w, r, "/ui/", http.StatusSeeOther)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	_, err := s.Session.AnalyzeBatch(detached(r), r.FormValue("items"))
	if !s.writeSessionError(w, err) {
		return
	}
	http.Redirect(w, r, "/ui/", http.StatusSeeOther)
}

func (s *Server) handleBatchToggle(w http.ResponseWriter, r *http.Request) {
	s.Session.ToggleBatch()
	http.Redirect(w, r, "/ui/", http.StatusSeeOther)
}

func (s *Server) handleBatchCSV(w http.ResponseWriter, r *http.Request) {
	st := s.Session.State()
	if st.Batch == nil {
		http.Error(w, session.ErrNoBatch.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sentiment-batch.csv"`)
	if err := s.Session.ExportCSV(w); err != nil {
		utils.Log.Errorf("export csv: %v", err)
	}
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.Session.ClearHistory()
	http.Redirect(w, r, "/ui/", http.StatusSeeOther)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.SetAPIBase(r.FormValue("api_base")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/ui/", http.StatusSeeOther)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Session.State())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Session.State().History)
}

// writeSessionError answers requests the session refused outright. API
// failures are already in the state and only need the page re-rendered,
// so they report true like success.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, session.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
		return false
	case errors.Is(err, session.ErrEmptyInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
