// Package session drives the analyze and batch operations: it moves the
// client state through idle → busy → idle, calls the API and records
// successful results in the history.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/sentiview/sentiview/pkg/export"
	"github.com/sentiview/sentiview/pkg/runtimeconfig"
	"github.com/sentiview/sentiview/pkg/sentiment"
	"github.com/sentiview/sentiview/pkg/state"
	"github.com/sentiview/sentiview/pkg/storage"
)

var (
	ErrBusy           = errors.New("an operation of this kind is already running")
	ErrEmptyInput     = errors.New("nothing to analyze")
	ErrNoBatch        = errors.New("no batch results to export")
	ErrInvalidAPIBase = errors.New("API base must be an http or https URL")
)

// Analyzer is the subset of *sentiment.Client the session needs.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*sentiment.Result, error)
	AnalyzeBatch(ctx context.Context, items []sentiment.BatchItem) (*sentiment.BatchResponse, error)
}

// ClientFactory builds an Analyzer for an API base URL.
type ClientFactory func(base string) Analyzer

// Config wires a Session.
type Config struct {
	Runtime runtimeconfig.RuntimeConfig
	// DB is optional; without it the session only lives in memory.
	DB        *storage.DB
	NewClient ClientFactory // defaults to sentiment.New
	Log       Logger        // optional; nil = no logging
	Now       func() time.Time
}

type Session struct {
	store       *state.Store[state.ClientState]
	runtime     runtimeconfig.RuntimeConfig
	newClient   ClientFactory
	log         Logger
	now         func() time.Time
	unsubscribe func()
}

// New loads the durable keys and returns a ready session. Missing or
// unreadable history starts empty; a missing API base falls back to the
// runtime config.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Runtime.APIBase == "" {
		cfg.Runtime = runtimeconfig.New("")
	}
	if cfg.NewClient == nil {
		cfg.NewClient = func(base string) Analyzer { return sentiment.New(base) }
	}
	if cfg.Log == nil {
		cfg.Log = nopLogger{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	initial := state.ClientState{
		APIBase: cfg.Runtime.APIBase,
		History: []storage.HistoryEntry{},
	}
	if cfg.DB != nil {
		base, err := cfg.DB.LoadAPIBase(ctx, cfg.Runtime.APIBase)
		if err != nil {
			return nil, fmt.Errorf("load api base: %w", err)
		}
		history, err := cfg.DB.LoadHistory(ctx)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		initial.APIBase = base
		initial.History = history
	}

	s := &Session{
		store:       state.NewStore(initial),
		runtime:     cfg.Runtime,
		newClient:   cfg.NewClient,
		log:         cfg.Log,
		now:         cfg.Now,
		unsubscribe: func() {},
	}
	if cfg.DB != nil {
		s.unsubscribe = s.store.Subscribe(persister(cfg.DB, cfg.Log))
	}
	return s, nil
}

// Close detaches the persistence subscriber.
func (s *Session) Close() {
	s.unsubscribe()
}

// State returns a snapshot of the client state.
func (s *Session) State() state.ClientState {
	return s.store.Get()
}

// Analyze scores text. On success the result becomes current and one
// history entry is added; on failure only the error is recorded.
func (s *Session) Analyze(ctx context.Context, text string) (*sentiment.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	busy := false
	st := s.store.Update(func(st state.ClientState) state.ClientState {
		if st.Busy {
			busy = true
			return st
		}
		st.Busy = true
		st.Input = text
		st.Err = ""
		st.Result = nil
		return st
	})
	if busy {
		return nil, ErrBusy
	}

	s.log.Debugf("[session] analyze via %s (%d chars)", st.APIBase, len(text))
	res, err := s.newClient(st.APIBase).Analyze(ctx, text)
	now := s.now()

	s.store.Update(func(st state.ClientState) state.ClientState {
		st.Busy = false
		if err != nil {
			st.Err = err.Error()
			return st
		}
		st.Result = res
		st.History = storage.PrependHistory(st.History, storage.NewHistoryEntry(now, text, *res))
		st.HistoryRev++
		return st
	})
	if err != nil {
		s.log.Warnf("[session] analyze failed: %v", err)
		return nil, err
	}
	return res, nil
}

// AnalyzeBatch scores every non-blank line of raw in one request. Results
// are joined to lines by position and each one is added to the history in
// submission order.
func (s *Session) AnalyzeBatch(ctx context.Context, raw string) (*state.BatchView, error) {
	items := sentiment.ParseBatchInput(raw)
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}

	busy := false
	st := s.store.Update(func(st state.ClientState) state.ClientState {
		if st.BatchBusy {
			busy = true
			return st
		}
		st.BatchBusy = true
		st.BatchInput = raw
		st.BatchErr = ""
		st.Batch = nil
		return st
	})
	if busy {
		return nil, ErrBusy
	}

	s.log.Debugf("[session] batch of %d items via %s", len(items), st.APIBase)
	resp, err := s.newClient(st.APIBase).AnalyzeBatch(ctx, items)
	now := s.now()

	var view *state.BatchView
	s.store.Update(func(st state.ClientState) state.ClientState {
		st.BatchBusy = false
		if err != nil {
			st.BatchErr = err.Error()
			return st
		}
		view = state.JoinBatch(items, resp)
		entries := make([]storage.HistoryEntry, 0, len(view.Rows))
		for _, row := range view.Rows {
			entries = append(entries, storage.NewHistoryEntry(now, row.Text, sentiment.Result{
				Label:  row.Label,
				Model:  resp.Model,
				Scores: row.Scores,
			}))
		}
		st.Batch = view
		st.History = storage.PrependHistory(st.History, entries...)
		st.HistoryRev++
		return st
	})
	if err != nil {
		s.log.Warnf("[session] batch failed: %v", err)
		return nil, err
	}
	return view, nil
}

// ToggleBatch opens or closes the batch panel and reports the new state.
func (s *Session) ToggleBatch() bool {
	st := s.store.Update(func(st state.ClientState) state.ClientState {
		st.BatchOpen = !st.BatchOpen
		return st
	})
	return st.BatchOpen
}

// ClearHistory empties the history; the empty list is persisted.
func (s *Session) ClearHistory() {
	s.store.Update(func(st state.ClientState) state.ClientState {
		st.History = []storage.HistoryEntry{}
		st.HistoryRev++
		return st
	})
}

// SetAPIBase changes the API base used by later requests. A blank value
// restores the runtime default.
func (s *Session) SetAPIBase(base string) error {
	base = strings.TrimSpace(base)
	if base == "" {
		base = s.runtime.APIBase
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidAPIBase
	}
	s.store.Update(func(st state.ClientState) state.ClientState {
		st.APIBase = base
		return st
	})
	return nil
}

// ExportCSV writes the last batch results.
func (s *Session) ExportCSV(w io.Writer) error {
	st := s.store.Get()
	if st.Batch == nil {
		return ErrNoBatch
	}
	return export.WriteBatchCSV(w, st.Batch.Rows)
}

// persister writes durable keys through as soon as they change.
func persister(db *storage.DB, log Logger) state.Listener[state.ClientState] {
	return func(prev, next state.ClientState) {
		ctx := context.Background()
		if next.APIBase != prev.APIBase {
			if err := db.SaveAPIBase(ctx, next.APIBase); err != nil {
				log.Errorf("[session] failed to persist api base: %v", err)
			}
		}
		if next.HistoryRev != prev.HistoryRev {
			if err := db.SaveHistory(ctx, next.History); err != nil {
				log.Errorf("[session] failed to persist history: %v", err)
			}
		}
	}
}
