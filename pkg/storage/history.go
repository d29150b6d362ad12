package storage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/sentiment"
)

// MaxHistory caps the stored history; older entries are dropped first.
const MaxHistory = 50

// HistoryEntry is one persisted analysis.
type HistoryEntry struct {
	// TS is a Unix timestamp in milliseconds.
	TS     int64            `json:"ts"`
	Text   string           `json:"text"`
	Result sentiment.Result `json:"result"`
}

func NewHistoryEntry(at time.Time, text string, result sentiment.Result) HistoryEntry {
	return HistoryEntry{TS: at.UnixMilli(), Text: text, Result: result}
}

func (e HistoryEntry) Time() time.Time {
	return time.UnixMilli(e.TS)
}

// PrependHistory returns a new newest-first list with entries placed in
// front of list. entries are given oldest first, so the last one ends up at
// index 0. The result never exceeds MaxHistory and never aliases list.
func PrependHistory(list []HistoryEntry, entries ...HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, min(len(list)+len(entries), MaxHistory))
	for i := len(entries) - 1; i >= 0 && len(out) < MaxHistory; i-- {
		out = append(out, entries[i])
	}
	for _, e := range list {
		if len(out) >= MaxHistory {
			break
		}
		out = append(out, e)
	}
	return out
}

// LoadHistory never fails because of missing or corrupted data: both come
// back as an empty list. Only database errors are returned.
func (d *DB) LoadHistory(ctx context.Context) ([]HistoryEntry, error) {
	raw, ok, err := d.Get(ctx, KeyHistory)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []HistoryEntry{}, nil
	}

	var list []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		utils.Log.Debugf("[storage] discarding unreadable history: %v", err)
		return []HistoryEntry{}, nil
	}
	if list == nil {
		return []HistoryEntry{}, nil
	}
	if len(list) > MaxHistory {
		list = list[:MaxHistory]
	}
	return list, nil
}

func (d *DB) SaveHistory(ctx context.Context, list []HistoryEntry) error {
	if list == nil {
		list = []HistoryEntry{}
	}
	if len(list) > MaxHistory {
		list = list[:MaxHistory]
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return d.Set(ctx, KeyHistory, string(b))
}

// LoadAPIBase returns the stored API base, or fallback when none is stored.
func (d *DB) LoadAPIBase(ctx context.Context, fallback string) (string, error) {
	v, ok, err := d.Get(ctx, KeyAPIBase)
	if err != nil {
		return fallback, err
	}
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	return v, nil
}

func (d *DB) SaveAPIBase(ctx context.Context, base string) error {
	return d.Set(ctx, KeyAPIBase, base)
}
