package state

import (
	"github.com/sentiview/sentiview/pkg/sentiment"
	"github.com/sentiview/sentiview/pkg/storage"
)

// BatchRow is a batch result joined with the text submitted at the same
// position.
type BatchRow struct {
	ID     string           `json:"id"`
	Text   string           `json:"text"`
	Label  sentiment.Label  `json:"label"`
	Scores sentiment.Scores `json:"scores"`
}

type BatchView struct {
	Model string     `json:"model"`
	Rows  []BatchRow `json:"rows"`
}

// ClientState is the in-memory session state. Values are replaced, never
// mutated in place, so copies returned by Store.Get are safe to read.
type ClientState struct {
	Input  string            `json:"input"`
	Busy   bool              `json:"busy"`
	Result *sentiment.Result `json:"result,omitempty"`
	Err    string            `json:"error,omitempty"`

	BatchOpen  bool       `json:"batch_open"`
	BatchInput string     `json:"batch_input"`
	BatchBusy  bool       `json:"batch_busy"`
	Batch      *BatchView `json:"batch,omitempty"`
	BatchErr   string     `json:"batch_error,omitempty"`

	APIBase string                 `json:"api_base"`
	History []storage.HistoryEntry `json:"history"`
	// HistoryRev changes on every history mutation.
	HistoryRev uint64 `json:"-"`
}

// JoinBatch pairs results with items by position. Extra results or items
// on either side are dropped.
func JoinBatch(items []sentiment.BatchItem, resp *sentiment.BatchResponse) *BatchView {
	view := &BatchView{Model: resp.Model, Rows: []BatchRow{}}
	for i, r := range resp.Results {
		if i >= len(items) {
			break
		}
		view.Rows = append(view.Rows, BatchRow{
			ID:     r.ID,
			Text:   items[i].Text,
			Label:  r.Label,
			Scores: r.Scores,
		})
	}
	return view
}
