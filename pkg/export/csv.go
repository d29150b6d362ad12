// Package export serialises batch results.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sentiview/sentiview/pkg/sentiment"
	"github.com/sentiview/sentiview/pkg/state"
)

// Header is the first CSV row.
var Header = []string{"id", "text", "label", "neg", "neu", "pos"}

// WriteBatchCSV writes one row per batch result. Fields containing a comma,
// a quote or a line break are quoted with embedded quotes doubled.
func WriteBatchCSV(w io.Writer, rows []state.BatchRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ID,
			r.Text,
			string(r.Label),
			formatScore(r.Scores.Get(sentiment.Negative)),
			formatScore(r.Scores.Get(sentiment.Neutral)),
			formatScore(r.Scores.Get(sentiment.Positive)),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
