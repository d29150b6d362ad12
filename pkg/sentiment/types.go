package sentiment

import (
	"fmt"
	"strings"
)

// Label is the sentiment class assigned by the remote model.
type Label string

const (
	Positive Label = "Positive"
	Neutral  Label = "Neutral"
	Negative Label = "Negative"
)

// Labels lists every label in display order.
var Labels = []Label{Positive, Neutral, Negative}

// ParseLabel matches s case-insensitively against the known labels.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown label %q", s)
}

func (l Label) String() string {
	return string(l)
}

// Score is the model's confidence for a single label, in [0,1].
type Score struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Scores is ordered as returned by the API.
type Scores []Score

// Get returns the score for l, or 0 when absent.
func (s Scores) Get(l Label) float64 {
	for _, sc := range s {
		if sc.Label == l {
			return sc.Score
		}
	}
	return 0
}

// Result is the response of a single analysis.
type Result struct {
	Label     Label   `json:"label"`
	Model     string  `json:"model"`
	LatencyMS float64 `json:"latency_ms"`
	Scores    Scores  `json:"scores"`
}

// BatchItem is one line of batch input.
type BatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchResultItem is matched to its BatchItem by position, not by ID.
type BatchResultItem struct {
	ID     string `json:"id"`
	Label  Label  `json:"label"`
	Scores Scores `json:"scores"`
}

type BatchResponse struct {
	Model   string            `json:"model"`
	Results []BatchResultItem `json:"results"`
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type batchRequest struct {
	Items []BatchItem `json:"items"`
}
