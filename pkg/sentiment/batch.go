package sentiment

import (
	"strconv"
	"strings"
)

// ParseBatchInput turns multi-line text into batch items: one per
// non-blank line, trimmed, with ids "1", "2", ... in order of appearance.
func ParseBatchInput(raw string) []BatchItem {
	items := []BatchItem{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, BatchItem{
			ID:   strconv.Itoa(len(items) + 1),
			Text: line,
		})
	}
	return items
}
