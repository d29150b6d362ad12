package sentiment

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

func decodeResult(body []byte) (*Result, error) {
	root, err := parseObject(body)
	if err != nil {
		return nil, err
	}

	label, err := labelField(root, "label")
	if err != nil {
		return nil, err
	}
	model, err := stringField(root, "model")
	if err != nil {
		return nil, err
	}
	latency := root.Get("latency_ms")
	if latency.Type != gjson.Number {
		return nil, &DecodeError{Field: "latency_ms", Reason: "expected number"}
	}
	scores, err := decodeScores(root.Get("scores"), "scores")
	if err != nil {
		return nil, err
	}

	return &Result{
		Label:     label,
		Model:     model,
		LatencyMS: latency.Float(),
		Scores:    scores,
	}, nil
}

func decodeBatch(body []byte) (*BatchResponse, error) {
	root, err := parseObject(body)
	if err != nil {
		return nil, err
	}

	model, err := stringField(root, "model")
	if err != nil {
		return nil, err
	}
	results := root.Get("results")
	if !results.IsArray() {
		return nil, &DecodeError{Field: "results", Reason: "expected array"}
	}

	out := &BatchResponse{Model: model, Results: []BatchResultItem{}}
	for i, item := range results.Array() {
		field := "results." + strconv.Itoa(i)
		if !item.IsObject() {
			return nil, &DecodeError{Field: field, Reason: "expected object"}
		}
		id := item.Get("id")
		if id.Type != gjson.String && id.Type != gjson.Number {
			return nil, &DecodeError{Field: field + ".id", Reason: "expected string"}
		}
		label, err := labelField(item, "label")
		if err != nil {
			return nil, prefixed(err, field)
		}
		scores, err := decodeScores(item.Get("scores"), field+".scores")
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, BatchResultItem{
			ID:     id.String(),
			Label:  label,
			Scores: scores,
		})
	}
	return out, nil
}

// decodeScores requires exactly one score per known label, each in [0,1].
func decodeScores(r gjson.Result, field string) (Scores, error) {
	if !r.IsArray() {
		return nil, &DecodeError{Field: field, Reason: "expected array"}
	}

	seen := make(map[Label]bool, len(Labels))
	var scores Scores
	for i, el := range r.Array() {
		elField := field + "." + strconv.Itoa(i)
		if !el.IsObject() {
			return nil, &DecodeError{Field: elField, Reason: "expected object"}
		}
		label, err := labelField(el, "label")
		if err != nil {
			return nil, prefixed(err, elField)
		}
		if seen[label] {
			return nil, &DecodeError{Field: elField + ".label", Reason: fmt.Sprintf("duplicate label %s", label)}
		}
		seen[label] = true

		v := el.Get("score")
		if v.Type != gjson.Number {
			return nil, &DecodeError{Field: elField + ".score", Reason: "expected number"}
		}
		if v.Float() < 0 || v.Float() > 1 {
			return nil, &DecodeError{Field: elField + ".score", Reason: fmt.Sprintf("%v out of range [0,1]", v.Float())}
		}
		scores = append(scores, Score{Label: label, Score: v.Float()})
	}

	for _, l := range Labels {
		if !seen[l] {
			return nil, &DecodeError{Field: field, Reason: fmt.Sprintf("missing score for %s", l)}
		}
	}
	return scores, nil
}

func parseObject(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &DecodeError{Reason: "invalid JSON"}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, &DecodeError{Reason: "expected JSON object"}
	}
	return root, nil
}

func stringField(obj gjson.Result, name string) (string, error) {
	v := obj.Get(name)
	if v.Type != gjson.String {
		return "", &DecodeError{Field: name, Reason: "expected string"}
	}
	return v.Str, nil
}

func labelField(obj gjson.Result, name string) (Label, error) {
	s, err := stringField(obj, name)
	if err != nil {
		return "", err
	}
	l, err := ParseLabel(s)
	if err != nil {
		return "", &DecodeError{Field: name, Reason: err.Error()}
	}
	return l, nil
}

func prefixed(err error, prefix string) error {
	if de, ok := err.(*DecodeError); ok {
		return &DecodeError{Field: prefix + "." + de.Field, Reason: de.Reason}
	}
	return err
}
