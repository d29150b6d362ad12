package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sentiview/sentiview/pkg/runtimeconfig"
	"github.com/sentiview/sentiview/pkg/sentiment"
	"github.com/sentiview/sentiview/pkg/session"
	"github.com/sentiview/sentiview/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	result  *sentiment.Result
	batch   *sentiment.BatchResponse
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string) (*sentiment.Result, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubAnalyzer) AnalyzeBatch(ctx context.Context, items []sentiment.BatchItem) (*sentiment.BatchResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func scores(pos, neu, neg float64) sentiment.Scores {
	return sentiment.Scores{
		{Label: sentiment.Positive, Score: pos},
		{Label: sentiment.Neutral, Score: neu},
		{Label: sentiment.Negative, Score: neg},
	}
}

func newTestServer(t *testing.T, a *stubAnalyzer) *Server {
	t.Helper()
	sess, err := session.New(context.Background(), session.Config{
		Runtime:   runtimeconfig.New("http://api.test"),
		NewClient: func(string) session.Analyzer { return a },
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return New(sess, t.TempDir())
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func page(t *testing.T, h http.Handler) *goquery.Document {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/ui/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestEmptyPage(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})
	doc := page(t, srv.Handler())

	assert.Equal(t, "http://api.test", doc.Find("#api-base").Text())
	assert.Equal(t, 0, doc.Find("#error-panel").Length())
	assert.Equal(t, 0, doc.Find("#result-panel").Length())
	assert.Equal(t, 0, doc.Find("#batch-panel").Length())
	assert.Equal(t, 0, doc.Find(".history-entry").Length())
	_, disabled := doc.Find("#history-clear").Attr("disabled")
	assert.True(t, disabled)
	src, _ := doc.Find("head script").First().Attr("src")
	assert.Equal(t, "/config.js", src)
}

func TestAnalyzeRendersResult(t *testing.T) {
	a := &stubAnalyzer{result: &sentiment.Result{
		Label:     sentiment.Negative,
		Model:     "m1",
		LatencyMS: 12,
		Scores:    scores(0.104, 0.2, 0.696),
	}}
	srv := newTestServer(t, a)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/ui/analyze", url.Values{"text": {"terrible"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/ui/", rec.Header().Get("Location"))

	doc := page(t, h)
	badge := doc.Find("#result-panel .badge")
	require.Equal(t, 1, badge.Length())
	label, _ := badge.Attr("data-label")
	assert.Equal(t, "Negative", label)
	assert.True(t, badge.HasClass("bg-rose-900/50"))

	widths := map[string]string{}
	doc.Find("#result-panel .score-row").Each(func(_ int, row *goquery.Selection) {
		l, _ := row.Attr("data-label")
		style, _ := row.Find(".bar").Attr("style")
		widths[l] = style
	})
	assert.Equal(t, map[string]string{
		"Positive": "width: 10%",
		"Neutral":  "width: 20%",
		"Negative": "width: 70%",
	}, widths)

	assert.Equal(t, 0, doc.Find("#error-panel").Length())
	assert.Equal(t, 1, doc.Find(".history-entry").Length())
	assert.Contains(t, doc.Find(".history-entry").Text(), "terrible")
}

func TestAnalyzeFailureShowsErrorPanel(t *testing.T) {
	a := &stubAnalyzer{err: &sentiment.HTTPError{Status: 503, StatusText: "Service Unavailable"}}
	srv := newTestServer(t, a)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/ui/analyze", url.Values{"text": {"hello"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	doc := page(t, h)
	assert.Equal(t, "HTTP 503 Service Unavailable", strings.TrimSpace(doc.Find("#error-panel").Text()))
	assert.Equal(t, 0, doc.Find("#result-panel").Length())
	assert.Equal(t, 0, doc.Find(".history-entry").Length())

	// The next success hides the panel again.
	a.err = nil
	a.result = &sentiment.Result{Label: sentiment.Positive, Model: "m", Scores: scores(1, 0, 0)}
	do(t, h, http.MethodPost, "/ui/analyze", url.Values{"text": {"hello"}})
	doc = page(t, h)
	assert.Equal(t, 0, doc.Find("#error-panel").Length())
	label, _ := doc.Find("#result-panel .badge").Attr("data-label")
	assert.Equal(t, "Positive", label)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})
	rec := do(t, srv.Handler(), http.MethodPost, "/ui/analyze", url.Values{"text": {"   "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeWhileBusy(t *testing.T) {
	a := &stubAnalyzer{
		result:  &sentiment.Result{Label: sentiment.Neutral, Model: "m", Scores: scores(0.2, 0.6, 0.2)},
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	srv := newTestServer(t, a)
	h := srv.Handler()

	done := make(chan int)
	go func() {
		done <- do(t, h, http.MethodPost, "/ui/analyze", url.Values{"text": {"first"}}).Code
	}()
	<-a.started

	doc := page(t, h)
	_, disabled := doc.Find("#analyze-button").Attr("disabled")
	assert.True(t, disabled)

	rec := do(t, h, http.MethodPost, "/ui/analyze", url.Values{"text": {"second"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(a.gate)
	assert.Equal(t, http.StatusSeeOther, <-done)
}

func TestBatchFlowAndCSV(t *testing.T) {
	a := &stubAnalyzer{batch: &sentiment.BatchResponse{
		Model: "bm",
		Results: []sentiment.BatchResultItem{
			{ID: "1", Label: sentiment.Positive, Scores: scores(0.9, 0.05, 0.05)},
			{ID: "2", Label: sentiment.Negative, Scores: scores(0.1, 0.1, 0.8)},
		},
	}}
	srv := newTestServer(t, a)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/ui/batch.csv", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(t, h, http.MethodPost, "/ui/batch/toggle", url.Values{})
	doc := page(t, h)
	assert.Equal(t, 1, doc.Find("#batch-panel").Length())
	assert.Equal(t, 0, doc.Find("#batch-results").Length())

	rec = do(t, h, http.MethodPost, "/ui/batch", url.Values{"items": {"good, very\n\nbad\n"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	doc = page(t, h)
	rows := doc.Find("#batch-results .batch-row")
	require.Equal(t, 2, rows.Length())
	assert.Contains(t, rows.Eq(0).Text(), "good, very")
	assert.Contains(t, rows.Eq(1).Text(), "bad")
	label, _ := rows.Eq(1).Find(".badge").Attr("data-label")
	assert.Equal(t, "Negative", label)
	href, _ := doc.Find("#batch-download").Attr("href")
	assert.Equal(t, "/ui/batch.csv", href)
	assert.Equal(t, 2, doc.Find(".history-entry").Length())

	rec = do(t, h, http.MethodGet, "/ui/batch.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "id,text,label,neg,neu,pos\n"+
		"1,\"good, very\",Positive,0.05,0.05,0.9\n"+
		"2,bad,Negative,0.8,0.1,0.1\n", rec.Body.String())
}

func TestBatchFailureShowsBatchError(t *testing.T) {
	a := &stubAnalyzer{err: errors.New("connection refused")}
	srv := newTestServer(t, a)
	h := srv.Handler()

	do(t, h, http.MethodPost, "/ui/batch/toggle", url.Values{})
	do(t, h, http.MethodPost, "/ui/batch", url.Values{"items": {"x"}})

	doc := page(t, h)
	assert.Equal(t, "connection refused", strings.TrimSpace(doc.Find("#batch-error-panel").Text()))
	assert.Equal(t, 0, doc.Find("#error-panel").Length())
	assert.Equal(t, 0, doc.Find("#batch-results").Length())
}

func TestClearHistoryAndJSON(t *testing.T) {
	a := &stubAnalyzer{result: &sentiment.Result{Label: sentiment.Positive, Model: "m", Scores: scores(0.8, 0.1, 0.1)}}
	srv := newTestServer(t, a)
	h := srv.Handler()

	do(t, h, http.MethodPost, "/ui/analyze", url.Values{"text": {"one"}})
	do(t, h, http.MethodPost, "/ui/analyze", url.Values{"text": {"two"}})

	rec := do(t, h, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []storage.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Text)

	rec = do(t, h, http.MethodPost, "/ui/history/clear", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/state", nil)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, []interface{}{}, st["history"])
	assert.Equal(t, "http://api.test", st["api_base"])
}

func TestSettings(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/ui/settings", url.Values{"api_base": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/ui/settings", url.Values{"api_base": {"https://sentiment.example"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://sentiment.example", page(t, h).Find("#api-base").Text())
}

func TestStaticRootServesInjectedConfig(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})
	seeded, err := SeedSite(srv.Root)
	require.NoError(t, err)
	assert.True(t, seeded)

	_, err = runtimeconfig.Inject(runtimeconfig.InjectOptions{
		Root:   srv.Root,
		Config: runtimeconfig.New("https://sentiment.example"),
	})
	require.NoError(t, err)

	h := srv.Handler()
	rec := do(t, h, http.MethodGet, "/config.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `API_BASE: "https://sentiment.example"`)

	rec = do(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(`head script[src="/config.js"]`).Length())

	// A second seed leaves the patched index alone.
	seeded, err = SeedSite(srv.Root)
	require.NoError(t, err)
	assert.False(t, seeded)
	b, err := os.ReadFile(filepath.Join(srv.Root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b), `src="/config.js"`))
}
