package server

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/sentiment"
	"github.com/sentiview/sentiview/pkg/state"
	"github.com/sentiview/sentiview/pkg/storage"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html" // Using . import for convenience with html tags
)

const (
	panelClass  = "bg-slate-900/40 border border-slate-800/60 rounded-2xl p-6 mb-6"
	buttonClass = "px-4 py-2 rounded-lg bg-cyan-600 hover:bg-cyan-500 text-white font-medium disabled:opacity-50 disabled:cursor-not-allowed"
	ghostButton = "px-3 py-2 rounded-lg border border-slate-700 hover:border-slate-500 text-slate-300 text-sm"
	inputClass  = "w-full rounded-lg bg-slate-950 border border-slate-700 p-3 text-slate-200 focus:border-cyan-500"
)

// PageLayout wraps content in the shared document shell.
func PageLayout(title string, content g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				Script(Src("/config.js")),
				Script(Src("https://cdn.tailwindcss.com")),
			),
			Body(Class("bg-slate-950 font-sans antialiased text-slate-300 min-h-screen"),
				content,
			),
		),
	})
}

// AppPage renders the whole demo UI for st.
func AppPage(st state.ClientState) g.Node {
	return PageLayout("sentiview",
		Main(Class("container mx-auto max-w-3xl px-4 py-10"),
			Header(Class("mb-8"),
				H1(Class("text-3xl font-bold text-white"), g.Text("Sentiment analysis")),
				P(Class("text-sm text-slate-500 mt-1"),
					g.Text("API: "), Code(ID("api-base"), g.Text(st.APIBase)),
				),
			),
			analyzePanel(st),
			g.If(st.Err != "", errorPanel("error-panel", st.Err)),
			g.Iff(st.Result != nil, func() g.Node { return resultPanel(st.Result) }),
			g.If(st.BatchOpen, batchPanel(st)),
			historyPanel(st.History),
			settingsPanel(st.APIBase),
		),
	)
}

func analyzePanel(st state.ClientState) g.Node {
	label := "Analyze"
	if st.Busy {
		label = "Analyzing…"
	}
	batchLabel := "Batch mode"
	if st.BatchOpen {
		batchLabel = "Close batch"
	}

	return Section(Class(panelClass),
		Form(ID("analyze-form"), Method("post"), Action("/ui/analyze"),
			Textarea(Name("text"), Rows("4"), Class(inputClass), Placeholder("Type something to analyze…"), Required(),
				g.Text(st.Input),
			),
			Div(Class("flex gap-3 mt-3"),
				Button(ID("analyze-button"), Type("submit"), Class(buttonClass), g.If(st.Busy, Disabled()), g.Text(label)),
				Button(ID("batch-toggle"), Type("submit"), Class(ghostButton), g.Attr("formaction", "/ui/batch/toggle"), g.Attr("formnovalidate"), g.Text(batchLabel)),
			),
		),
	)
}

func errorPanel(id, msg string) g.Node {
	return Div(ID(id), Class("rounded-xl border border-rose-800/60 bg-rose-950/40 text-rose-300 px-4 py-3 mb-6"),
		g.Text(msg),
	)
}

func resultPanel(res *sentiment.Result) g.Node {
	return Section(ID("result-panel"), Class(panelClass),
		Div(Class("flex items-center justify-between mb-4"),
			labelBadge(res.Label),
			Span(Class("text-xs text-slate-500"),
				g.Textf("%s · %s ms", res.Model, strconv.FormatFloat(res.LatencyMS, 'f', -1, 64)),
			),
		),
		scoreBars(res.Scores),
	)
}

func batchPanel(st state.ClientState) g.Node {
	label := "Analyze batch"
	if st.BatchBusy {
		label = "Analyzing…"
	}

	return Section(ID("batch-panel"), Class(panelClass),
		H2(Class("text-lg font-semibold text-white mb-3"), g.Text("Batch")),
		Form(Method("post"), Action("/ui/batch"),
			Textarea(Name("items"), Rows("6"), Class(inputClass), Placeholder("One text per line"), Required(),
				g.Text(st.BatchInput),
			),
			Button(ID("batch-button"), Type("submit"), Class(buttonClass+" mt-3"), g.If(st.BatchBusy, Disabled()), g.Text(label)),
		),
		g.If(st.BatchErr != "", Div(Class("mt-4"), errorPanel("batch-error-panel", st.BatchErr))),
		g.Iff(st.Batch != nil, func() g.Node { return batchResults(st.Batch) }),
	)
}

func batchResults(view *state.BatchView) g.Node {
	return Div(ID("batch-results"), Class("mt-6"),
		Div(Class("flex items-center justify-between mb-3"),
			Span(Class("text-xs text-slate-500"), g.Textf("%d results · %s", len(view.Rows), view.Model)),
			A(ID("batch-download"), Href("/ui/batch.csv"), Class(ghostButton), g.Text("Download CSV")),
		),
		Table(Class("w-full text-sm"),
			THead(
				Tr(Class("text-left text-xs uppercase text-slate-500"),
					Th(Class("py-2 pr-3"), g.Text("#")),
					Th(Class("py-2 pr-3"), g.Text("Text")),
					Th(Class("py-2 pr-3"), g.Text("Label")),
					Th(Class("py-2"), g.Text("Scores")),
				),
			),
			TBody(
				g.Map(view.Rows, func(r state.BatchRow) g.Node {
					return Tr(Class("batch-row border-t border-slate-800/60 align-top"),
						Td(Class("py-2 pr-3 text-slate-500"), g.Text(r.ID)),
						Td(Class("py-2 pr-3 text-slate-200"), g.Text(r.Text)),
						Td(Class("py-2 pr-3"), labelBadge(r.Label)),
						Td(Class("py-2 w-48"), scoreBars(r.Scores)),
					)
				}),
			),
		),
	)
}

func historyPanel(history []storage.HistoryEntry) g.Node {
	return Section(ID("history-panel"), Class(panelClass),
		Div(Class("flex items-center justify-between mb-3"),
			H2(Class("text-lg font-semibold text-white"), g.Textf("History (%d)", len(history))),
			Form(Method("post"), Action("/ui/history/clear"),
				Button(ID("history-clear"), Type("submit"), Class(ghostButton), g.If(len(history) == 0, Disabled()), g.Text("Clear all")),
			),
		),
		g.If(len(history) == 0, P(Class("text-sm text-slate-500"), g.Text("Nothing analyzed yet."))),
		Ul(Class("divide-y divide-slate-800/60"),
			g.Map(history, func(e storage.HistoryEntry) g.Node {
				return Li(Class("history-entry py-3 flex items-start gap-3"),
					labelBadge(e.Result.Label),
					Div(Class("flex-1 min-w-0"),
						P(Class("text-slate-200 break-words"), g.Text(utils.Truncate(e.Text, 140))),
						P(Class("text-xs text-slate-500"), g.Text(humanize.Time(e.Time()))),
					),
				)
			}),
		),
	)
}

func settingsPanel(apiBase string) g.Node {
	return Section(ID("settings-panel"), Class(panelClass),
		Form(Method("post"), Action("/ui/settings"), Class("flex gap-3 items-center"),
			Input(Type("url"), Name("api_base"), Value(apiBase), Class(inputClass), Placeholder("API base URL")),
			Button(Type("submit"), Class(ghostButton), g.Text("Save")),
		),
	)
}

// labelBadge renders a colored badge for a sentiment label.
func labelBadge(l sentiment.Label) g.Node {
	var color string
	switch l {
	case sentiment.Positive:
		color = "bg-emerald-900/50 text-emerald-300 border-emerald-700/50"
	case sentiment.Negative:
		color = "bg-rose-900/50 text-rose-300 border-rose-700/50"
	default:
		color = "bg-slate-800 text-slate-300 border-slate-600/50"
	}
	return Span(Class("badge inline-flex items-center px-2.5 py-0.5 rounded-full text-xs font-semibold border "+color),
		g.Attr("data-label", string(l)),
		g.Text(string(l)),
	)
}

func scoreBars(scores sentiment.Scores) g.Node {
	return Div(Class("space-y-2"),
		g.Map(scores, func(s sentiment.Score) g.Node {
			pct := barWidth(s.Score)
			return Div(Class("score-row"), g.Attr("data-label", string(s.Label)),
				Div(Class("flex justify-between text-xs text-slate-400 mb-1"),
					Span(g.Text(string(s.Label))),
					Span(g.Textf("%d%%", pct)),
				),
				Div(Class("h-2 rounded-full bg-slate-800 overflow-hidden"),
					Div(Class("bar h-2 rounded-full "+barColor(s.Label)), Style(fmt.Sprintf("width: %d%%", pct))),
				),
			)
		}),
	)
}

// barWidth is round(score×100).
func barWidth(score float64) int {
	return int(math.Round(score * 100))
}

func barColor(l sentiment.Label) string {
	switch l {
	case sentiment.Positive:
		return "bg-emerald-500"
	case sentiment.Negative:
		return "bg-rose-500"
	default:
		return "bg-slate-400"
	}
}
