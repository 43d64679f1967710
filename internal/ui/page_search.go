package ui

import (
	"encoding/json"
	"fmt"

	data "maragu.dev/gomponents-datastar"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"logsearch/internal/domain"
)

type searchState struct {
	Stream  string
	Query   string
	SQLMode bool
	Period  string
}

func searchPage(state searchState, result *domain.QueryResult, buckets []domain.HistogramBucket, spec domain.HistogramSpec, runError string) Node {
	body := []Node{searchForm(state)}

	switch {
	case runError != "":
		body = append(body, errorCard(runError))
	case result == nil:
		body = append(body, P(Class("muted"), Text("Pick a stream and run a search to see results.")))
	default:
		if len(buckets) > 0 {
			body = append(body, histogramCard(buckets, spec))
		}
		body = append(body, resultsCard(result))
	}

	return appPage("Search", "search", body...)
}

func searchForm(state searchState) Node {
	options := make([]Node, 0, len(periods))
	for _, p := range periods {
		opt := []Node{Value(p.Value), Text(p.Label)}
		if p.Value == state.Period {
			opt = append(opt, Selected())
		}
		options = append(options, Option(opt...))
	}

	sqlMode := []Node{Type("checkbox"), Name("sql_mode")}
	if state.SQLMode {
		sqlMode = append(sqlMode, Checked())
	}

	return Div(
		Class("card"),
		Form(
			Method("get"),
			Action("/"),
			Label(Text("Stream")),
			Input(Type("text"), Name("stream"), Value(state.Stream), Placeholder("e.g. default")),
			Label(Text("Query")),
			Input(Type("text"), Name("query"), Value(state.Query), Placeholder("level=error or full SQL in SQL mode")),
			Label(Class("inline"), Input(sqlMode...), Text(" SQL mode")),
			Label(Text("Time range")),
			Select(Name("period"), Group(options)),
			Div(Class("button-row"), Button(Type("submit"), Text("Search"))),
		),
	)
}

func histogramCard(buckets []domain.HistogramBucket, spec domain.HistogramSpec) Node {
	rows := make([]Node, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, Tr(
			Td(Text(b.Key)),
			Td(Text(fmt.Sprintf("%d", b.Count))),
		))
	}

	return Div(
		Class("card table-wrap"),
		H2(Text("Histogram")),
		P(Class("muted"), Text(fmt.Sprintf("Bucket interval: %s", spec.Interval))),
		Table(
			THead(Tr(Th(Text("Bucket")), Th(Text("Count")))),
			TBody(Group(rows)),
		),
	)
}

func resultsCard(result *domain.QueryResult) Node {
	headerCols := make([]Node, 0, len(result.Columns))
	for _, col := range result.Columns {
		headerCols = append(headerCols, Th(Text(col)))
	}

	rows := make([]Node, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var rec map[string]interface{}
		if err := json.Unmarshal(hit, &rec); err != nil {
			continue
		}
		cells := make([]Node, 0, len(result.Columns))
		filterText := ""
		for _, col := range result.Columns {
			val := cellString(rec[col])
			filterText += val + " "
			cells = append(cells, Td(Text(val)))
		}
		rows = append(rows, Tr(data.Show(containsExpr(filterText)), Group(cells)))
	}

	meta := fmt.Sprintf("%d hit(s) of %d total, scanned %d bytes in %d ms",
		len(result.Hits), result.Total, result.ScanSize, result.Took)

	return Div(
		data.Signals(map[string]any{"q": ""}),
		Div(
			Class("card"),
			Label(Text("Quick filter")),
			Input(Type("text"), data.Bind("q"), Placeholder("Filter visible rows")),
		),
		Div(
			Class("card table-wrap"),
			H2(Text("Results")),
			P(Class("muted"), Text(meta)),
			Table(
				THead(Tr(Group(headerCols))),
				TBody(Group(rows)),
			),
		),
	)
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
