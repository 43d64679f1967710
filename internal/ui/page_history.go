package ui

import (
	"fmt"
	"net/url"
	"time"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"logsearch/internal/domain"
)

func historyPage(entries []domain.HistoryEntry, total int64, nextPageToken, loadError string) Node {
	if loadError != "" {
		return appPage("History", "history", errorCard(loadError))
	}
	if len(entries) == 0 {
		return appPage("History", "history",
			P(Class("muted"), Text("No searches recorded yet.")))
	}

	rows := make([]Node, 0, len(entries))
	for _, e := range entries {
		status := Td(Class("status-ok"), Text(e.Status))
		if e.Status == "error" {
			status = Td(Class("status-error"), Title(e.ErrorMsg), Text(e.Status))
		}
		rows = append(rows, Tr(
			Td(Text(e.CreatedAt.UTC().Format(time.RFC3339))),
			Td(Text(e.Stream)),
			Td(Class("sql-cell"), Text(e.SQL)),
			Td(Text(fmt.Sprintf("%d", e.Hits))),
			Td(Text(fmt.Sprintf("%d ms", e.DurationMS))),
			status,
		))
	}

	body := []Node{
		P(Class("muted"), Text(fmt.Sprintf("%d recorded search(es)", total))),
		Div(
			Class("card table-wrap"),
			Table(
				THead(Tr(
					Th(Text("When")), Th(Text("Stream")), Th(Text("SQL")),
					Th(Text("Hits")), Th(Text("Duration")), Th(Text("Status")),
				)),
				TBody(Group(rows)),
			),
		),
	}
	if nextPageToken != "" {
		body = append(body, A(
			Href("/history?page_token="+url.QueryEscape(nextPageToken)),
			Class("nav-link"),
			Text("Older entries"),
		))
	}

	return appPage("History", "history", body...)
}
