package ui

import (
	"fmt"
	"net/http"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
}

var navItems = []navItem{
	{Label: "Search", Href: "/", Key: "search"},
	{Label: "History", Href: "/history", Key: "history"},
}

func appPage(title, active string, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "nav-link"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(Href(item.Href), Class(className), Text(item.Label)))
	}

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | Log Search")),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
			Script(
				Type("module"),
				Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
			),
		),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(Class("brand"), Strong(Text("Log Search"))),
					Nav(Group(nav)),
				),
				Section(
					Class("app-content"),
					H1(Text(title)),
					Group(body),
				),
			),
		),
	)
}

func renderHTML(w http.ResponseWriter, status int, node Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

// containsExpr builds the datastar show-expression for the quick filter.
func containsExpr(haystack string) string {
	return fmt.Sprintf("$q === '' || %s.toLowerCase().includes($q.toLowerCase())", strconv.Quote(haystack))
}

func errorCard(msg string) Node {
	return Div(
		Class("card error"),
		H2(Text("Search Error")),
		Pre(Text(msg)),
	)
}
