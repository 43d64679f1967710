package ui

import "net/http"

const appCSS = `
:root {
	--bg: #f6f8fa;
	--fg: #1f2328;
	--muted: #656d76;
	--border: #d0d7de;
	--accent: #0969da;
	--error: #cf222e;
}
* { box-sizing: border-box; }
body { margin: 0; font: 14px/1.5 -apple-system, "Segoe UI", sans-serif; background: var(--bg); color: var(--fg); }
.app-shell { display: flex; min-height: 100vh; }
.app-sidebar { width: 200px; padding: 16px; border-right: 1px solid var(--border); background: #fff; }
.app-sidebar .brand { margin-bottom: 16px; }
.app-content { flex: 1; padding: 24px; max-width: 1200px; }
.nav-link { display: block; padding: 6px 8px; border-radius: 6px; color: var(--fg); text-decoration: none; }
.nav-link.active { background: var(--bg); color: var(--accent); font-weight: 600; }
.card { background: #fff; border: 1px solid var(--border); border-radius: 8px; padding: 16px; margin-bottom: 16px; }
.card.error { border-color: var(--error); }
.card.error pre { color: var(--error); white-space: pre-wrap; }
.muted { color: var(--muted); }
label { display: block; margin: 8px 0 4px; font-weight: 600; }
label.inline { display: inline-block; font-weight: 400; }
input[type=text], select { width: 100%; max-width: 480px; padding: 6px 8px; border: 1px solid var(--border); border-radius: 6px; }
.button-row { margin-top: 12px; }
button { padding: 6px 16px; border: 1px solid var(--accent); border-radius: 6px; background: var(--accent); color: #fff; cursor: pointer; }
.table-wrap { overflow-x: auto; }
table { border-collapse: collapse; width: 100%; }
th, td { padding: 6px 8px; border-bottom: 1px solid var(--border); text-align: left; vertical-align: top; }
th { color: var(--muted); font-weight: 600; }
.sql-cell { font-family: ui-monospace, monospace; font-size: 12px; max-width: 420px; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
.status-ok { color: #1a7f37; }
.status-error { color: var(--error); }
`

func serveStylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(appCSS))
}
