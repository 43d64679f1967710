// Package app provides application-level wiring for the log search server.
package app

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"logsearch/internal/api"
	"logsearch/internal/backend"
	"logsearch/internal/config"
	"logsearch/internal/history"
	"logsearch/internal/scheduler"
	"logsearch/internal/session"
	"logsearch/internal/ui"
)

// sessionTTL is how long an idle search session stays resident before the
// sweeper evicts it.
const sessionTTL = 30 * time.Minute

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Search    *session.Service
	Sessions  *session.Manager
	History   *history.Repo
	Scheduler *scheduler.Scheduler
	Router    http.Handler
}

// New wires the backend client, history store, search service, scheduler,
// and HTTP router from the provided deps. The scheduler is constructed but
// not started; main() starts it after loading the saved searches file.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg

	client := backend.New(cfg.Backend.URL, cfg.Backend.Org, cfg.Backend.Token)
	historyRepo := history.New(deps.WriteDB, deps.ReadDB)

	searchSvc := session.NewService(client, historyRepo, deps.Logger)
	sessions := session.NewManager(sessionTTL)

	sched := scheduler.New(searchSvc, historyRepo, cfg.HistoryRetention, deps.Logger)

	apiHandler := api.NewHandler(searchSvc, sessions, historyRepo, cfg.RowsPerPage, deps.Logger)
	uiHandler := ui.NewHandler(searchSvc, historyRepo, cfg.RowsPerPage, deps.Logger)

	router := api.NewRouter(apiHandler, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		UI:                 uiHandler.Routes(),
	})

	return &App{
		Search:    searchSvc,
		Sessions:  sessions,
		History:   historyRepo,
		Scheduler: sched,
		Router:    router,
	}, nil
}
