// Package cli implements the interactive Narratlas client: a REPL over the
// story services, with a connectivity watcher and a background worker running
// alongside.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/narratlas/narratlas/internal/bus"
	"github.com/narratlas/narratlas/internal/client/api"
	"github.com/narratlas/narratlas/internal/client/config"
	"github.com/narratlas/narratlas/internal/client/httpcache"
	"github.com/narratlas/narratlas/internal/client/service"
	"github.com/narratlas/narratlas/internal/client/session"
	"github.com/narratlas/narratlas/internal/client/store"
	"github.com/narratlas/narratlas/internal/client/syncer"
	"github.com/narratlas/narratlas/internal/client/watcher"
	"github.com/narratlas/narratlas/internal/client/worker"
	"github.com/narratlas/narratlas/internal/logging"
)

type App struct {
	config  *config.Config
	auth    *service.AuthService
	stories *service.StoryService
	engine  *syncer.Syncer
	watcher *watcher.Watcher
	worker  *worker.Worker
	bus     *bus.Bus
	session session.Provider
	log     logging.Logger
	reader  *bufio.Reader
	db      *sql.DB
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	sessionDir := c.SessionDir
	if sessionDir == "" {
		dir, err := session.DefaultDir()
		if err != nil {
			return nil, err
		}
		sessionDir = dir
	}
	sess, err := session.NewFSStore(sessionDir)
	if err != nil {
		return nil, err
	}

	db, repo, err := store.InitDatabase(ctx, c.DBPath, log)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiBase, err := url.Parse(c.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", c.ServerURL, err)
	}
	cache := httpcache.New(nil, httpcache.DefaultRules(apiBase))
	httpClient := &http.Client{Transport: cache, Timeout: 30 * time.Second}

	gateway := api.NewHTTPGateway(c.ServerURL, sess, httpClient, log)

	b := bus.New()
	engine := syncer.New(repo, gateway, sess, log)

	a := &App{
		config:  c,
		auth:    service.NewAuthService(gateway, sess, repo, log),
		stories: service.NewStoryService(repo, gateway, sess, log),
		engine:  engine,
		watcher: watcher.New(gateway, engine, b, log, c.OnlineCheckInterval),
		bus:     b,
		session: sess,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		db:      db,
	}
	a.worker = worker.New(b, gateway, worker.NotifierFunc(a.notify), cache, log, c.CacheSweepInterval)
	return a, nil
}

// notify renders a notification on the terminal.
func (a *App) notify(title, body string) {
	printlnFn(fmt.Sprintf("\n[%s] %s", title, body))
}

func (a *App) isLoggedIn() bool {
	return a.auth.LoggedIn()
}

func (a *App) getStatus() string {
	s := ""
	if name := a.session.UserName(); name != "" {
		s = name + " "
	}
	s = s + string(a.watcher.Mode())
	return fmt.Sprintf("(%s)", s)
}

// Run starts the watcher and the background worker, then hands the terminal
// to the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	go a.watcher.Run(ctx)
	go a.worker.Run(ctx)

	printlnFn("Welcome to Narratlas CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "error closing database", "error", err)
	}
}
