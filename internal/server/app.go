// Package server initializes and runs the story API server: it opens the
// PostgreSQL database, applies migrations, wires the repositories and
// services into the HTTP handler, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/narratlas/narratlas/internal/logging"
	"github.com/narratlas/narratlas/internal/server/config"
	"github.com/narratlas/narratlas/internal/server/httpapi"
	"github.com/narratlas/narratlas/internal/server/migrations"
	"github.com/narratlas/narratlas/internal/server/repositories/stories"
	"github.com/narratlas/narratlas/internal/server/repositories/subscriptions"
	"github.com/narratlas/narratlas/internal/server/repositories/users"
	"github.com/narratlas/narratlas/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler *httpapi.Handler
}

func NewApp(c *config.Config) (*App, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	logger := logging.NewZapLogger(zl)

	db, err := initDatabase(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	userService := services.NewUserService(users.NewPostgresRepository(db), c)
	storyService := services.NewStoryService(stories.NewPostgresRepository(db), c)
	pushService := services.NewPushService(subscriptions.NewPostgresRepository(db))

	handler := httpapi.NewHandler(userService, storyService, pushService, []byte(c.SecretKey), logger)

	return &App{config: c, logger: logger, db: db, handler: handler}, nil
}

// initDatabase opens the database and applies the embedded migrations.
func initDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.Up(db, "."); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: app.handler.Router,
	}

	go func() {
		app.logger.Info(ctx, "starting HTTP server", "addr", app.config.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, "server error", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err)
	}
}
