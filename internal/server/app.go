// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/bookkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/bookkeeper/internal/server/notify"
	"github.com/dmitrijs2005/bookkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
)

const dbInitTimeout = 30 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// Storage is an initialised backend: repositories, a transactor over them
// and, for PostgreSQL, the pool to close on shutdown.
type Storage struct {
	Repos repomanager.RepositoryManager
	Tx    dbx.Transactor
	DB    *sql.DB
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// OpenStorage connects to the configured backend and applies migrations.
// The DSN "memory" selects the in-process store.
func OpenStorage(ctx context.Context, dsn string) (*Storage, error) {
	if dsn == config.MemoryDSN {
		return &Storage{Repos: repomanager.NewMemoryRepositoryManager(), Tx: dbx.NoTx{}}, nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbInitTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	return &Storage{Repos: rm, Tx: dbx.NewSQLTransactor(db), DB: db}, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	st, err := OpenStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if st.DB == nil {
		logger.Warn(ctx, "using in-memory storage, data is lost on exit")
	}

	hasher := passwords.NewHasher(c.BcryptCost)
	store := credentials.NewStore(st.Repos, st.Tx, hasher)

	codec := auth.NewCodec(auth.Config{
		AccessSecret:  []byte(c.AccessTokenSecret),
		RefreshSecret: []byte(c.RefreshTokenSecret),
		ActionSecret:  []byte(c.EffectiveActionSecret()),
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
		ActionTTL:     c.ActionTokenValidityDuration,
	})

	var notifier notify.Notifier
	if c.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.MailFrom)
	} else {
		logger.Warn(ctx, "SMTP host is not set, emails are written to the log")
		notifier = notify.NewLogNotifier(logger)
	}
	templates := notify.NewTemplates(c.PublicBaseURL, shortDuration(c.ActionTokenValidityDuration))

	ss := services.NewSessionService(store, codec, logger)
	as := services.NewAccountService(store, codec, notifier, templates, logger)
	cs := services.NewCompanyService(st.Repos.Companies(st.Tx.Conn()), logger)

	srv := httpapi.NewServer(httpapi.Options{
		Address:       c.HTTPAddr,
		SecureCookies: c.SecureCookies,
		Development:   c.IsDevelopment(),
	}, logger, ss, as, cs)

	return &App{config: c, logger: logger, db: st.DB, server: srv}, nil
}

// shortDuration formats d without trailing zero units: 1h, 30m, 1h30m.
func shortDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Env)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
