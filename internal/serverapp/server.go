// Package serverapp wires the sync backend: auth endpoints, the
// collection sync endpoint, health probes, and the middleware chain.
package serverapp

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fribble186/todos/internal/auth"
	"github.com/fribble186/todos/internal/config"
	"github.com/fribble186/todos/internal/httpmw"
	"github.com/fribble186/todos/internal/todo"
)

type Options struct {
	Config *config.Config
	Logger zerolog.Logger
	// Mailer overrides code delivery; nil logs codes.
	Mailer auth.Mailer
}

// App owns the wired handler and the resources behind it.
type App struct {
	Handler http.Handler

	db *sql.DB
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	dataDir := cfg.Server.DataDir
	if strings.TrimSpace(dataDir) == "" {
		dataDir = "data"
	}

	mux := http.NewServeMux()

	authRepo, err := auth.NewFileRepo(filepath.Join(dataDir, "auth"))
	if err != nil {
		return nil, err
	}
	authService := auth.NewService(authRepo, opts.Logger, auth.ServiceOptions{
		CodeTTL:        cfg.Auth.CodeTTL(),
		ResendCooldown: cfg.Auth.ResendCooldown(),
		MaxAttempts:    cfg.Auth.MaxAttempts,
		Mailer:         opts.Mailer,
	})
	authHandler := auth.NewHandler(authService, opts.Logger)
	mux.HandleFunc("/api/verify/sendVerify", authHandler.SendVerify)
	mux.HandleFunc("/api/user/login", authHandler.Login)

	db, err := todo.OpenDB(filepath.Join(dataDir, cfg.Server.DBFile))
	if err != nil {
		return nil, err
	}
	todoStore := todo.NewStore(db)
	todoHandler := todo.NewHandler(todoStore, opts.Logger)
	mux.HandleFunc("/api/todo/sync", todoHandler.Sync)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "todos",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := db.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "collection storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "todos",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	handler := httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	)

	return &App{Handler: handler, db: db}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
