package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/coursekit/internal/progress"
)

func newServeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve catalog, validation and progress as read-only JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Fail fast on a bad backend, then let each request open its own store.
			store, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("closing progress store: %w", err)
			}

			srv := &http.Server{
				Addr:         net.JoinHostPort(app.cfg.Server.Host, strconv.Itoa(app.cfg.Server.Port)),
				Handler:      newMux(app),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown on SIGTERM/SIGINT.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("server starting", "addr", srv.Addr, "root", app.catalog.Root())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
				return err
			}
			return nil
		},
	}
}

// newMux creates the HTTP router with health checks and the read-only API.
func newMux(app *App) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", app.handleReadyz)
	mux.HandleFunc("GET /api/modules", app.handleModules)
	mux.HandleFunc("GET /api/modules/{id}", app.handleModule)
	mux.HandleFunc("GET /api/validation", app.handleValidation)
	mux.HandleFunc("GET /api/progress", app.handleProgress)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthChecker is implemented by backends that hold a network connection.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if info, err := os.Stat(a.catalog.Root()); err != nil || !info.IsDir() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "curriculum root not found",
		})
		return
	}
	if err := a.checkBackend(r.Context()); err != nil {
		slog.Warn("progress backend not ready", "backend", a.cfg.Progress.Backend, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "progress backend unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// checkBackend pings the cache or database backing progress. Local backends
// are not opened here, so a readiness check never takes their locks.
func (a *App) checkBackend(ctx context.Context) error {
	switch a.cfg.Progress.Backend {
	case progress.BackendRedis, progress.BackendPostgres:
	default:
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := progress.OpenPersister(ctx, a.cfg.Backend())
	if err != nil {
		return err
	}
	defer p.Close()
	if hc, ok := p.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (a *App) handleModules(w http.ResponseWriter, r *http.Request) {
	modules, err := a.catalog.Discover()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, modules)
}

func (a *App) handleModule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, ok := a.catalog.LoadModule(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("module %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) handleValidation(w http.ResponseWriter, r *http.Request) {
	all, err := a.validator.ValidateAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (a *App) handleProgress(w http.ResponseWriter, r *http.Request) {
	store, err := a.openStore(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer store.Close()
	modules, err := a.catalog.Discover()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, store.OverallProgress(modules))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
