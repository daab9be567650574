package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/espalier/internal/adapters/http"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/session"
)

// ServeOptions configures the 'serve' command.
type ServeOptions struct {
	RunOptions
	Port string
}

// Serve starts the HTTP server and blocks until a signal or a listener
// error stops it. Sessions persist to local files unless a Redis address
// points the store at a shared backend.
func Serve(opts ServeOptions) error {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	store, closeStore := OpenStore(opts.RedisURL)
	defer closeStore()

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if rs, ok := store.(*redis.Store); ok {
		// Replicas sharing the store coordinate appends through Redis locks.
		locker := redis.NewLocker(rs.Client(), "espalier:")
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}
	sessions := session.NewManager(store, sessionOpts...)

	engine, err := createEngine(opts.RunOptions, store, logger)
	if err != nil {
		return err
	}

	handler := httpAdapter.NewHandler(engine,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithSessions(sessions),
	)

	srv := &http.Server{
		Addr:    ":" + opts.Port,
		Handler: handler,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Printf("Starting Espalier Server on %s\n", srv.Addr)
		if opts.PackPath != "" {
			fmt.Printf("Serving pack from: %s\n", opts.PackPath)
		}
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Println("Espalier Server stopped gracefully")
	}

	return nil
}
