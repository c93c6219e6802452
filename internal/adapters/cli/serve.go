package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetops/dt-ingest/internal/clock"
	"github.com/fleetops/dt-ingest/internal/httpapi"
	"github.com/fleetops/dt-ingest/internal/scheduler"
)

// NewServeCommand creates the long-running daemon command: the scheduler and
// the HTTP read API run together until a termination signal arrives,
// grounded on the teacher's DaemonServer.Start() signal-handling/graceful-
// shutdown shape (internal/adapters/grpc/daemon_server.go).
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduler and the HTTP read API",
		Long: `serve runs two things together until interrupted:
  - the scheduler, firing the orchestrator at the two configured daily
    trigger times
  - the HTTP read API, serving persisted KPI data to dashboards

Example:
  dtctl serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			triggers := scheduler.DefaultTriggers(a.cfg.Scheduler.Shift1TriggerAt, a.cfg.Scheduler.Shift2TriggerAt)
			s := scheduler.New(triggers, a.orchestratorRunFunc(), clock.New(), a.logger)
			go s.Start(ctx)

			server := &httpapi.Server{
				Objects:      a.geofence,
				ShiftRecords: httpapi.ShiftRecordRepoAdapter{Repo: a.shiftRecords},
				Requests:     a.requests,
				Run:          a.orchestratorRunFunc(),
				Logger:       a.logger,
			}
			httpServer := &http.Server{
				Addr:    a.cfg.Scheduler.HTTPServerAddr,
				Handler: server.NewRouter(),
			}

			errChan := make(chan error, 1)
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- fmt.Errorf("http server error: %w", err)
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			a.logger.Printf("serving on %s", a.cfg.Scheduler.HTTPServerAddr)

			select {
			case err := <-errChan:
				return err
			case <-sigChan:
				a.logger.Printf("shutdown signal received")
			}

			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Scheduler.ShutdownTimeout)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http server shutdown: %w", err)
			}

			a.logger.Printf("shutdown complete")
			return nil
		},
	}

	return cmd
}
