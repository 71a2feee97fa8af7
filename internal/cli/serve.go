package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/rolodex/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, err := a.duration(cfgKeyHTTPTimeout)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.v.GetString(cfgKeyHTTPAddress)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Detach()

			h, err := httpapi.NewHandler(a.log, s, timeout)
			if err != nil {
				return sysError(err)
			}
			server := &http.Server{
				Addr:              addr,
				ReadHeaderTimeout: timeout,
				Handler:           h,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := runServer(ctx, a.log, server); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "address", "", "listen address (default from config http.address)")
	return cmd
}

// runServer serves until ctx is done or the listener fails, then shuts
// the server down gracefully.
func runServer(ctx context.Context, log *slog.Logger, server *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("rolodex http server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
