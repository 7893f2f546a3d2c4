package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/buildinfo"
	"github.com/cleared-dev/folio/internal/news"
	"github.com/cleared-dev/folio/internal/server"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}

			srv := server.New(server.Config{
				Addr:      a.cfg.Server.Addr,
				Log:       a.log,
				Portfolio: a.portfolio,
				News:      news.NewGoogleNews(a.cfg.News),
				Keywords:  a.cfg.News.Keywords,
				Currency:  a.cfg.Portfolio.Currency,
				Budget:    a.cfg.Budget(),
				Version:   buildinfo.Version,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from folio.yaml)")

	return cmd
}
