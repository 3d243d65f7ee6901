package cmds

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/parley/pkg/server"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		log.Info().
			Strs("providers", rt.registry.IDs()).
			Str("default", rt.registry.DefaultID()).
			Str("store", rt.cfg.StorePath).
			Msg("configured")

		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = rt.cfg.Listen
		}

		srv := &http.Server{
			Addr:    listen,
			Handler: server.New(rt.store, rt.gateway).Handler(),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			log.Info().Str("listen", listen).Msg("starting server")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return eg.Wait()
	},
}

func init() {
	ServeCmd.Flags().String("listen", "", "Listen address (overrides config)")
}
