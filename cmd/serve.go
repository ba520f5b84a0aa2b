package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crimestat/internal/report"
	"github.com/sells-group/crimestat/internal/server"
)

var (
	serveInput inputFlags
	servePort  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classified subset and summary to the map frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		serveInput.apply(cmd)
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		c, err := loadClassifier()
		if err != nil {
			return err
		}

		// Details stay in memory so requests can filter them.
		res, err := newPipeline(c, nil).Run(ctx)
		if err != nil {
			return err
		}
		summary := report.BuildSummary(res.State, c, reportOptions())

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           server.New(res.State.Details, summary, server.Options{AllowedOrigins: cfg.Server.AllowedOrigins}).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server",
				zap.Int("port", cfg.Server.Port),
				zap.Int("features", len(res.State.Details)),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
		})

		return g.Wait()
	},
}

func init() {
	serveInput.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
