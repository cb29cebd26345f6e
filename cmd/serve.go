package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/studywise/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the StudyWise API over HTTP",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		if a.cfg.Server.JWTSecret == "" {
			return errors.New("server.jwt_secret (or STUDYWISE_JWT_SECRET) must be set to serve the API")
		}
		tutor, err := a.tutor()
		if err != nil {
			return err
		}
		addr := a.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := httpapi.New(httpapi.Config{
			Router:         a.router,
			Lessons:        tutor,
			Secret:         []byte(a.cfg.Server.JWTSecret),
			AllowedOrigins: a.cfg.Server.AllowedOrigins,
			Logger:         a.logger.Named("http"),
		})
		err = srv.ListenAndServe(ctx, addr)
		a.logger.Info("http server stopped", zap.Error(err))
		return err
	}),
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
}
