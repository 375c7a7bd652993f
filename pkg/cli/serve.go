package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/cli/config"
	httpctrl "github.com/secmon-lab/echonotes/pkg/controller/http"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var corsOrigins []string
	var maxUploadBytes int
	var maxBodyBytes int
	var fileCfg config.File
	var appCfg config.App
	var repoCfg config.Repository
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8000",
			Sources:     cli.EnvVars("ECHO_NOTES_ADDR"),
			Destination: &addr,
		},
		&cli.StringSliceFlag{
			Name:        "cors-allow-origin",
			Usage:       "Origin allowed to call the API from a browser (repeatable)",
			Value:       []string{"http://localhost:5173"},
			Sources:     cli.EnvVars("ECHO_NOTES_CORS_ALLOW_ORIGINS"),
			Destination: &corsOrigins,
		},
		&cli.IntFlag{
			Name:        "max-upload-bytes",
			Usage:       "Maximum size of an audio upload",
			Value:       httpctrl.DefaultMaxUploadBytes,
			Sources:     cli.EnvVars("ECHO_NOTES_MAX_UPLOAD_BYTES"),
			Destination: &maxUploadBytes,
		},
		&cli.IntFlag{
			Name:        "max-body-bytes",
			Usage:       "Maximum size of a JSON request body",
			Value:       httpctrl.DefaultMaxBodyBytes,
			Sources:     cli.EnvVars("ECHO_NOTES_MAX_BODY_BYTES"),
			Destination: &maxBodyBytes,
		},
	}

	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, fileCfg.Apply(c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc, closeStore, err := appCfg.Configure(ctx, repo)
			if err != nil {
				return err
			}
			defer closeStore()

			logging.Default().LogAttrs(ctx, slog.LevelInfo, "Provider configuration", appCfg.LogAttrs()...)

			handler := httpctrl.New(uc,
				httpctrl.WithAppName(appCfg.AppName()),
				httpctrl.WithCORSOrigins(corsOrigins),
				httpctrl.WithMaxUploadBytes(int64(maxUploadBytes)),
				httpctrl.WithMaxBodyBytes(int64(maxBodyBytes)),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "repository", repoCfg.Backend())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
