package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/cumulus-classroom/cumulus/internal/app"
	"github.com/cumulus-classroom/cumulus/internal/config"
	"github.com/cumulus-classroom/cumulus/internal/server"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

// @title Cumulus API
// @version 1.0
// @description Classroom assistant: voice questions answered with the lesson context, board OCR, device notes and live captions.
// @host localhost:3000
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configPaths []string

var rootCmd = &cobra.Command{
	Use:          "cumulus",
	Short:        "Classroom assistant API",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configPaths, "config-path", nil, "directories searched for config_<ENV>.yaml")
	rootCmd.AddCommand(
		serveCmd(),
		talkCmd(),
		migrateCmd(),
	)
}

func loadSettings() (*config.Loader, *config.Settings, *Logger.Logger, error) {
	loader := config.NewLoader(configPaths...)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := Logger.New(cfg.Debug)
	logger.Info("Logger initialized")
	return loader, cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	loader, cfg, logger, err := loadSettings()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	loader.Watch(func(path string) {
		logger.Warnf("config file %s changed; restart to apply", path)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Errorf("closing resources: %v", err)
		}
	}()

	// handle migrations
	if err := a.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	router := server.NewRouter(cfg, a.GetServerDependencies())

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Cumulus listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server exited: %w", err)
		}
	case <-ctx.Done():
	}

	// 5 secs then cancel
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.Captions != nil {
		_ = a.Captions.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown err %v", err)
	}
	logger.Info("Shutdown system")
	return nil
}

func talkCmd() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "talk",
		Short: "Answer one recorded question and write the spoken reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, logger, err := loadSettings()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := app.NewTalkApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()

			reply, err := a.Pipeline.Run(cmd.Context(), f)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, reply.Audio, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Q: %s\nA: %s\nwrote %d bytes to %s\n", reply.Transcript, reply.Text, len(reply.Audio), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "recorded question (any format ffmpeg reads)")
	cmd.Flags().StringVar(&out, "out", "response.mp3", "where to write the MP3 reply")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, logger, err := loadSettings()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := app.NewStorageApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Infof("migrated %s schema", cfg.DB.Driver)
			return nil
		},
	}
}
