package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/kozaktomas/face-quiz/internal/app"
	"github.com/kozaktomas/face-quiz/internal/config"
	"github.com/kozaktomas/face-quiz/internal/logging"
	"github.com/kozaktomas/face-quiz/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	configPath string
	captureDir string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "face-quiz",
	Short: "Take face-verified quizzes from the command line or a local web page",
	Long: `Face Quiz is a client for the face authentication quiz API.
It registers accounts, logs in, registers and verifies your face with a
camera, and runs quizzes that may require face re-authentication before
they start. Run "face-quiz serve" for the browser interface.`,
	SilenceUsage: true,
}

func Execute() {
	// Ctrl+C cancels in-flight requests and releases the camera.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $HOME/.face-quiz/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig reads the config and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if captureDir != "" {
		cfg.API.CaptureDir = captureDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) hclog.Logger {
	return logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// loadShell builds the app shell for a command.
func loadShell(opts ...app.Option) (*app.Shell, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newShell(cfg, newLogger(cfg), opts...)
}

func newShell(cfg *config.Config, logger hclog.Logger, opts ...app.Option) (*app.Shell, error) {
	opts = append([]app.Option{app.WithMetrics(metrics.New())}, opts...)
	return app.New(cfg, logger, opts...)
}
