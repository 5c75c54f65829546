package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-quiz/internal/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser interface",
	Long: `Start a local web server with the register, login, face capture,
quiz and password reset sections. Each browser gets its own views; the
login token is shared with the other commands through the session file.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "Port to listen on (default from web.port)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from web.host)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing view session cookies (default from web.session_secret)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Web.SessionSecret = secret
	}

	logger := newLogger(cfg)
	if cfg.Web.SessionSecret == "" {
		logger.Warn("no session secret configured, using the development default")
	}

	shell, err := newShell(cfg, logger)
	if err != nil {
		return err
	}

	server, err := web.NewServer(shell, cfg.Web.Addr())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Logins from "face-quiz login" reach the running server.
	go func() {
		if err := shell.Store.Watch(ctx, logger.Named("session")); err != nil {
			logger.Warn("not watching session file", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Starting Face Quiz on http://%s\n", cfg.Web.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
