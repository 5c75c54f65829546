package cmd

import (
	"fmt"

	"github.com/kozaktomas/face-quiz/internal/account"
	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the quiz API.

Example:
  face-quiz register --email jan@example.com --password secret --full-name "Jan Novak"`,
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	Long: `Log in with email and password. The access token is saved to the
session file and used by every other command and by the web shell.`,
	RunE: runLogin,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login state and configuration",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(statusCmd)

	// No client-side validation: empty values are sent as they are.
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("password", "", "Account password")
	registerCmd.Flags().String("full-name", "", "Full name (optional)")

	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")
}

func runRegister(cmd *cobra.Command, args []string) error {
	shell, err := loadShell()
	if err != nil {
		return err
	}

	view := shell.RegisterView()
	err = view.Submit(cmd.Context(), faceapi.RegisterRequest{
		Email:    mustGetString(cmd, "email"),
		Password: mustGetString(cmd, "password"),
		FullName: mustGetString(cmd, "full-name"),
	})
	fmt.Fprintln(cmd.OutOrStdout(), view.Status())
	return err
}

func runLogin(cmd *cobra.Command, args []string) error {
	shell, err := loadShell()
	if err != nil {
		return err
	}

	// Failures are alerted on stderr; the command exits non-zero.
	alert := account.AlertFunc(func(message string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Alert: %s\n", message)
	})
	view := shell.LoginView(alert)
	if err := view.Submit(cmd.Context(), faceapi.Credentials{
		Email:    mustGetString(cmd, "email"),
		Password: mustGetString(cmd, "password"),
	}); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token: %s\n", view.TokenStatus())
	fmt.Fprintf(out, "Saved to %s\n", shell.Store.Path())
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	shell, err := loadShell()
	if err != nil {
		return err
	}

	camera := "not configured"
	switch {
	case shell.Config.Camera.Command != "":
		camera = "command: " + shell.Config.Camera.Command
	case shell.Config.Camera.Source != "":
		camera = "source: " + shell.Config.Camera.Source
	}

	token := account.TokenMissing
	if shell.Store.LoggedIn() {
		token = account.TokenReceived
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token:   %s\n", token)
	fmt.Fprintf(out, "API:     %s\n", shell.Client.BaseURL())
	fmt.Fprintf(out, "Session: %s\n", shell.Store.Path())
	fmt.Fprintf(out, "Camera:  %s\n", camera)
	return nil
}
