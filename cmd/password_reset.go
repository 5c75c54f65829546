package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var passwordResetCmd = &cobra.Command{
	Use:   "password-reset",
	Short: "Reset a forgotten password",
}

var passwordResetRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a password reset token",
	RunE:  runPasswordResetRequest,
}

var passwordResetConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Set a new password with a reset token",
	RunE:  runPasswordResetConfirm,
}

func init() {
	rootCmd.AddCommand(passwordResetCmd)
	passwordResetCmd.AddCommand(passwordResetRequestCmd)
	passwordResetCmd.AddCommand(passwordResetConfirmCmd)

	passwordResetRequestCmd.Flags().String("email", "", "Account email")
	passwordResetConfirmCmd.Flags().String("token", "", "Reset token")
	passwordResetConfirmCmd.Flags().String("new-password", "", "New password")
}

func runPasswordResetRequest(cmd *cobra.Command, args []string) error {
	shell, err := loadShell()
	if err != nil {
		return err
	}

	view := shell.PasswordResetView()
	err = view.Request(cmd.Context(), mustGetString(cmd, "email"))
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, view.Status())
	if token := view.IssuedToken(); token != "" {
		fmt.Fprintf(out, "Reset token: %s\n", token)
	}
	return err
}

func runPasswordResetConfirm(cmd *cobra.Command, args []string) error {
	shell, err := loadShell()
	if err != nil {
		return err
	}

	view := shell.PasswordResetView()
	err = view.Confirm(cmd.Context(), mustGetString(cmd, "token"), mustGetString(cmd, "new-password"))
	fmt.Fprintln(cmd.OutOrStdout(), view.Status())
	return err
}
