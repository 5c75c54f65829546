package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/facecapture"
	"github.com/spf13/cobra"
)

var faceCmd = &cobra.Command{
	Use:   "face",
	Short: "Register or verify your face with the camera",
	Long: `Capture one frame from the configured camera and upload it.

The camera is set with camera.command (a program writing one image to
stdout, e.g. "fswebcam --no-banner -") or camera.source (an image file or
a directory of frames).`,
}

var faceRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register your reference face",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFaceUpload(cmd, faceapi.PathFaceRegister)
	},
}

var faceVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify your face against the registered one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFaceUpload(cmd, faceapi.PathFaceVerify)
	},
}

var faceSnapshotCmd = &cobra.Command{
	Use:   "snapshot <file.jpg>",
	Short: "Save the current camera frame without uploading it",
	Args:  cobra.ExactArgs(1),
	RunE:  runFaceSnapshot,
}

func init() {
	rootCmd.AddCommand(faceCmd)
	faceCmd.AddCommand(faceRegisterCmd)
	faceCmd.AddCommand(faceVerifyCmd)
	faceCmd.AddCommand(faceSnapshotCmd)
}

// openFaceCapture returns an active face capture view. The caller must Close it.
func openFaceCapture(ctx context.Context, cmd *cobra.Command) (*facecapture.View, error) {
	shell, err := loadShell()
	if err != nil {
		return nil, err
	}
	if !shell.Store.LoggedIn() {
		fmt.Fprintln(cmd.ErrOrStderr(), `Not logged in, run "face-quiz login" first`)
	}

	view := shell.FaceCaptureView()
	if err := view.Open(ctx); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), view.Status())
		return nil, err
	}
	return view, nil
}

func runFaceUpload(cmd *cobra.Command, endpoint string) error {
	ctx := cmd.Context()
	view, err := openFaceCapture(ctx, cmd)
	if err != nil {
		return err
	}
	defer view.Close()

	err = withSpinner(cmd.ErrOrStderr(), facecapture.StatusProcessing, func() error {
		_, err := view.Upload(ctx, endpoint, nil)
		return err
	})
	fmt.Fprintln(cmd.OutOrStdout(), view.Status())
	return err
}

func runFaceSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	view, err := openFaceCapture(ctx, cmd)
	if err != nil {
		return err
	}
	defer view.Close()

	frame, err := view.Preview(ctx)
	if err != nil {
		return fmt.Errorf("capturing frame: %w", err)
	}
	if err := os.WriteFile(args[0], frame, 0600); err != nil {
		return fmt.Errorf("saving frame: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", len(frame), args[0])
	return nil
}
