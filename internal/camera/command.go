package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"sync"
)

// CommandDevice grabs frames by running an external capture program that
// writes one encoded image to stdout, for example
//
//	ffmpeg -loglevel error -f v4l2 -i /dev/video0 -frames:v 1 -f image2pipe -vcodec mjpeg -
//	fswebcam --no-banner -
type CommandDevice struct {
	name string
	args []string
}

// NewCommandDevice parses a whitespace-separated command line.
func NewCommandDevice(command string) (*CommandDevice, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty camera command")
	}
	return &CommandDevice{name: fields[0], args: fields[1:]}, nil
}

// Acquire checks that the capture program exists.
func (d *CommandDevice) Acquire(ctx context.Context) (Stream, error) {
	path, err := exec.LookPath(d.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	return &commandStream{path: path, args: d.args}, nil
}

type commandStream struct {
	mu       sync.Mutex
	path     string
	args     []string
	released bool
}

// Size is unknown until a frame is grabbed; the capture defaults apply.
func (s *commandStream) Size() (int, int) {
	return 0, 0
}

func (s *commandStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, ErrReleased
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.path, s.args...) //nolint:gosec // configured capture command
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("capture command failed: %s", msg)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode captured frame: %w", err)
	}
	return img, nil
}

func (s *commandStream) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}
