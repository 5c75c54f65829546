package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}

// FileDevice plays back still images as a video source: a single file is a
// frozen frame, a directory is cycled through in name order, one image per frame.
type FileDevice struct {
	path string
}

// NewFileDevice returns a device reading frames from path.
func NewFileDevice(path string) *FileDevice {
	return &FileDevice{path: path}
}

// Acquire lists the frames; an unreadable path or an empty directory is ErrDeviceUnavailable.
func (d *FileDevice) Acquire(ctx context.Context) (Stream, error) {
	info, err := os.Stat(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	var frames []string
	if info.IsDir() {
		entries, err := os.ReadDir(d.path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isImageFile(entry.Name()) {
				frames = append(frames, filepath.Join(d.path, entry.Name()))
			}
		}
		slices.Sort(frames)
	} else {
		frames = []string{d.path}
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrDeviceUnavailable, d.path)
	}

	// Intrinsic size comes from the first frame, like a video track's settings.
	cfg, err := decodeConfig(frames[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	return &fileStream{frames: frames, width: cfg.Width, height: cfg.Height}, nil
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path) //nolint:gosec // configured camera source
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return cfg, nil
}

type fileStream struct {
	mu            sync.Mutex
	frames        []string
	next          int
	width, height int
	released      bool
}

func (s *fileStream) Size() (int, int) {
	return s.width, s.height
}

func (s *fileStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil, ErrReleased
	}
	path := s.frames[s.next]
	s.next = (s.next + 1) % len(s.frames)
	s.mu.Unlock()

	data, err := os.ReadFile(path) //nolint:gosec // configured camera source
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return img, nil
}

func (s *fileStream) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}
