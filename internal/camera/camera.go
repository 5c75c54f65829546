// Package camera abstracts video capture devices behind a small capability
// interface so the face capture and quiz views stay platform independent.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/kozaktomas/face-quiz/internal/config"
)

var (
	// ErrDeviceUnavailable means the device could not be opened (missing,
	// permission denied, no camera configured).
	ErrDeviceUnavailable = errors.New("camera unavailable")
	// ErrDeviceBusy means another view currently owns the device.
	ErrDeviceBusy = errors.New("camera is in use by another view")
	// ErrReleased is returned by streams used after Release.
	ErrReleased = errors.New("camera stream released")
)

// Device is a video input that can be acquired by one view at a time.
type Device interface {
	// Acquire opens the device and returns a live stream.
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is an acquired video source.
type Stream interface {
	// Size reports the intrinsic resolution, or 0, 0 when unknown.
	Size() (width, height int)
	// Frame returns the current video frame.
	Frame(ctx context.Context) (image.Image, error)
	// Release frees the device. It is safe to call more than once.
	Release() error
}

// FromConfig returns the device described by cfg, wrapped for exclusive use.
// A capture command wins over a source path; with neither set the device
// always reports ErrDeviceUnavailable.
func FromConfig(cfg config.CameraConfig) (Device, error) {
	var dev Device
	switch {
	case cfg.Command != "":
		cmd, err := NewCommandDevice(cfg.Command)
		if err != nil {
			return nil, err
		}
		dev = cmd
	case cfg.Source != "":
		dev = NewFileDevice(cfg.Source)
	default:
		dev = unavailableDevice{reason: "no camera configured"}
	}
	return NewExclusive(dev), nil
}

// unavailableDevice always fails to acquire.
type unavailableDevice struct {
	reason string
}

func (d unavailableDevice) Acquire(ctx context.Context) (Stream, error) {
	return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, d.reason)
}

// Exclusive lets only one stream of the wrapped device be live at a time.
type Exclusive struct {
	dev  Device
	mu   sync.Mutex
	held bool
}

// NewExclusive wraps dev.
func NewExclusive(dev Device) *Exclusive {
	return &Exclusive{dev: dev}
}

// Acquire fails with ErrDeviceBusy while another stream is live.
func (e *Exclusive) Acquire(ctx context.Context) (Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.held {
		return nil, ErrDeviceBusy
	}
	s, err := e.dev.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	e.held = true
	return &exclusiveStream{Stream: s, owner: e}, nil
}

// InUse reports whether a stream is currently live.
func (e *Exclusive) InUse() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.held
}

type exclusiveStream struct {
	Stream
	owner *Exclusive
	once  sync.Once
	err   error
}

func (s *exclusiveStream) Release() error {
	s.once.Do(func() {
		s.err = s.Stream.Release()
		s.owner.mu.Lock()
		s.owner.held = false
		s.owner.mu.Unlock()
	})
	return s.err
}
