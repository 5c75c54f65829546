// Package mock provides a fake camera device for testing.
package mock

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/kozaktomas/face-quiz/internal/camera"
)

// Device is a fake camera.Device producing a solid-colour frame.
type Device struct {
	mu sync.Mutex

	// Frame is returned by every stream; a 320x240 grey image when nil.
	Frame image.Image
	// Width and Height are reported as the intrinsic size (0 means unknown).
	Width, Height int

	// Error injection
	AcquireError error
	FrameError   error

	acquired int
	released int
	frames   int
}

// NewDevice returns a device with a 320x240 grey frame and a known size.
func NewDevice() *Device {
	return &Device{Width: 320, Height: 240}
}

// Acquire implements camera.Device.
func (d *Device) Acquire(ctx context.Context) (camera.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.AcquireError != nil {
		return nil, d.AcquireError
	}
	d.acquired++
	return &stream{dev: d}, nil
}

// Acquired returns how many streams were handed out.
func (d *Device) Acquired() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acquired
}

// Released returns how many streams were released.
func (d *Device) Released() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Frames returns how many frames were read.
func (d *Device) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

type stream struct {
	dev      *Device
	released bool
}

func (s *stream) Size() (int, int) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	return s.dev.Width, s.dev.Height
}

func (s *stream) Frame(ctx context.Context) (image.Image, error) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.released {
		return nil, camera.ErrReleased
	}
	if s.dev.FrameError != nil {
		return nil, s.dev.FrameError
	}
	s.dev.frames++
	if s.dev.Frame != nil {
		return s.dev.Frame, nil
	}
	return Solid(320, 240, color.Gray{Y: 128}), nil
}

func (s *stream) Release() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if !s.released {
		s.released = true
		s.dev.released++
	}
	return nil
}

// Solid returns a w x h image filled with c.
func Solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}
