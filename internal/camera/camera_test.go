package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-quiz/internal/config"
)

// writePNG writes a w x h solid image to dir/name.
func writePNG(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

// sizedStream is a stream with a fixed frame and reported size.
type sizedStream struct {
	frame         image.Image
	width, height int
	released      int
}

func (s *sizedStream) Size() (int, int) { return s.width, s.height }
func (s *sizedStream) Frame(ctx context.Context) (image.Image, error) {
	return s.frame, nil
}
func (s *sizedStream) Release() error {
	s.released++
	return nil
}

type stubDevice struct {
	stream *sizedStream
	err    error
}

func (d *stubDevice) Acquire(ctx context.Context) (Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("payload is not a JPEG: %v", err)
	}
	return img
}

func TestCaptureFrame_UsesSourceResolution(t *testing.T) {
	s := &sizedStream{frame: image.NewRGBA(image.Rect(0, 0, 200, 100)), width: 200, height: 100}

	data, err := CaptureFrame(context.Background(), s, DefaultCaptureOptions())
	if err != nil {
		t.Fatalf("CaptureFrame() error = %v", err)
	}

	b := decodeJPEG(t, data).Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("frame size = %dx%d, want 200x100", b.Dx(), b.Dy())
	}
}

func TestCaptureFrame_FallsBackToDefaultSize(t *testing.T) {
	s := &sizedStream{frame: image.NewRGBA(image.Rect(0, 0, 50, 50))}

	data, err := CaptureFrame(context.Background(), s, DefaultCaptureOptions())
	if err != nil {
		t.Fatalf("CaptureFrame() error = %v", err)
	}

	b := decodeJPEG(t, data).Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("frame size = %dx%d, want 640x480 default", b.Dx(), b.Dy())
	}
}

func TestCaptureFrame_ZeroOptions(t *testing.T) {
	s := &sizedStream{frame: image.NewRGBA(image.Rect(0, 0, 10, 10))}

	data, err := CaptureFrame(context.Background(), s, CaptureOptions{})
	if err != nil {
		t.Fatalf("CaptureFrame() error = %v", err)
	}
	b := decodeJPEG(t, data).Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("frame size = %dx%d, want 640x480", b.Dx(), b.Dy())
	}
}

func TestFileDevice_SingleFile(t *testing.T) {
	path := writePNG(t, t.TempDir(), "face.png", 64, 48, color.White)

	s, err := NewFileDevice(path).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer s.Release()

	w, h := s.Size()
	if w != 64 || h != 48 {
		t.Errorf("Size() = %dx%d, want 64x48", w, h)
	}
	img, err := s.Frame(context.Background())
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("frame width = %d, want 64", img.Bounds().Dx())
	}
}

func TestFileDevice_DirectoryCycles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b.png", 4, 4, color.Black)
	writePNG(t, dir, "a.png", 4, 4, color.White)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileDevice(dir).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer s.Release()

	want := []uint32{0xffff, 0, 0xffff} // a.png (white), b.png (black), a.png again
	for i, expected := range want {
		img, err := s.Frame(context.Background())
		if err != nil {
			t.Fatalf("Frame() %d error = %v", i, err)
		}
		r, _, _, _ := img.At(0, 0).RGBA()
		if r != expected {
			t.Errorf("frame %d red = %#x, want %#x", i, r, expected)
		}
	}
}

func TestFileDevice_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.png") }},
		{"empty dir", func(t *testing.T) string { return t.TempDir() }},
		{"not an image", func(t *testing.T) string {
			path := filepath.Join(t.TempDir(), "fake.png")
			os.WriteFile(path, []byte("not a png"), 0600)
			return path
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileDevice(tt.path(t)).Acquire(context.Background())
			if !errors.Is(err, ErrDeviceUnavailable) {
				t.Errorf("Acquire() error = %v, want ErrDeviceUnavailable", err)
			}
		})
	}
}

func TestFileStream_FrameAfterRelease(t *testing.T) {
	path := writePNG(t, t.TempDir(), "face.png", 4, 4, color.White)
	s, err := NewFileDevice(path).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := s.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := s.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
	if _, err := s.Frame(context.Background()); !errors.Is(err, ErrReleased) {
		t.Errorf("Frame() after release error = %v, want ErrReleased", err)
	}
}

func TestCommandDevice(t *testing.T) {
	if _, err := NewCommandDevice("   "); err == nil {
		t.Error("expected error for empty command")
	}

	dev, err := NewCommandDevice("definitely-not-a-camera-binary --frame")
	if err != nil {
		t.Fatalf("NewCommandDevice() error = %v", err)
	}
	if _, err := dev.Acquire(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("Acquire() error = %v, want ErrDeviceUnavailable", err)
	}
}

func TestCommandDevice_CatFrame(t *testing.T) {
	if _, err := os.Stat("/bin/cat"); err != nil {
		t.Skip("cat not available")
	}
	path := writePNG(t, t.TempDir(), "frame.png", 8, 6, color.White)

	dev, err := NewCommandDevice("/bin/cat " + path)
	if err != nil {
		t.Fatalf("NewCommandDevice() error = %v", err)
	}
	s, err := dev.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer s.Release()

	if w, h := s.Size(); w != 0 || h != 0 {
		t.Errorf("Size() = %dx%d, want unknown", w, h)
	}
	img, err := s.Frame(context.Background())
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Errorf("frame = %v, want 8x6", img.Bounds())
	}
}

func TestExclusive(t *testing.T) {
	inner := &sizedStream{frame: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	ex := NewExclusive(&stubDevice{stream: inner})

	first, err := ex.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	if !ex.InUse() {
		t.Error("expected device in use")
	}

	if _, err := ex.Acquire(context.Background()); !errors.Is(err, ErrDeviceBusy) {
		t.Errorf("second Acquire() error = %v, want ErrDeviceBusy", err)
	}

	first.Release()
	first.Release()
	if inner.released != 1 {
		t.Errorf("inner released %d times, want 1", inner.released)
	}
	if ex.InUse() {
		t.Error("device still in use after release")
	}

	second, err := ex.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	second.Release()
}

func TestExclusive_AcquireErrorDoesNotHold(t *testing.T) {
	ex := NewExclusive(&stubDevice{err: ErrDeviceUnavailable})

	if _, err := ex.Acquire(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Acquire() error = %v", err)
	}
	if ex.InUse() {
		t.Error("failed acquisition must not hold the device")
	}
}

func TestFromConfig(t *testing.T) {
	dev, err := FromConfig(config.CameraConfig{})
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	_, err = dev.Acquire(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("unconfigured camera error = %v, want ErrDeviceUnavailable", err)
	}

	path := writePNG(t, t.TempDir(), "face.png", 4, 4, color.White)
	dev, err = FromConfig(config.CameraConfig{Source: path})
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if _, ok := dev.(*Exclusive); !ok {
		t.Errorf("FromConfig() = %T, want *Exclusive", dev)
	}
	s, err := dev.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	s.Release()
}
