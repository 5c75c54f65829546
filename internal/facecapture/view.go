// Package facecapture implements the face capture view: it owns a camera
// stream while active and uploads single frames to the face endpoints.
package facecapture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/kozaktomas/face-quiz/internal/camera"
	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/logging"
	"github.com/kozaktomas/face-quiz/internal/metrics"
)

// Status texts shown while an upload runs or fails.
const (
	StatusProcessing  = "Processing..."
	cameraErrorPrefix = "Camera error: "
	uploadErrorPrefix = "Upload error: "
)

var (
	// ErrSuperseded is returned by an upload whose response arrived after a
	// newer upload was issued. Its result is discarded.
	ErrSuperseded = errors.New("upload superseded by a newer capture")
	// ErrClosed is returned when the view was closed.
	ErrClosed = errors.New("face capture view closed")
	errNotOpen = fmt.Errorf("%w: camera not started", camera.ErrDeviceUnavailable)
)

// Uploader sends an encoded frame to a face endpoint.
type Uploader interface {
	UploadFace(ctx context.Context, endpoint string, frame []byte) (*faceapi.FaceResult, error)
}

// ResultFunc receives the parsed result of a successful upload.
type ResultFunc func(*faceapi.FaceResult)

// View is one face capture view instance. The zero value is not usable; use New.
type View struct {
	device  camera.Device
	api     Uploader
	opts    camera.CaptureOptions
	logger  hclog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	stream    camera.Stream
	cameraErr error
	closed    bool
	status    string
	seq       uint64 // sequence number of the most recently issued upload
}

// Option configures a View.
type Option func(*View)

// WithCaptureOptions sets frame size fallbacks and JPEG quality.
func WithCaptureOptions(opts camera.CaptureOptions) Option {
	return func(v *View) {
		v.opts = opts
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(v *View) {
		v.logger = logging.OrNull(l).Named("facecapture")
	}
}

// WithMetrics records upload outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *View) {
		v.metrics = m
	}
}

// New creates an inactive view. Call Open to acquire the camera.
func New(device camera.Device, api Uploader, opts ...Option) *View {
	v := &View{
		device: device,
		api:    api,
		opts:   camera.DefaultCaptureOptions(),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Open acquires the camera. A failure is shown as the view status and is
// final for this view: later calls return the same error without retrying.
func (v *View) Open(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case v.closed:
		return ErrClosed
	case v.stream != nil:
		return nil
	case v.cameraErr != nil:
		return v.cameraErr
	}

	stream, err := v.device.Acquire(ctx)
	if err != nil {
		v.cameraErr = err
		v.status = cameraErrorPrefix + err.Error()
		v.logger.Warn("camera acquisition failed", "error", err)
		return err
	}
	v.stream = stream
	v.logger.Debug("camera acquired")
	return nil
}

// Close releases the camera stream. It is safe to call more than once.
func (v *View) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	if v.stream == nil {
		return nil
	}
	err := v.stream.Release()
	v.stream = nil
	v.logger.Debug("camera released")
	return err
}

// Status returns the current status text.
func (v *View) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Available reports whether the camera is acquired and capture is possible.
func (v *View) Available() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stream != nil
}

// Preview returns the current frame as JPEG without uploading it.
func (v *View) Preview(ctx context.Context) ([]byte, error) {
	v.mu.Lock()
	stream := v.stream
	v.mu.Unlock()

	if stream == nil {
		return nil, errNotOpen
	}
	return camera.CaptureFrame(ctx, stream, v.opts)
}

// RegisterFace uploads one frame as the reference face.
func (v *View) RegisterFace(ctx context.Context) (*faceapi.FaceResult, error) {
	return v.Upload(ctx, faceapi.PathFaceRegister, nil)
}

// Verify uploads one frame for comparison and hands the result to onResult.
func (v *View) Verify(ctx context.Context, onResult ResultFunc) (*faceapi.FaceResult, error) {
	return v.Upload(ctx, faceapi.PathFaceVerify, onResult)
}

// Upload captures one frame and posts it to endpoint.
//
// The status goes to Processing..., then to the serialized result, the
// server detail (or raw body), "Upload error: ..." or "Camera error: ...".
// A camera failure issues no request. When a newer upload was issued before
// this one completes, the result is dropped and ErrSuperseded returned;
// neither the status nor onResult are touched.
func (v *View) Upload(ctx context.Context, endpoint string, onResult ResultFunc) (*faceapi.FaceResult, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	v.seq++
	seq := v.seq
	v.status = StatusProcessing
	stream := v.stream
	cameraErr := v.cameraErr
	v.mu.Unlock()

	if stream == nil {
		if cameraErr == nil {
			cameraErr = errNotOpen
		}
		return nil, v.fail(seq, endpoint, metrics.OutcomeCamera, cameraErrorPrefix+cameraErr.Error(), cameraErr)
	}

	frame, err := camera.CaptureFrame(ctx, stream, v.opts)
	if err != nil {
		return nil, v.fail(seq, endpoint, metrics.OutcomeCamera, cameraErrorPrefix+err.Error(), err)
	}

	result, err := v.api.UploadFace(ctx, endpoint, frame)
	if err != nil {
		if apiErr, ok := faceapi.AsAPIError(err); ok {
			return nil, v.fail(seq, endpoint, metrics.OutcomeAPIError, apiErr.Message(), err)
		}
		return nil, v.fail(seq, endpoint, metrics.OutcomeTransport, uploadErrorPrefix+err.Error(), err)
	}

	v.mu.Lock()
	if seq != v.seq {
		v.mu.Unlock()
		v.superseded(seq, endpoint)
		return nil, ErrSuperseded
	}
	v.status = result.String()
	v.mu.Unlock()

	v.metrics.FaceUpload(endpoint, metrics.OutcomeOK)
	v.logger.Debug("face uploaded", "endpoint", endpoint, "seq", seq)
	if onResult != nil {
		onResult(result)
	}
	return result, nil
}

// fail sets the status for upload seq unless a newer upload exists.
func (v *View) fail(seq uint64, endpoint, outcome, status string, err error) error {
	v.mu.Lock()
	if seq != v.seq {
		v.mu.Unlock()
		v.superseded(seq, endpoint)
		return ErrSuperseded
	}
	v.status = status
	v.mu.Unlock()

	v.metrics.FaceUpload(endpoint, outcome)
	v.logger.Info("face upload failed", "endpoint", endpoint, "outcome", outcome, "error", err)
	return err
}

func (v *View) superseded(seq uint64, endpoint string) {
	v.metrics.FaceUpload(endpoint, metrics.OutcomeSuperseded)
	v.logger.Debug("discarding stale upload response", "endpoint", endpoint, "seq", seq)
}
