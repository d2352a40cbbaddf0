// Package webcam implements camera.Device on top of OpenCV video capture.
package webcam

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-liveness/pkg/camera"
	"gocv.io/x/gocv"
)

// Device opens local capture devices through GoCV.
type Device struct {
	cfg    camera.Config
	logger *slog.Logger

	mu   sync.Mutex
	open map[int]*stream // keyed by device index
}

type stream struct {
	cfg    camera.Config // settings in force when opened
	facing camera.Facing
	index  int
	vc     *gocv.VideoCapture
	frame  gocv.Mat
	closed bool
	mu     sync.Mutex // Protects reads from vc
}

func (s *stream) Facing() camera.Facing { return s.facing }

// New creates a webcam device. Devices are opened lazily on Acquire.
func New(cfg camera.Config, logger *slog.Logger) (*Device, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		cfg:    cfg,
		logger: logger.With("component", "webcam"),
		open:   make(map[int]*stream),
	}, nil
}

// Acquire opens the device mapped to facing. Opening can take a while on
// some drivers, so it runs off the caller's goroutine and honors ctx.
func (d *Device) Acquire(ctx context.Context, facing camera.Facing) (camera.Stream, error) {
	d.mu.Lock()
	cfg := d.cfg
	index := cfg.DeviceFor(facing)
	name := deviceName(index)
	if _, busy := d.open[index]; busy {
		d.mu.Unlock()
		return nil, camera.WrapError(name, "open", camera.ErrBusy)
	}
	// Reserve the slot while opening.
	d.open[index] = nil
	d.mu.Unlock()

	type result struct {
		s   *stream
		err error
	}
	done := make(chan result, 1)

	go func() {
		s, err := openStream(cfg, facing, index)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			d.unreserve(index)
			return nil, r.err
		}
		d.mu.Lock()
		d.open[index] = r.s
		d.mu.Unlock()
		d.logger.Info("camera opened", "device", index, "facing", facing,
			"width", cfg.Width, "height", cfg.Height)
		return r.s, nil

	case <-ctx.Done():
		// Close whatever the opener produces once it finishes.
		go func() {
			r := <-done
			if r.s != nil {
				r.s.close()
			}
			d.unreserve(index)
		}()
		return nil, ctx.Err()
	}
}

func openStream(cfg camera.Config, facing camera.Facing, index int) (*stream, error) {
	name := deviceName(index)

	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, camera.WrapError(name, "open", fmt.Errorf("%w: %v", camera.ErrUnavailable, err))
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, camera.WrapError(name, "open", camera.ErrUnavailable)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	s := &stream{
		cfg:    cfg,
		facing: facing,
		index:  index,
		vc:     vc,
		frame:  gocv.NewMat(),
	}

	// Let auto-exposure settle.
	for i := 0; i < cfg.WarmupFrames; i++ {
		if !vc.Read(&s.frame) {
			s.close()
			return nil, camera.WrapError(name, "warmup", camera.ErrPermissionDenied)
		}
	}

	return s, nil
}

// GrabFrame reads the next frame and encodes it as JPEG.
func (d *Device) GrabFrame(cs camera.Stream) (camera.Image, error) {
	s, ok := cs.(*stream)
	if !ok {
		return camera.Image{}, camera.WrapError("webcam", "grab", camera.ErrForeignStream)
	}
	name := deviceName(s.index)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return camera.Image{}, camera.WrapError(name, "grab", camera.ErrStreamClosed)
	}
	if !s.vc.Read(&s.frame) || s.frame.Empty() {
		return camera.Image{}, camera.WrapError(name, "grab", camera.ErrEmptyFrame)
	}

	src := s.frame
	if s.cfg.Mirror {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(s.frame, &flipped, 1)
		src = flipped
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, src, []int{gocv.IMWriteJpegQuality, s.cfg.Quality})
	if err != nil {
		return camera.Image{}, camera.WrapError(name, "encode", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close, so copy out.
	data := append([]byte(nil), buf.GetBytes()...)

	return camera.Image{
		Data:       data,
		MIMEType:   "image/jpeg",
		Width:      src.Cols(),
		Height:     src.Rows(),
		CapturedAt: time.Now(),
	}, nil
}

// Reconfigure replaces the settings used for streams opened from now on.
// Open streams keep the settings they were opened with.
func (d *Device) Reconfigure(cfg camera.Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid config: %v", errs)
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	d.logger.Info("camera reconfigured", "width", cfg.Width, "height", cfg.Height, "quality", cfg.Quality)
	return nil
}

// Release closes the stream and frees the device slot. Safe to call twice.
func (d *Device) Release(cs camera.Stream) {
	s, ok := cs.(*stream)
	if !ok {
		return
	}
	if s.close() {
		d.logger.Info("camera released", "device", s.index)
	}
	d.mu.Lock()
	if d.open[s.index] == s {
		delete(d.open, s.index)
	}
	d.mu.Unlock()
}

// Close releases every open stream.
func (d *Device) Close() error {
	d.mu.Lock()
	streams := make([]*stream, 0, len(d.open))
	for _, s := range d.open {
		if s != nil {
			streams = append(streams, s)
		}
	}
	d.mu.Unlock()

	for _, s := range streams {
		d.Release(s)
	}
	return nil
}

func (d *Device) unreserve(index int) {
	d.mu.Lock()
	if d.open[index] == nil {
		delete(d.open, index)
	}
	d.mu.Unlock()
}

// close reports whether this call closed the stream.
func (s *stream) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.frame.Close()
	s.vc.Close()
	return true
}

func deviceName(index int) string {
	return fmt.Sprintf("webcam%d", index)
}

// Verify Device implements camera.Device at compile time.
var _ camera.Device = (*Device)(nil)
