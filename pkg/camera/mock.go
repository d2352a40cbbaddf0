package camera

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"
)

// Mock implements Device without hardware.
// All methods can be customized via function fields.
type Mock struct {
	// AcquireFunc is called when Acquire is invoked.
	// If nil, a new stream is returned immediately.
	AcquireFunc func(ctx context.Context, facing Facing) (Stream, error)

	// GrabFunc is called when GrabFrame is invoked on an open stream.
	// If nil, a synthetic JPEG of Width x Height is returned.
	GrabFunc func(s Stream) (Image, error)

	Width   int
	Height  int
	Quality int

	// Tracking
	mu     sync.Mutex
	calls  []MockCall
	nextID int
	open   map[*MockStream]bool
}

// MockStream is the handle returned by Mock.
type MockStream struct {
	ID     int
	facing Facing
}

// Facing implements Stream.
func (s *MockStream) Facing() Facing { return s.facing }

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Stream *MockStream
	Time   time.Time
}

// NewMock creates a mock camera with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		Width:   320,
		Height:  240,
		Quality: 80,
		open:    make(map[*MockStream]bool),
	}
}

// NewMockFromConfig creates a mock camera sized by cfg.
func NewMockFromConfig(cfg Config) *Mock {
	m := NewMock()
	m.Width, m.Height, m.Quality = cfg.Width, cfg.Height, cfg.Quality
	return m
}

// Acquire returns a new stream, or the result of AcquireFunc.
func (m *Mock) Acquire(ctx context.Context, facing Facing) (Stream, error) {
	if m.AcquireFunc != nil {
		s, err := m.AcquireFunc(ctx, facing)
		if err != nil {
			m.recordCall("Acquire", nil)
			return nil, err
		}
		if ms, ok := s.(*MockStream); ok {
			m.track(ms)
		}
		m.recordCall("Acquire", asMock(s))
		return s, nil
	}

	if err := ctx.Err(); err != nil {
		m.recordCall("Acquire", nil)
		return nil, err
	}

	m.mu.Lock()
	m.nextID++
	s := &MockStream{ID: m.nextID, facing: facing}
	m.mu.Unlock()

	m.track(s)
	m.recordCall("Acquire", s)
	return s, nil
}

// GrabFrame returns a synthetic frame for an open stream.
func (m *Mock) GrabFrame(s Stream) (Image, error) {
	ms := asMock(s)
	m.recordCall("GrabFrame", ms)

	if ms == nil {
		return Image{}, WrapError("mock", "grab", ErrForeignStream)
	}
	if !m.IsOpen(ms) {
		return Image{}, WrapError("mock", "grab", ErrStreamClosed)
	}
	if m.GrabFunc != nil {
		return m.GrabFunc(s)
	}
	m.mu.Lock()
	w, h, q := m.Width, m.Height, m.Quality
	m.mu.Unlock()
	return SyntheticFrame(w, h, q)
}

// Resize changes the synthetic frame settings. Safe while streams are open.
func (m *Mock) Resize(width, height, quality int) {
	m.mu.Lock()
	m.Width, m.Height, m.Quality = width, height, quality
	m.mu.Unlock()
}

// Release closes the stream. Releasing twice is a no-op but is still recorded.
func (m *Mock) Release(s Stream) {
	ms := asMock(s)

	m.mu.Lock()
	delete(m.open, ms)
	m.mu.Unlock()

	m.recordCall("Release", ms)
}

// IsOpen reports whether the stream has been acquired and not released.
func (m *Mock) IsOpen(s *MockStream) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open[s]
}

// OpenStreams returns the number of streams not yet released.
func (m *Mock) OpenStreams() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

func (m *Mock) track(s *MockStream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open == nil {
		m.open = make(map[*MockStream]bool)
	}
	m.open[s] = true
}

func (m *Mock) recordCall(method string, s *MockStream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Stream: s,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock whose Acquire always fails with err.
func WithError(err error) *Mock {
	m := NewMock()
	m.AcquireFunc = func(ctx context.Context, facing Facing) (Stream, error) {
		return nil, err
	}
	return m
}

// WithLatency makes Acquire wait for delay (or ctx) before opening a stream.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	m.AcquireFunc = func(ctx context.Context, facing Facing) (Stream, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		m.mu.Lock()
		m.nextID++
		s := &MockStream{ID: m.nextID, facing: facing}
		m.mu.Unlock()
		return s, nil
	}
	return m
}

// SyntheticFrame encodes a gradient test card as JPEG.
func SyntheticFrame(width, height, quality int) (Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(width, 1)),
				G: uint8(y * 255 / max(height, 1)),
				B: 128,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return Image{}, WrapError("mock", "encode", err)
	}

	return Image{
		Data:       buf.Bytes(),
		MIMEType:   "image/jpeg",
		Width:      width,
		Height:     height,
		CapturedAt: time.Now(),
	}, nil
}

func asMock(s Stream) *MockStream {
	ms, _ := s.(*MockStream)
	return ms
}

// Verify Mock implements Device at compile time.
var _ Device = (*Mock)(nil)
