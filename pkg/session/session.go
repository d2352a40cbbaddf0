// Package session keeps track of liveness capture sessions started through
// the API: it creates controllers, stores their proof photos and evicts old
// records.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-liveness/pkg/camera"
	"github.com/teslashibe/go-liveness/pkg/clock"
	"github.com/teslashibe/go-liveness/pkg/liveness"
	"github.com/teslashibe/go-liveness/pkg/notify"
	"github.com/teslashibe/go-liveness/pkg/photo"
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("session: not found")
	ErrClosed   = errors.New("session: manager closed")
	ErrNoPhoto  = errors.New("session: no photo captured")
)

// MsgPhotoSaved confirms a stored proof photo.
const MsgPhotoSaved = "Photo captured successfully."

// Info is the externally visible view of a session.
type Info struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	EndedAt   *time.Time        `json:"ended_at,omitempty"`
	Facing    camera.Facing     `json:"facing"`
	Snapshot  liveness.Snapshot `json:"snapshot"`
	Photo     *PhotoInfo        `json:"photo,omitempty"`
}

// PhotoInfo describes a stored proof photo.
type PhotoInfo struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Bytes      int       `json:"bytes"`
	CapturedAt time.Time `json:"captured_at"`
}

type record struct {
	id        string
	createdAt time.Time
	endedAt   time.Time
	facing    camera.Facing
	ctrl      *liveness.Controller
	sink      notify.Sink
	photo     camera.Image
	thumb     camera.Image
}

// Config holds manager configuration.
type Config struct {
	Camera    camera.Device
	Verifier  liveness.FrameVerifier // optional
	Publisher notify.Publisher       // optional, receives session-tagged notifications
	OnUpdate  func(liveness.Update)  // optional, must not block
	OnEnd     func(Info)             // optional, after capture, cancel or failure
	Clock     clock.Clock
	Random    liveness.RandomSource // optional
	Logger    *slog.Logger

	MaxSessions   int // ended sessions beyond this are evicted, oldest first
	ThumbnailSide int
	Quality       int
	Watermark     bool
}

// DefaultConfig returns sensible defaults. Camera must still be set.
func DefaultConfig() Config {
	return Config{
		Clock:         clock.Real(),
		Logger:        slog.Default(),
		MaxSessions:   100,
		ThumbnailSide: 160,
		Quality:       photo.DefaultQuality,
		Watermark:     true,
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Camera == nil {
		return errors.New("session: camera required")
	}
	if c.Clock == nil {
		return errors.New("session: clock required")
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("session: max sessions must be positive, got %d", c.MaxSessions)
	}
	if c.ThumbnailSide < 16 {
		return fmt.Errorf("session: thumbnail side must be at least 16, got %d", c.ThumbnailSide)
	}
	return nil
}

// Manager owns every capture session it creates.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]*record
	closed  bool
}

// NewManager creates a session manager.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "session"),
		records: make(map[string]*record),
	}, nil
}

// Create starts a new capture session and returns its initial view.
func (m *Manager) Create(ctx context.Context, facing camera.Facing) (Info, error) {
	if facing == "" {
		facing = camera.FacingFront
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Info{}, ErrClosed
	}
	m.mu.Unlock()

	id := uuid.New().String()
	rec := &record{
		id:        id,
		createdAt: m.cfg.Clock.Now(),
		facing:    facing,
	}

	sinks := notify.Multi{notify.NewLogSink(m.logger.With("session", id))}
	if m.cfg.Publisher != nil {
		sinks = append(sinks, notify.ForSession(id, m.cfg.Publisher))
	}

	opts := []liveness.Option{
		liveness.WithSession(id),
		liveness.WithClock(m.cfg.Clock),
		liveness.WithFacing(facing),
		liveness.WithLogger(m.cfg.Logger),
	}
	if m.cfg.Random != nil {
		opts = append(opts, liveness.WithRandom(m.cfg.Random))
	}
	if m.cfg.Verifier != nil {
		opts = append(opts, liveness.WithVerifier(m.cfg.Verifier))
	}
	if m.cfg.OnUpdate != nil {
		opts = append(opts, liveness.WithObserver(m.cfg.OnUpdate))
	}

	ctrl, err := liveness.New(m.cfg.Camera, sinks,
		func(img camera.Image) { m.store(rec, img) },
		func() { m.end(rec) },
		opts...,
	)
	if err != nil {
		return Info{}, err
	}
	rec.ctrl = ctrl
	rec.sink = sinks

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		ctrl.Dispose()
		return Info{}, ErrClosed
	}
	m.records[id] = rec
	m.evictLocked()
	m.mu.Unlock()

	if err := ctrl.Start(ctx); err != nil {
		return Info{}, err
	}

	m.logger.Info("capture session created", "session", id, "challenge", ctrl.Challenge().Kind)
	return m.Get(id)
}

// store post-processes and keeps the captured photo.
func (m *Manager) store(rec *record, img camera.Image) {
	stamped := img
	if m.cfg.Watermark {
		out, err := photo.Watermark(img, photo.Stamp{
			Time:  img.CapturedAt,
			Label: string(rec.ctrl.Challenge().Kind),
		}, m.cfg.Quality)
		if err != nil {
			m.logger.Warn("watermark failed, keeping original", "session", rec.id, "error", err)
		} else {
			stamped = out
		}
	}

	thumb, err := photo.Thumbnail(stamped, m.cfg.ThumbnailSide, m.cfg.Quality)
	if err != nil {
		m.logger.Warn("thumbnail failed", "session", rec.id, "error", err)
	}

	m.mu.Lock()
	rec.photo = stamped
	rec.thumb = thumb
	rec.endedAt = m.cfg.Clock.Now()
	m.mu.Unlock()

	rec.sink.Notify(MsgPhotoSaved, notify.SeveritySuccess)
	m.ended(rec)
}

func (m *Manager) end(rec *record) {
	m.mu.Lock()
	rec.endedAt = m.cfg.Clock.Now()
	m.mu.Unlock()
	m.ended(rec)
}

func (m *Manager) ended(rec *record) {
	info := m.info(rec)
	m.logger.Info("capture session ended", "session", rec.id, "outcome", info.Snapshot.Outcome)
	if m.cfg.OnEnd != nil {
		m.cfg.OnEnd(info)
	}
}

// Get returns the current view of a session.
func (m *Manager) Get(id string) (Info, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return Info{}, ErrNotFound
	}
	return m.info(rec), nil
}

// List returns every session, newest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	recs := make([]*record, 0, len(m.records))
	for _, rec := range m.records {
		recs = append(recs, rec)
	}
	m.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].createdAt.After(recs[j].createdAt)
	})

	out := make([]Info, len(recs))
	for i, rec := range recs {
		out[i] = m.info(rec)
	}
	return out
}

// Cancel aborts a session, as the user's Cancel button does.
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	rec.ctrl.Cancel()
	return nil
}

// Wait blocks until the session ends or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Info, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return Info{}, ErrNotFound
	}
	if _, err := rec.ctrl.Wait(ctx); err != nil {
		return Info{}, err
	}
	return m.info(rec), nil
}

// Photo returns the stored (watermarked) photo.
func (m *Manager) Photo(id string) (camera.Image, error) {
	return m.image(id, func(r *record) camera.Image { return r.photo })
}

// Thumbnail returns the stored thumbnail.
func (m *Manager) Thumbnail(id string) (camera.Image, error) {
	return m.image(id, func(r *record) camera.Image { return r.thumb })
}

func (m *Manager) image(id string, pick func(*record) camera.Image) (camera.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return camera.Image{}, ErrNotFound
	}
	img := pick(rec)
	if img.Empty() {
		return camera.Image{}, ErrNoPhoto
	}
	return img, nil
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close disposes every running session. Further Create calls fail.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	ctrls := make([]*liveness.Controller, 0, len(m.records))
	for _, rec := range m.records {
		ctrls = append(ctrls, rec.ctrl)
	}
	m.mu.Unlock()

	for _, c := range ctrls {
		c.Dispose()
	}
	m.logger.Info("session manager closed", "sessions", len(ctrls))
}

func (m *Manager) info(rec *record) Info {
	snap := rec.ctrl.Snapshot()

	m.mu.RLock()
	defer m.mu.RUnlock()

	info := Info{
		ID:        rec.id,
		CreatedAt: rec.createdAt,
		Facing:    rec.facing,
		Snapshot:  snap,
	}
	if !rec.endedAt.IsZero() {
		t := rec.endedAt
		info.EndedAt = &t
	}
	if !rec.photo.Empty() {
		info.Photo = &PhotoInfo{
			Width:      rec.photo.Width,
			Height:     rec.photo.Height,
			Bytes:      len(rec.photo.Data),
			CapturedAt: rec.photo.CapturedAt,
		}
	}
	return info
}

// evictLocked drops the oldest ended sessions beyond MaxSessions.
func (m *Manager) evictLocked() {
	if len(m.records) <= m.cfg.MaxSessions {
		return
	}
	var ended []*record
	for _, rec := range m.records {
		if !rec.endedAt.IsZero() {
			ended = append(ended, rec)
		}
	}
	sort.Slice(ended, func(i, j int) bool {
		return ended[i].createdAt.Before(ended[j].createdAt)
	})
	for _, rec := range ended {
		if len(m.records) <= m.cfg.MaxSessions {
			return
		}
		delete(m.records, rec.id)
		m.logger.Debug("evicted session", "session", rec.id)
	}
}
