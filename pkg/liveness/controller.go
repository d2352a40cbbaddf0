package liveness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-liveness/pkg/camera"
	"github.com/teslashibe/go-liveness/pkg/debug"
	"github.com/teslashibe/go-liveness/pkg/notify"
)

// Controller runs one liveness capture session.
type Controller struct {
	cam       camera.Device
	sink      notify.Sink
	onCapture func(camera.Image)
	onCancel  func()
	cfg       Config
	logger    *slog.Logger

	// session is cancelled when the session ends; timeline scopes and
	// acquisition derive from it.
	session context.Context
	stop    context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex
	started   bool
	state     State
	message   string
	indicator Indicator
	challenge Challenge
	outcome   Outcome
	err       error
	stream    camera.Stream
	timeline  *scope
	readyAt   time.Time
	image     camera.Image
}

// New creates a controller. The challenge is picked here and stays fixed
// for the session. onCapture and onCancel may be nil.
func New(cam camera.Device, sink notify.Sink, onCapture func(camera.Image), onCancel func(), opts ...Option) (*Controller, error) {
	if cam == nil {
		return nil, ErrNoCamera
	}

	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if sink == nil {
		sink = notify.NewLogSink(cfg.Logger)
	}

	logger := cfg.Logger.With("component", "liveness")
	if cfg.Session != "" {
		logger = logger.With("session", cfg.Session)
	}

	session, stop := context.WithCancel(context.Background())

	return &Controller{
		cam:       cam,
		sink:      sink,
		onCapture: onCapture,
		onCancel:  onCancel,
		cfg:       *cfg,
		logger:    logger,
		session:   session,
		stop:      stop,
		done:      make(chan struct{}),
		state:     StateInitializing,
		message:   MsgInitializing,
		indicator: IndicatorNeutral,
		challenge: PickChallenge(cfg.Random),
		outcome:   OutcomePending,
	}, nil
}

// Start begins camera acquisition and returns immediately. ctx bounds the
// acquisition only; the session itself ends through Cancel, Dispose or its
// own completion.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.outcome != OutcomePending {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true

	c.logger.Info("liveness session started",
		"challenge", c.challenge.Kind,
		"facing", c.cfg.Facing,
	)
	c.emitLocked()

	var (
		acquireCtx context.Context
		cancel     context.CancelFunc
	)
	if c.cfg.AcquireTimeout > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, c.cfg.AcquireTimeout)
	} else {
		acquireCtx, cancel = context.WithCancel(ctx)
	}
	unwatch := context.AfterFunc(c.session, cancel)
	c.mu.Unlock()

	go func() {
		defer unwatch()
		defer cancel()
		c.acquire(acquireCtx)
	}()

	return nil
}

func (c *Controller) acquire(ctx context.Context) {
	s, err := c.cam.Acquire(ctx, c.cfg.Facing)

	c.mu.Lock()
	if c.outcome != OutcomePending {
		// Cancelled or disposed while the camera was opening.
		c.mu.Unlock()
		if err == nil {
			c.cam.Release(s)
			c.logger.Debug("released stream acquired after session end")
		}
		return
	}

	if err != nil {
		c.logger.Warn("camera acquisition failed", "error", err)
		after := c.failLocked(MsgCameraRequired, MsgCameraFailed, fmt.Errorf("%w: %w", ErrCameraAcquisition, err))
		c.mu.Unlock()
		after()
		return
	}

	c.stream = s
	c.enterReadyLocked()
	c.mu.Unlock()
}

// enterReadyLocked starts the scripted timeline.
func (c *Controller) enterReadyLocked() {
	if !c.transitionLocked(StateReady) {
		return
	}
	c.timeline = newScope(c.session, c.cfg.Clock)
	c.readyAt = c.cfg.Clock.Now()

	// Arm every timer before the t=0 update is observed.
	script := Script(c.challenge)
	for _, step := range script {
		if step.At > 0 {
			c.scheduleStepLocked(c.timeline, step)
		}
	}
	c.schedule(c.timeline, CaptureAt, c.enterCapturingLocked)
	for _, step := range script {
		if step.At == 0 {
			c.scheduleStepLocked(c.timeline, step)
		}
	}
}

// scheduleStepLocked applies a step now if its offset is zero, otherwise
// schedules it. Nested steps are scheduled when their parent fires.
func (c *Controller) scheduleStepLocked(sc *scope, step Step) {
	apply := func() func() {
		c.message, c.indicator = step.Message, step.Indicator
		debug.TimelineLog("⏱️  [%s] +%v %s\n", c.cfg.Session, sc.elapsed(), step.Message)
		c.emitLocked()
		for _, next := range step.Then {
			c.scheduleStepLocked(sc, next)
		}
		return nil
	}

	if step.At == 0 {
		apply()
		return
	}
	c.schedule(sc, step.At, apply)
}

func (c *Controller) enterCapturingLocked() func() {
	c.closeTimelineLocked()
	if !c.transitionLocked(StateCapturing) {
		return nil
	}
	c.message, c.indicator = MsgCapturing, IndicatorActive
	c.emitLocked()

	c.timeline = newScope(c.session, c.cfg.Clock)
	c.schedule(c.timeline, c.cfg.CaptureDelay, c.captureLocked)
	return nil
}

func (c *Controller) captureLocked() func() {
	img, err := c.cam.GrabFrame(c.stream)
	if err == nil && img.Empty() {
		err = camera.ErrEmptyFrame
	}
	if err != nil {
		c.logger.Warn("frame grab failed", "error", err)
		return c.failLocked(MsgGrabFailed, MsgCaptureFailed, fmt.Errorf("%w: %w", ErrFrameGrab, err))
	}

	if c.cfg.Verifier != nil {
		if err := c.cfg.Verifier.Verify(img); err != nil {
			c.logger.Info("captured frame rejected", "error", err)
			return c.failLocked(MsgNoFace, MsgCaptureFailed, fmt.Errorf("%w: %w", ErrFaceCheck, err))
		}
	}

	c.closeTimelineLocked()
	c.releaseLocked()
	c.image = img
	c.outcome = OutcomeCaptured
	c.stop()

	c.logger.Info("liveness capture complete",
		"bytes", len(img.Data),
		"width", img.Width,
		"height", img.Height,
	)

	onCapture := c.onCapture
	return func() {
		if onCapture != nil {
			onCapture(img)
		}
		close(c.done)
	}
}

// failLocked notifies the user, releases the stream and ends the session
// in ERROR. The returned func fires onCancel and must run unlocked.
func (c *Controller) failLocked(notice, status string, err error) func() {
	c.sink.Notify(notice, notify.SeverityError)

	c.closeTimelineLocked()
	c.releaseLocked()
	c.err = &SessionError{Session: c.cfg.Session, State: c.state, Err: err}
	if c.transitionLocked(StateError) {
		c.message, c.indicator = status, IndicatorNeutral
		c.emitLocked()
	}
	c.outcome = OutcomeFailed
	c.stop()

	return c.cancelCallback()
}

// Cancel aborts the session. The stream is released before onCancel runs.
// Calling Cancel after the session ended is a no-op.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.outcome != OutcomePending {
		c.mu.Unlock()
		return
	}
	c.closeTimelineLocked()
	c.releaseLocked()
	c.outcome = OutcomeCancelled
	c.stop()
	c.logger.Info("liveness session cancelled", "state", c.state)
	after := c.cancelCallback()
	c.mu.Unlock()

	after()
}

// Dispose tears the session down without firing any callback.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.outcome != OutcomePending {
		c.mu.Unlock()
		return
	}
	c.closeTimelineLocked()
	c.releaseLocked()
	c.outcome = OutcomeDisposed
	c.stop()
	c.logger.Debug("liveness session disposed", "state", c.state)
	c.mu.Unlock()

	close(c.done)
}

func (c *Controller) cancelCallback() func() {
	onCancel := c.onCancel
	return func() {
		if onCancel != nil {
			onCancel()
		}
		close(c.done)
	}
}

// schedule runs step on the clock unless sc is closed by then. step runs
// with the lock held; the func it returns runs after unlocking.
func (c *Controller) schedule(sc *scope, d time.Duration, step func() func()) {
	sc.after(d, func() {
		c.mu.Lock()
		if sc.closed() {
			c.mu.Unlock()
			return
		}
		after := step()
		c.mu.Unlock()
		if after != nil {
			after()
		}
	})
}

func (c *Controller) closeTimelineLocked() {
	if c.timeline != nil {
		c.timeline.close()
		c.timeline = nil
	}
}

func (c *Controller) releaseLocked() {
	if c.stream == nil {
		return
	}
	c.cam.Release(c.stream)
	c.stream = nil
}

func (c *Controller) transitionLocked(to State) bool {
	if !isAllowedTransition(c.state, to) {
		c.logger.Error("disallowed liveness transition", "from", c.state, "to", to)
		return false
	}
	c.logger.Debug("liveness transition", "from", c.state, "to", to)
	c.state = to
	return true
}

func (c *Controller) emitLocked() {
	if c.cfg.Observer == nil {
		return
	}
	u := Update{
		Session:   c.cfg.Session,
		State:     c.state,
		Message:   c.message,
		Indicator: c.indicator,
		Challenge: c.challenge,
		Time:      c.cfg.Clock.Now(),
	}
	if !c.readyAt.IsZero() {
		u.Elapsed = u.Time.Sub(c.readyAt)
	}
	c.cfg.Observer(u)
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Session:    c.cfg.Session,
		State:      c.state,
		Message:    c.message,
		Indicator:  c.indicator,
		Challenge:  c.challenge,
		Outcome:    c.outcome,
		StreamOpen: c.stream != nil,
	}
	if c.err != nil {
		s.Error = c.err.Error()
	}
	return s
}

// Challenge returns the session's challenge.
func (c *Controller) Challenge() Challenge {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.challenge
}

// Outcome returns how the session ended, or OutcomePending.
func (c *Controller) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Err returns the failure that ended the session, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Image returns the captured frame once the outcome is OutcomeCaptured.
func (c *Controller) Image() (camera.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image, c.outcome == OutcomeCaptured
}

// Done is closed after the session ends and its callback has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the session ends or ctx is done.
func (c *Controller) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.done:
		return c.Outcome(), nil
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}
