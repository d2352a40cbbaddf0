// liveness-demo runs one liveness capture session in the terminal and
// writes the proof photo to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-liveness/internal/config"
	"github.com/teslashibe/go-liveness/internal/devices"
	"github.com/teslashibe/go-liveness/internal/log"
	"github.com/teslashibe/go-liveness/pkg/camera"
	"github.com/teslashibe/go-liveness/pkg/debug"
	"github.com/teslashibe/go-liveness/pkg/liveness"
	"github.com/teslashibe/go-liveness/pkg/notify"
	"github.com/teslashibe/go-liveness/pkg/photo"
)

var indicatorIcons = map[liveness.Indicator]string{
	liveness.IndicatorNeutral:  "⚪",
	liveness.IndicatorPositive: "🟢",
	liveness.IndicatorCaution:  "🟡",
	liveness.IndicatorActive:   "🟣",
}

func main() {
	env, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	backend := flag.String("camera", env.CameraBackend, "Camera backend: mock, webcam")
	facing := flag.String("facing", string(camera.FacingFront), "Camera facing: front, rear")
	model := flag.String("face-model", env.FaceModelPath, "YuNet ONNX model for face checks (empty disables)")
	out := flag.String("out", "liveness.jpg", "Where to write the proof photo")
	cancelAfter := flag.Duration("cancel-after", 0, "Cancel the session after this long (0 = never)")
	seed := flag.Uint64("seed", 0, "Challenge seed (0 = random)")
	level := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.BoolVar(&debug.Timeline, "debug-timeline", false, "Print every liveness timeline step")
	flag.Parse()

	log.Init(*level)
	env.CameraBackend = *backend

	devs, err := devices.Open(devices.CameraConfig(env), *model, log.L())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Camera setup failed: %v\n", err)
		os.Exit(1)
	}
	defer devs.Close()

	var captured camera.Image
	start := time.Now()

	opts := []liveness.Option{
		liveness.WithSession("demo"),
		liveness.WithFacing(camera.Facing(*facing)),
		liveness.WithLogger(log.L()),
		liveness.WithObserver(func(u liveness.Update) {
			fmt.Printf("%s %6.1fs  %-13s %s\n",
				indicatorIcons[u.Indicator], time.Since(start).Seconds(), u.State, u.Message)
		}),
	}
	if *seed != 0 {
		opts = append(opts, liveness.WithRandom(liveness.NewSeededRandom(*seed)))
	}
	if devs.Verifier != nil {
		opts = append(opts, liveness.WithVerifier(devs.Verifier))
	}

	sink := notify.Multi{
		notify.NewLogSink(log.L()),
		notify.SinkFunc(func(message string, severity notify.Severity) {
			fmt.Printf("🔔 [%s] %s\n", severity, message)
		}),
	}

	ctrl, err := liveness.New(devs.Camera, sink,
		func(img camera.Image) { captured = img },
		func() { fmt.Println("✖️  Session cancelled") },
		opts...,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ch := ctrl.Challenge()
	fmt.Printf("🎯 Challenge: %s (%s)\n", ch.Instruction, ch.Kind)

	if err := ctrl.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if *cancelAfter > 0 {
		time.AfterFunc(*cancelAfter, ctrl.Cancel)
	}

	select {
	case <-ctrl.Done():
	case <-ctx.Done():
		ctrl.Cancel()
		<-ctrl.Done()
	}

	switch ctrl.Outcome() {
	case liveness.OutcomeCaptured:
		stamped, err := photo.Watermark(captured, photo.Stamp{Time: captured.CapturedAt, Label: string(ch.Kind)}, photo.DefaultQuality)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Watermark failed, saving original: %v\n", err)
			stamped = captured
		}
		if err := os.WriteFile(*out, stamped.Data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Write photo: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("📸 Saved %dx%d photo to %s (%d bytes)\n", stamped.Width, stamped.Height, *out, len(stamped.Data))
	case liveness.OutcomeFailed:
		fmt.Fprintf(os.Stderr, "❌ Session failed: %v\n", ctrl.Err())
		os.Exit(1)
	}
}
