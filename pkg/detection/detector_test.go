package detection

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-liveness/pkg/camera"
)

func TestDetection_Center(t *testing.T) {
	tests := []struct {
		name    string
		det     Detection
		expectX float64
		expectY float64
	}{
		{"center of image", Detection{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}, 0.5, 0.5},
		{"top left corner", Detection{X: 0, Y: 0, W: 0.2, H: 0.2}, 0.1, 0.1},
		{"bottom right corner", Detection{X: 0.8, Y: 0.8, W: 0.2, H: 0.2}, 0.9, 0.9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := tc.det.Center()
			if x != tc.expectX {
				t.Errorf("Center X: got %.2f, want %.2f", x, tc.expectX)
			}
			if y != tc.expectY {
				t.Errorf("Center Y: got %.2f, want %.2f", y, tc.expectY)
			}
		})
	}
}

func TestSelectBest(t *testing.T) {
	if SelectBest(nil) != nil {
		t.Error("expected nil for no detections")
	}

	dets := []Detection{
		{X: 0.1, Y: 0.1, W: 0.1, H: 0.1, Confidence: 0.95}, // small, confident
		{X: 0.3, Y: 0.3, W: 0.4, H: 0.4, Confidence: 0.90}, // large, slightly less confident
	}
	best := SelectBest(dets)
	if best == nil || best.W != 0.4 {
		t.Errorf("expected the large face to win, got %+v", best)
	}
}

func fakeDetector(dets ...Detection) Detector {
	return DetectorFunc(func([]byte) ([]Detection, error) { return dets, nil })
}

func TestFacePresence(t *testing.T) {
	frame := camera.Image{Data: []byte{0xff, 0xd8}}

	tests := []struct {
		name    string
		dets    []Detection
		wantErr error
	}{
		{"centered face", []Detection{{X: 0.3, Y: 0.25, W: 0.4, H: 0.5, Confidence: 0.9}}, nil},
		{"no detections", nil, ErrNoFace},
		{"low confidence only", []Detection{{X: 0.3, Y: 0.3, W: 0.4, H: 0.4, Confidence: 0.2}}, ErrNoFace},
		{"too small", []Detection{{X: 0.45, Y: 0.45, W: 0.1, H: 0.1, Confidence: 0.9}}, ErrFaceTooSmall},
		{"off center", []Detection{{X: 0.0, Y: 0.0, W: 0.2, H: 0.2, Confidence: 0.9}}, ErrFaceOffCenter},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewFacePresence(fakeDetector(tc.dets...))
			err := v.Verify(frame)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFacePresence_EmptyFrame(t *testing.T) {
	v := NewFacePresence(fakeDetector())
	if err := v.Verify(camera.Image{}); !errors.Is(err, camera.ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestFacePresence_DetectorError(t *testing.T) {
	boom := errors.New("inference failed")
	v := NewFacePresence(DetectorFunc(func([]byte) ([]Detection, error) { return nil, boom }))

	if err := v.Verify(camera.Image{Data: []byte{1}}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped detector error, got %v", err)
	}
}
