package liveness

import (
	"testing"
	"time"
)

func TestCatalog(t *testing.T) {
	cat := Catalog()
	if len(cat) != 2 {
		t.Fatalf("expected 2 challenges, got %d", len(cat))
	}
	cat[0].Instruction = "mutated"
	if Catalog()[0].Instruction == "mutated" {
		t.Error("Catalog must return a copy")
	}

	ch, ok := ChallengeFor(ChallengeSmile)
	if !ok || ch.Instruction != "Smile for the Camera" {
		t.Errorf("unexpected smile challenge %+v", ch)
	}
	if _, ok := ChallengeFor("WINK"); ok {
		t.Error("expected unknown kind to be missing")
	}
}

func TestPickChallenge_Seeded(t *testing.T) {
	a := NewSeededRandom(42)
	b := NewSeededRandom(42)
	for i := 0; i < 20; i++ {
		if PickChallenge(a) != PickChallenge(b) {
			t.Fatal("same seed must produce the same sequence")
		}
	}
}

func TestPickChallenge_Uniform(t *testing.T) {
	r := NewSeededRandom(7)
	counts := map[ChallengeKind]int{}
	for i := 0; i < 2000; i++ {
		counts[PickChallenge(r).Kind]++
	}
	for _, kind := range []ChallengeKind{ChallengeBlink, ChallengeSmile} {
		if counts[kind] < 800 || counts[kind] > 1200 {
			t.Errorf("%s picked %d/2000 times, expected roughly half", kind, counts[kind])
		}
	}
}

func TestAlways(t *testing.T) {
	for _, kind := range []ChallengeKind{ChallengeBlink, ChallengeSmile} {
		if got := PickChallenge(Always(kind)).Kind; got != kind {
			t.Errorf("Always(%s) picked %s", kind, got)
		}
	}
	if FixedRandom(9).IntN(2) != 1 || FixedRandom(-3).IntN(2) != 0 {
		t.Error("FixedRandom must clamp into range")
	}
}

func TestScript(t *testing.T) {
	blink, _ := ChallengeFor(ChallengeBlink)
	smile, _ := ChallengeFor(ChallengeSmile)

	if n := StepCount(Script(blink)); n != 4 {
		t.Errorf("expected 4 blink steps, got %d", n)
	}
	if n := StepCount(Script(smile)); n != 5 {
		t.Errorf("expected 5 smile steps, got %d", n)
	}

	steps := Script(smile)
	want := []time.Duration{0, 2500 * time.Millisecond, 4500 * time.Millisecond, 6500 * time.Millisecond}
	for i, s := range steps {
		if s.At != want[i] {
			t.Errorf("step %d at %v, want %v", i, s.At, want[i])
		}
	}
	if steps[2].Message != "Get ready: Smile for the Camera" {
		t.Errorf("unexpected get-ready message %q", steps[2].Message)
	}
	nested := steps[3].Then
	if len(nested) != 1 || steps[3].At+nested[0].At != 8000*time.Millisecond {
		t.Error("expected hold-smile step at 8000ms")
	}
	if CaptureAt != 8500*time.Millisecond {
		t.Errorf("capture must start at 8500ms, got %v", CaptureAt)
	}
}

func TestIsAllowedTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateInitializing, StateReady, true},
		{StateInitializing, StateError, true},
		{StateInitializing, StateCapturing, false},
		{StateReady, StateCapturing, true},
		{StateReady, StateInitializing, false},
		{StateCapturing, StateError, true},
		{StateCapturing, StateReady, false},
		{StateError, StateReady, false},
	}
	for _, tc := range tests {
		if got := isAllowedTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
	if !StateError.IsTerminal() || StateReady.IsTerminal() {
		t.Error("only ERROR is terminal")
	}
}
