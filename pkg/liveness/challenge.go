package liveness

import "math/rand/v2"

// ChallengeKind identifies the action the user is asked to perform.
type ChallengeKind string

const (
	ChallengeBlink ChallengeKind = "BLINK"
	ChallengeSmile ChallengeKind = "SMILE"
)

// Challenge is the prompt chosen for one capture session.
type Challenge struct {
	Kind        ChallengeKind `json:"kind"`
	Instruction string        `json:"instruction"`
}

var catalog = [...]Challenge{
	{Kind: ChallengeBlink, Instruction: "Blink Both Eyes"},
	{Kind: ChallengeSmile, Instruction: "Smile for the Camera"},
}

// Catalog returns the available challenges in selection order.
func Catalog() []Challenge {
	out := make([]Challenge, len(catalog))
	copy(out, catalog[:])
	return out
}

// ChallengeFor returns the catalog entry for kind.
func ChallengeFor(kind ChallengeKind) (Challenge, bool) {
	for _, c := range catalog {
		if c.Kind == kind {
			return c, true
		}
	}
	return Challenge{}, false
}

// RandomSource picks an index in [0, n). *rand.Rand from math/rand/v2
// satisfies it, so tests can pass a seeded generator.
type RandomSource interface {
	IntN(n int) int
}

// PickChallenge selects a challenge uniformly from the catalog.
func PickChallenge(r RandomSource) Challenge {
	return catalog[r.IntN(len(catalog))]
}

// NewSeededRandom returns a deterministic source.
func NewSeededRandom(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// FixedRandom always returns the same index (clamped to n).
type FixedRandom int

// IntN implements RandomSource.
func (f FixedRandom) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	if f < 0 {
		return 0
	}
	return int(f)
}

// Always returns a source that selects the given challenge kind.
func Always(kind ChallengeKind) RandomSource {
	for i, c := range catalog {
		if c.Kind == kind {
			return FixedRandom(i)
		}
	}
	return FixedRandom(0)
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }
