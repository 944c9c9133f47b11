// File: internal/humanoid/noise.go
package humanoid

import (
	"math"
	"math/rand"
)

// PinkNoiseGenerator produces 1/f noise with the stochastic Voss-McCartney
// algorithm. Successive samples are correlated, which reads like the slow
// drift of a hand rather than white jitter.
type PinkNoiseGenerator struct {
	rng    *rand.Rand
	values []float64 // current value of each source
	p      []float64 // update probability of each source
	pink   float64   // running sum of the sources
	scale  float64
}

// NewPinkNoiseGenerator creates a generator with n sources (12 when n <= 0).
// The generator shares rng and is not safe for concurrent use.
func NewPinkNoiseGenerator(rng *rand.Rand, n int) *PinkNoiseGenerator {
	if n <= 0 {
		n = 12
	}
	g := &PinkNoiseGenerator{
		rng:    rng,
		values: make([]float64, n),
		p:      make([]float64, n),
		scale:  1.0 / math.Sqrt(float64(n)),
	}

	// Geometric update probabilities: low sources change rarely.
	total := 0.0
	for i := range g.p {
		g.p[i] = math.Pow(2, float64(-i))
		total += g.p[i]
	}
	for i := range g.p {
		g.p[i] /= total
	}

	for i := range g.values {
		g.values[i] = g.white()
		g.pink += g.values[i]
	}
	return g
}

func (g *PinkNoiseGenerator) white() float64 {
	return g.rng.Float64()*2.0 - 1.0
}

// Next returns the next sample. Its magnitude never exceeds sqrt(n).
func (g *PinkNoiseGenerator) Next() float64 {
	r := g.rng.Float64()
	idx := len(g.p) - 1
	cumulative := 0.0
	for i, p := range g.p {
		cumulative += p
		if r < cumulative {
			idx = i
			break
		}
	}

	old := g.values[idx]
	g.values[idx] = g.white()
	g.pink += g.values[idx] - old
	return g.pink * g.scale
}
