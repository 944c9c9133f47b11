package humanoid

import "math"

// minReactionMs floors every log-normal draw.
const minReactionMs = 8.0

// Uniform returns a value in [min, max). Equal bounds return min.
func (h *Humanoid) Uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	h.mu.Lock()
	u := h.rng.Float64()
	h.mu.Unlock()
	return min + u*(max-min)
}

// LogNormalSample draws a reaction time in milliseconds whose median sits
// near meanMs·exp(-sigma²/2) and whose mean is meanMs. sigma <= 0 uses the
// configured shape.
func (h *Humanoid) LogNormalSample(meanMs, sigma float64) float64 {
	if sigma <= 0 {
		sigma = h.cfg.Sigma
	}
	if meanMs <= 0 {
		return minReactionMs
	}
	mu := math.Log(meanMs) - sigma*sigma/2

	h.mu.Lock()
	// Float64 is [0,1); flipping it keeps ln(u) finite.
	u := 1 - h.rng.Float64()
	v := h.rng.Float64()
	h.mu.Unlock()

	z := math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
	return math.Max(minReactionMs, math.Exp(mu+sigma*z))
}
