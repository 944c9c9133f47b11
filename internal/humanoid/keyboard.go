package humanoid

import (
	"context"
	"fmt"
	"unicode"

	"go.uber.org/zap"
)

// typoPauseMs is how long a typist stares at a wrong key before deleting it.
const typoPauseMs = 120.0

// keyboardNeighbors maps characters to their adjacent keys on a QWERTY layout.
var keyboardNeighbors = map[rune]string{
	'1': "2q", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol0",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiolm", 'l': "kop",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk",
}

// TypeHuman types text one rune at a time at roughly wpm words per minute.
// Each alphanumeric rune has an errorRate chance of being preceded by a
// neighbouring wrong key that is deleted again before the intended rune is sent,
// so the field always ends up holding exactly text.
func (h *Humanoid) TypeHuman(ctx context.Context, selector, text string, wpm, errorRate float64) error {
	if wpm <= 0 {
		return fmt.Errorf("humanoid: typing speed must be positive, got %v wpm", wpm)
	}
	cps := wpm / 60 * 5
	keyMeanMs := 1000 / cps

	for _, r := range text {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if isTypoCandidate(r) && errorRate > 0 && h.Uniform(0, 1) < errorRate {
			wrong := h.neighborOf(r)
			h.logger.Debug("Injecting typo.", zap.String("intended", string(r)), zap.String("typed", string(wrong)))

			if err := h.executor.SendKeys(ctx, selector, string(wrong)); err != nil {
				return fmt.Errorf("humanoid: failed to send typo for %q: %w", r, err)
			}
			if err := h.sleepMs(ctx, h.LogNormalSample(keyMeanMs, 0)); err != nil {
				return err
			}
			if err := h.WaitHuman(ctx, typoPauseMs); err != nil {
				return err
			}
			if err := h.executor.SendKeys(ctx, selector, string(KeyBackspace)); err != nil {
				return fmt.Errorf("humanoid: failed to correct typo for %q: %w", r, err)
			}
		}

		if err := h.executor.SendKeys(ctx, selector, string(r)); err != nil {
			return fmt.Errorf("humanoid: failed to send key %q: %w", r, err)
		}
		if err := h.sleepMs(ctx, h.LogNormalSample(keyMeanMs, 0)); err != nil {
			return err
		}
	}
	return nil
}

// PressKey sends a single control key to the focused element.
func (h *Humanoid) PressKey(ctx context.Context, key ControlKey) error {
	if err := h.executor.SendKeys(ctx, "", string(key)); err != nil {
		return fmt.Errorf("humanoid: failed to press key %q: %w", string(key), err)
	}
	return h.pause(ctx, 60, 180)
}

func isTypoCandidate(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// neighborOf picks a wrong rune adjacent to r, preserving case. The result is
// never equal to r.
func (h *Humanoid) neighborOf(r rune) rune {
	lower := unicode.ToLower(r)
	neighbors, ok := keyboardNeighbors[lower]
	if !ok || neighbors == "" {
		if lower == 'x' {
			return 'z'
		}
		return 'x'
	}

	candidates := []rune(neighbors)
	h.mu.Lock()
	wrong := candidates[h.rng.Intn(len(candidates))]
	h.mu.Unlock()

	if unicode.IsUpper(r) {
		wrong = unicode.ToUpper(wrong)
	}
	return wrong
}
