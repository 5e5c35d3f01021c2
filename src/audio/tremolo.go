package audio

import (
	"math"
)

// ----- Tremolo ----- //

// tremolo is a sine-modulated gain with a smoothed response, after the lag
// of an LED/LDR optocoupler circuit (~8 ms).
type tremolo struct {
	rate  float64 // Hz
	depth float64

	phase    float64
	phaseInc float64

	currentMod     float64
	smoothingCoeff float64
}

func newTremolo() *tremolo {
	t := &tremolo{
		rate:       5.0,
		depth:      0.5,
		currentMod: 1.0,
	}
	const smoothingTimeMs = 8.0
	t.smoothingCoeff = math.Exp(-1.0 / (smoothingTimeMs * 0.001 * sampleRate))
	t.updatePhaseInc()
	return t
}

func (t *tremolo) setRate(rateHz float64) {
	t.rate = math.Max(0.5, math.Min(10, rateHz))
	t.updatePhaseInc()
}

func (t *tremolo) setDepth(depth float64) {
	t.depth = math.Max(0, math.Min(1, depth))
}

func (t *tremolo) updatePhaseInc() {
	t.phaseInc = t.rate / sampleRate
}

func (t *tremolo) nextMod() float64 {
	lfoValue := math.Sin(t.phase * 2 * math.Pi)
	// at full depth the gain bottoms out around 30% of the input
	modRange := t.depth * 0.70
	targetMod := 1.0 - modRange*0.5*(1.0-lfoValue)
	t.currentMod = t.currentMod*t.smoothingCoeff + targetMod*(1.0-t.smoothingCoeff)

	t.phase += t.phaseInc
	if t.phase >= 1.0 {
		t.phase -= 1.0
	}
	return t.currentMod
}

func (t *tremolo) processMono(input float64) float64 {
	if t.depth < 0.001 {
		return input
	}
	return input * t.nextMod()
}

func (t *tremolo) process(left, right float64) (float64, float64) {
	if t.depth < 0.001 {
		return left, right
	}
	mod := t.nextMod()
	return left * mod, right * mod
}
