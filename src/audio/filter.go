package audio

import (
	"math"
)

// ----- Filter ----- //

// filter is a resonant biquad low-pass (RBJ cookbook coefficients) followed
// by a one-pole high-pass. Resonance maps to Q piecewise: 0.707..15 over the
// first 95% of the range, then ramping to 50 over the last 5% so the filter
// can self-oscillate. The effective cutoff is smoothed toward its target and
// optionally key-tracked against the sounding note.
type filter struct {
	cutoff       float64
	targetCutoff float64
	resonance    float64
	smoothing    float64

	// biquad coefficients (normalized, direct form I)
	a0, a1, a2 float64
	b1, b2     float64

	// biquad state
	x1, x2 float64
	y1, y2 float64

	// one-pole high-pass
	hpfCutoff float64
	hpfCoeff  float64
	hpfState  float64

	bassBoost float64

	keyTracking float64
	noteFreq    float64
}

func newFilter() *filter {
	f := &filter{
		cutoff:       10000,
		targetCutoff: 10000,
		smoothing:    0.001,
		bassBoost:    1.2,
		noteFreq:     440,
	}
	f.calculateLPFCoefficients()
	f.calculateHPFCoefficient()
	return f
}

func (f *filter) setCutoff(cutoffHz float64) {
	f.targetCutoff = math.Max(20, math.Min(20000, cutoffHz))
}

func (f *filter) setResonance(resonance float64) {
	f.resonance = math.Max(0, math.Min(1, resonance))
	f.calculateLPFCoefficients()
}

func (f *filter) setHPFCutoff(cutoffHz float64) {
	f.hpfCutoff = math.Max(0, math.Min(1000, cutoffHz))
	f.calculateHPFCoefficient()
}

func (f *filter) setKeyTracking(amount float64) {
	f.keyTracking = math.Max(0, math.Min(1, amount))
}

func (f *filter) setNoteFrequency(freq float64) {
	f.noteFreq = freq
}

func (f *filter) reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
	f.hpfState = 0
}

func (f *filter) process(input float64) float64 {
	keyTrackOffset := 0.0
	if f.keyTracking > 0 {
		// Track relative to middle C.
		octaveOffset := math.Log2(f.noteFreq / 261.63)
		keyTrackOffset = octaveOffset * 2000.0 * f.keyTracking
	}
	effectiveCutoff := math.Max(20, math.Min(20000, f.targetCutoff+keyTrackOffset))

	if math.Abs(f.cutoff-effectiveCutoff) > 1.0 {
		f.cutoff += (effectiveCutoff - f.cutoff) * f.smoothing
		f.calculateLPFCoefficients()
	}

	lpf := f.a0*input + f.a1*f.x1 + f.a2*f.x2 - f.b1*f.y1 - f.b2*f.y2
	lpf = softSaturate(lpf)

	f.x2 = f.x1
	f.x1 = input
	f.y2 = f.y1
	f.y1 = lpf

	// High resonance boosts the passband edge; pull the output back down.
	lpf *= 1.0 / (1.0 + f.resonance*2.0)

	if f.hpfCutoff < 1.0 {
		return lpf * f.bassBoost
	}
	f.hpfState += f.hpfCoeff * (lpf - f.hpfState)
	return lpf - f.hpfState
}

// softSaturate is transparent below 0.8 and tanh-compresses above it so the
// filter cannot run away at high resonance.
func softSaturate(x float64) float64 {
	const threshold = 0.8
	absX := math.Abs(x)
	if absX <= threshold {
		return x
	}
	compressed := threshold + (1.0-threshold)*math.Tanh((absX-threshold)*3.0)
	if x > 0 {
		return compressed
	}
	return -compressed
}

func (f *filter) calculateLPFCoefficients() {
	var q float64
	if f.resonance < 0.95 {
		q = 0.707 + f.resonance*15.0
	} else {
		// Last 5% ramps Q up to 50 for self-oscillation.
		t := (f.resonance - 0.95) / 0.05
		q = 15.0 + t*35.0
	}

	fc := math.Min(f.cutoff, sampleRate*0.499)
	omega := 2.0 * math.Pi * fc / sampleRate
	sinOmega := math.Sin(omega)
	cosOmega := math.Cos(omega)
	alpha := sinOmega / (2.0 * q)

	b0 := (1.0 - cosOmega) / 2.0
	b1 := 1.0 - cosOmega
	b2 := (1.0 - cosOmega) / 2.0
	a0 := 1.0 + alpha
	a1 := -2.0 * cosOmega
	a2 := 1.0 - alpha

	f.a0 = b0 / a0
	f.a1 = b1 / a0
	f.a2 = b2 / a0
	f.b1 = a1 / a0
	f.b2 = a2 / a0
}

func (f *filter) calculateHPFCoefficient() {
	if f.hpfCutoff < 1.0 {
		f.hpfCoeff = 0
		return
	}
	fc := math.Min(f.hpfCutoff, sampleRate*0.499)
	f.hpfCoeff = 1.0 - math.Exp(-2.0*math.Pi*fc/sampleRate)
}
