package audio

import (
	"math"
)

// ----- LFO ----- //

// lfo is the global triangle modulation source. The subtractive voice bank
// owns the one instance (the Wurlitzer bank has no LFO); its value is routed
// into pitch (semitones), filter cutoff, and pulse width with independent
// depths.
type lfo struct {
	rate     float64 // Hz
	phase    float64
	phaseInc float64
	value    float64

	pitchDepth  float64 // 0-1 maps to 0-2 semitones
	filterDepth float64 // 0-1, scaled by the voice to Hz
	pwmDepth    float64 // 0-1 maps to 0-0.4 pulse width swing
}

func newLfo() *lfo {
	l := &lfo{rate: 1.0}
	l.updatePhaseInc()
	return l
}

func (l *lfo) setRate(rateHz float64) {
	l.rate = math.Max(0.1, math.Min(20, rateHz))
	l.updatePhaseInc()
}

func (l *lfo) setPitchDepth(depth float64) {
	l.pitchDepth = math.Max(0, math.Min(1, depth))
}

func (l *lfo) setFilterDepth(depth float64) {
	l.filterDepth = math.Max(0, math.Min(1, depth))
}

func (l *lfo) setPWMDepth(depth float64) {
	l.pwmDepth = math.Max(0, math.Min(1, depth))
}

func (l *lfo) updatePhaseInc() {
	l.phaseInc = l.rate / sampleRate
}

func (l *lfo) reset() {
	l.phase = 0
	l.value = 0
}

func (l *lfo) tick() {
	if l.phase < 0.5 {
		l.value = 4.0*l.phase - 1.0
	} else {
		l.value = 3.0 - 4.0*l.phase
	}
	l.phase += l.phaseInc
	if l.phase >= 1.0 {
		l.phase -= 1.0
	}
}

func (l *lfo) pitchMod() float64 {
	return l.value * l.pitchDepth * 2.0
}

func (l *lfo) filterMod() float64 {
	return l.value * l.filterDepth
}

func (l *lfo) pwmMod() float64 {
	return l.value * l.pwmDepth * 0.4
}
