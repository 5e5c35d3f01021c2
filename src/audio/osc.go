package audio

import (
	"math"
)

// ----- Waveform ----- //

const (
	waveSine = iota
	waveSquare
	waveSaw
	waveTriangle
	numWaveforms
)

func waveformFromString(s string) int {
	switch s {
	case "sine":
		return waveSine
	case "square":
		return waveSquare
	case "saw":
		return waveSaw
	case "triangle":
		return waveTriangle
	}
	return waveSine
}
func waveformToString(w int) string {
	switch w {
	case waveSine:
		return "sine"
	case waveSquare:
		return "square"
	case waveSaw:
		return "saw"
	case waveTriangle:
		return "triangle"
	}
	return "sine"
}

// ----- OSC ----- //

// osc is a phase-accumulated multi-waveform oscillator. Square and saw are
// band-limited with polyBLEP correction at their discontinuities. Enabled
// waveforms are summed and power-normalized; more than one source passes
// through a gentle tanh saturator.
type osc struct {
	phase      float64
	phaseInc   float64
	freq       float64
	pulseWidth float64
	enabled    [numWaveforms]bool
}

func newOsc() *osc {
	o := &osc{
		freq:       440,
		pulseWidth: 0.5,
	}
	o.enabled[waveSine] = true
	o.updatePhaseInc()
	return o
}

func (o *osc) setFrequency(freq float64) {
	o.freq = freq
	o.updatePhaseInc()
}

// setWaveform selects a single waveform exclusively.
func (o *osc) setWaveform(w int) {
	for i := range o.enabled {
		o.enabled[i] = false
	}
	if w >= 0 && w < numWaveforms {
		o.enabled[w] = true
	}
}

func (o *osc) setWaveformEnabled(w int, enabled bool) {
	if w >= 0 && w < numWaveforms {
		o.enabled[w] = enabled
	}
}

func (o *osc) setPulseWidth(pw float64) {
	o.pulseWidth = math.Max(0.01, math.Min(0.99, pw))
}

func (o *osc) updatePhaseInc() {
	o.phaseInc = o.freq / sampleRate
}

func (o *osc) reset() {
	o.phase = 0
}

func (o *osc) nextSample() float64 {
	sample := 0.0
	count := 0
	if o.enabled[waveSine] {
		sample += math.Sin(o.phase * 2 * math.Pi)
		count++
	}
	if o.enabled[waveSquare] {
		v := -1.0
		if o.phase < o.pulseWidth {
			v = 1.0
		}
		v += o.polyBlep(o.phase)
		v -= o.polyBlep(math.Mod(o.phase-o.pulseWidth+1.0, 1.0))
		sample += v
		count++
	}
	if o.enabled[waveSaw] {
		v := 2.0*o.phase - 1.0
		v -= o.polyBlep(o.phase)
		sample += v
		count++
	}
	if o.enabled[waveTriangle] {
		if o.phase < 0.5 {
			sample += 4.0*o.phase - 1.0
		} else {
			sample += 3.0 - 4.0*o.phase
		}
		count++
	}

	if count > 1 {
		// 1/sqrt(N) keeps perceived power constant; the tanh rounds off
		// the summed peaks.
		sample /= math.Sqrt(float64(count))
		sample = math.Tanh(sample * 1.1)
	}

	o.phase += o.phaseInc
	if o.phase >= 1.0 {
		o.phase -= 1.0
	}
	return sample
}

// polyBlep returns the polynomial band-limited step correction for a
// discontinuity near phase t, with dt = phase increment per sample.
func (o *osc) polyBlep(t float64) float64 {
	dt := o.phaseInc
	if t < dt {
		t /= dt
		return t + t - t*t - 1.0
	}
	if t > 1.0-dt {
		t = (t - 1.0) / dt
		return t*t + t + t + 1.0
	}
	return 0.0
}
