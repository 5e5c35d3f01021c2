package audio

import (
	"math"
	"math/cmplx"
	"testing"

	algofft "github.com/MeKo-Christian/algo-fft"
)

func magnitudeSpectrum(t *testing.T, samples []float64) []float64 {
	t.Helper()
	n := len(samples)
	windowed := append([]float64(nil), samples...)
	Han(windowed)
	in := make([]complex128, n)
	for i, v := range windowed {
		in[i] = complex(v, 0)
	}
	out := make([]complex128, n)
	plan, err := algofft.NewPlan64(n)
	expectNoError(t, err)
	expectNoError(t, plan.Forward(out, in))
	mags := make([]float64, n/2)
	for i := range mags {
		mags[i] = cmplx.Abs(out[i]) * 2 / float64(n)
	}
	return mags
}

func bandEnergy(mags []float64, n int, lowHz, highHz float64) float64 {
	lowBin := int(lowHz * float64(n) / sampleRate)
	highBin := int(highHz * float64(n) / sampleRate)
	energy := 0.0
	for i := lowBin; i < highBin && i < len(mags); i++ {
		energy += mags[i] * mags[i]
	}
	return energy
}

func TestPolyBlepReducesSawAliasing(t *testing.T) {
	const n = 16384
	const freq = 440.0

	o := newOsc()
	o.setWaveform(waveSaw)
	o.setFrequency(freq)
	blep := make([]float64, n)
	for i := range blep {
		blep[i] = o.nextSample()
	}

	// raw phase-accumulated saw with no correction
	naive := make([]float64, n)
	phase := 0.0
	for i := range naive {
		naive[i] = 2.0*phase - 1.0
		phase += freq / sampleRate
		if phase >= 1.0 {
			phase -= 1.0
		}
	}

	blepMags := magnitudeSpectrum(t, blep)
	naiveMags := magnitudeSpectrum(t, naive)

	blepHigh := bandEnergy(blepMags, n, 22000, 23900)
	naiveHigh := bandEnergy(naiveMags, n, 22000, 23900)
	if blepHigh >= naiveHigh {
		t.Errorf("expected polyBLEP to carry less near-Nyquist energy: blep=%v naive=%v",
			blepHigh, naiveHigh)
	}
}

func TestPulseWidthClamp(t *testing.T) {
	o := newOsc()
	o.setPulseWidth(2.0)
	expectNearlyEqual(t, o.pulseWidth, 0.99, 1e-9)
	o.setPulseWidth(-1.0)
	expectNearlyEqual(t, o.pulseWidth, 0.01, 1e-9)
}

func TestWaveformExclusiveSelection(t *testing.T) {
	o := newOsc()
	o.setWaveformEnabled(waveSaw, true)
	o.setWaveformEnabled(waveTriangle, true)
	o.setWaveform(waveSquare)
	for w := 0; w < numWaveforms; w++ {
		expectEqual(t, o.enabled[w], w == waveSquare)
	}
}

func TestMultiWaveformSumIsBounded(t *testing.T) {
	o := newOsc()
	for w := 0; w < numWaveforms; w++ {
		o.setWaveformEnabled(w, true)
	}
	o.setFrequency(440)
	for i := 0; i < sampleRate; i++ {
		v := o.nextSample()
		if math.Abs(v) > 1.0 {
			t.Fatalf("summed waveforms exceeded unity at sample %d: %v", i, v)
		}
	}
}

func TestPhaseWraps(t *testing.T) {
	o := newOsc()
	o.setFrequency(10000)
	for i := 0; i < sampleRate; i++ {
		o.nextSample()
		if o.phase < 0 || o.phase >= 1.0 {
			t.Fatalf("phase out of range at sample %d: %v", i, o.phase)
		}
	}
}
