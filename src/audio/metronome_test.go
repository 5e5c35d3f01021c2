package audio

import (
	"testing"
)

// countOnsets counts rising edges: quiet for a while, then loud. The next
// onset is armed only after quietRun consecutive samples below quiet, so the
// zero crossings inside one click do not count as new onsets.
func countOnsets(samples []float64, threshold, quiet float64) []int {
	const quietRun = 1000
	onsets := []int{}
	armed := true
	quietFor := 0
	for i, v := range samples {
		abs := v
		if abs < 0 {
			abs = -abs
		}
		if armed && abs > threshold {
			onsets = append(onsets, i)
			armed = false
			quietFor = 0
		} else if !armed {
			if abs < quiet {
				quietFor++
				if quietFor >= quietRun {
					armed = true
				}
			} else {
				quietFor = 0
			}
		}
	}
	return onsets
}

func TestMetronomeClicksOncePerBeat(t *testing.T) {
	m := newMetronome()
	m.setBPM(120) // 24000 samples per beat
	m.start()

	out := make([]float64, 96000)
	for i := range out {
		out[i] = m.nextSample()
	}

	onsets := countOnsets(out, 0.1, 0.02)
	expectEqual(t, len(onsets), 4)
	for k, onset := range onsets {
		want := k * 24000
		if onset < want || onset > want+200 {
			t.Errorf("click %d at frame %d, expected near %d", k, onset, want)
		}
	}
}

func TestMetronomeStopLetsClickDecay(t *testing.T) {
	m := newMetronome()
	m.setBPM(120)
	m.start()
	for i := 0; i < 100; i++ {
		m.nextSample()
	}
	m.stop()
	expectEqual(t, m.isRunning(), false)
	nonZero := false
	for i := 0; i < 24000; i++ {
		if m.nextSample() != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Errorf("the in-flight click should finish decaying after stop")
	}
	// and no further clicks fire
	out := make([]float64, 48000)
	for i := range out {
		out[i] = m.nextSample()
	}
	expectEqual(t, len(countOnsets(out, 0.1, 0.02)), 0)
}

func TestMetronomeBPMClamp(t *testing.T) {
	m := newMetronome()
	m.setBPM(1000)
	expectNearlyEqual(t, m.bpm, 300, 1e-9)
	m.setBPM(1)
	expectNearlyEqual(t, m.bpm, 30, 1e-9)
}
