package audio

import (
	"math"
)

// ----- Metronome ----- //

// metronome clicks a snare once per beat while the looper pre-counts and
// records. It owns its drum synth so clicks never collide with the pattern
// sequencer. Exactly one click fires per beat, beat 0 included.
type metronome struct {
	synth *drumSynth

	bpm     float64
	running bool

	currentBeat    int
	sampleCounter  float64
	samplesPerBeat float64
}

func newMetronome() *metronome {
	m := &metronome{
		synth: newDrumSynth(),
		bpm:   100,
	}
	m.calculateTiming()
	return m
}

func (m *metronome) setBPM(bpm float64) {
	m.bpm = math.Max(30, math.Min(300, bpm))
	m.calculateTiming()
}

func (m *metronome) calculateTiming() {
	m.samplesPerBeat = sampleRate * 60.0 / m.bpm
}

func (m *metronome) start() {
	m.running = true
	m.currentBeat = 0
	m.sampleCounter = 0
	m.synth.triggerSnare(1.0)
}

func (m *metronome) stop() {
	m.running = false
}

func (m *metronome) isRunning() bool { return m.running }

func (m *metronome) nextSample() float64 {
	// always drain the synth so a click decays after stop()
	output := m.synth.nextSample()

	if m.running {
		m.sampleCounter += 1.0
		if m.sampleCounter >= m.samplesPerBeat {
			m.sampleCounter -= m.samplesPerBeat
			m.currentBeat = (m.currentBeat + 1) % 4
			m.synth.triggerSnare(1.0)
		}
	}
	return output
}
