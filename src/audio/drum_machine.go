package audio

import (
	"math"
)

// ----- Drum Machine ----- //

const (
	drumKick = iota
	drumSnare
	drumHiHat
	numDrumInstruments
)

const drumSteps = 16

// default groove: accents on the downbeats, lighter off-beats
var defaultHiHatPattern = [drumSteps]float64{
	1.0, 0.5, 0.7, 0.4,
	0.9, 0.5, 0.6, 0.4,
	1.0, 0.5, 0.7, 0.4,
	0.9, 0.5, 0.6, 0.45,
}

// drumMachine is a 16-step sequencer over the drum synth. Each instrument
// has a per-step velocity pattern (0 = off), a volume, and an enable flag.
// The sample counter keeps its fractional error across step boundaries so
// the grid never drifts.
type drumMachine struct {
	synth *drumSynth

	enabled           bool
	instrumentEnabled [numDrumInstruments]bool
	patterns          [numDrumInstruments][drumSteps]float64
	instrumentVolume  [numDrumInstruments]float64

	bpm    float64
	volume float64

	currentStep         int
	sampleCounter       float64
	samplesPerSixteenth float64
}

func newDrumMachine() *drumMachine {
	d := &drumMachine{
		synth:  newDrumSynth(),
		bpm:    100,
		volume: 0.7,
	}
	for i := range d.instrumentEnabled {
		d.instrumentEnabled[i] = true
		d.instrumentVolume[i] = 1.0
	}
	d.resetToDefaultPattern()
	d.calculateSamplesPerSixteenth()
	return d
}

func (d *drumMachine) setEnabled(enabled bool) {
	if enabled && !d.enabled {
		d.currentStep = 0
		d.sampleCounter = 0
		d.triggerStep(0)
	}
	d.enabled = enabled
}

func (d *drumMachine) isEnabled() bool { return d.enabled }

func (d *drumMachine) setInstrumentEnabled(instrument int, enabled bool) {
	if instrument < 0 || instrument >= numDrumInstruments {
		return
	}
	d.instrumentEnabled[instrument] = enabled
}

func (d *drumMachine) setBPM(bpm float64) {
	d.bpm = math.Max(60, math.Min(200, bpm))
	d.calculateSamplesPerSixteenth()
}

func (d *drumMachine) getBPM() float64 { return d.bpm }

func (d *drumMachine) setVolume(volume float64) {
	d.volume = math.Max(0, math.Min(1, volume))
}

func (d *drumMachine) setStep(instrument, step int, velocity float64) {
	if instrument < 0 || instrument >= numDrumInstruments {
		return
	}
	if step < 0 || step >= drumSteps {
		return
	}
	d.patterns[instrument][step] = math.Max(0, math.Min(1, velocity))
}

func (d *drumMachine) getStep(instrument, step int) float64 {
	if instrument < 0 || instrument >= numDrumInstruments {
		return 0
	}
	if step < 0 || step >= drumSteps {
		return 0
	}
	return d.patterns[instrument][step]
}

func (d *drumMachine) toggleStep(instrument, step int) {
	if d.getStep(instrument, step) > 0 {
		d.setStep(instrument, step, 0)
	} else {
		d.setStep(instrument, step, 1.0)
	}
}

func (d *drumMachine) setInstrumentVolume(instrument int, volume float64) {
	if instrument < 0 || instrument >= numDrumInstruments {
		return
	}
	d.instrumentVolume[instrument] = math.Max(0, math.Min(1, volume))
}

func (d *drumMachine) getInstrumentVolume(instrument int) float64 {
	if instrument < 0 || instrument >= numDrumInstruments {
		return 0
	}
	return d.instrumentVolume[instrument]
}

// resetToDefaultPattern restores the stock 4/4 groove: kick on beats 1 and
// 3, snare on 2 and 4, hi-hat on every 16th.
func (d *drumMachine) resetToDefaultPattern() {
	for i := range d.patterns {
		for s := range d.patterns[i] {
			d.patterns[i][s] = 0
		}
	}
	d.patterns[drumKick][0] = 1.0
	d.patterns[drumKick][8] = 1.0
	d.patterns[drumSnare][4] = 1.0
	d.patterns[drumSnare][12] = 1.0
	d.patterns[drumHiHat] = defaultHiHatPattern
}

// resetBeat rewinds to step 0, used to sync the sequencer to the loop grid.
func (d *drumMachine) resetBeat() {
	d.currentStep = 0
	d.sampleCounter = 0
	d.triggerStep(0)
}

func (d *drumMachine) calculateSamplesPerSixteenth() {
	samplesPerBeat := sampleRate * 60.0 / d.bpm
	d.samplesPerSixteenth = samplesPerBeat / 4.0
}

func (d *drumMachine) triggerStep(step int) {
	for instrument := 0; instrument < numDrumInstruments; instrument++ {
		if !d.instrumentEnabled[instrument] {
			continue
		}
		velocity := d.patterns[instrument][step]
		if velocity <= 0 {
			continue
		}
		velocity *= d.instrumentVolume[instrument]
		switch instrument {
		case drumKick:
			d.synth.triggerKick(velocity)
		case drumSnare:
			d.synth.triggerSnare(velocity)
		case drumHiHat:
			d.synth.triggerHiHat(velocity)
		}
	}
}

func (d *drumMachine) nextSample() float64 {
	if !d.enabled {
		// let already-sounding hits decay
		return d.synth.nextSample() * d.volume
	}

	d.sampleCounter += 1.0
	if d.sampleCounter >= d.samplesPerSixteenth {
		// keep the fractional remainder so the grid stays sample-accurate
		d.sampleCounter -= d.samplesPerSixteenth
		d.currentStep = (d.currentStep + 1) % drumSteps
		d.triggerStep(d.currentStep)
	}

	return d.synth.nextSample() * d.volume
}
