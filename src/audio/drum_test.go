package audio

import (
	"math"
	"testing"
)

func TestDrumStepRoundTrip(t *testing.T) {
	d := newDrumMachine()
	d.setStep(drumKick, 3, 1.5)
	expectNearlyEqual(t, d.getStep(drumKick, 3), 1.0, 1e-12)
	d.setStep(drumKick, 3, -0.5)
	expectNearlyEqual(t, d.getStep(drumKick, 3), 0.0, 1e-12)
	d.setStep(drumSnare, 7, 0.6)
	expectNearlyEqual(t, d.getStep(drumSnare, 7), 0.6, 1e-12)

	// invalid indices never fault
	d.setStep(99, 0, 1)
	d.setStep(drumKick, 99, 1)
	expectNearlyEqual(t, d.getStep(99, 0), 0, 1e-12)
	expectNearlyEqual(t, d.getStep(drumKick, -1), 0, 1e-12)
}

func TestDrumToggleStep(t *testing.T) {
	d := newDrumMachine()
	d.setStep(drumHiHat, 5, 0)
	d.toggleStep(drumHiHat, 5)
	expectNearlyEqual(t, d.getStep(drumHiHat, 5), 1.0, 1e-12)
	d.toggleStep(drumHiHat, 5)
	expectNearlyEqual(t, d.getStep(drumHiHat, 5), 0.0, 1e-12)

	// toggling a partial velocity zeros it first
	d.setStep(drumHiHat, 5, 0.4)
	d.toggleStep(drumHiHat, 5)
	expectNearlyEqual(t, d.getStep(drumHiHat, 5), 0.0, 1e-12)
	d.toggleStep(drumHiHat, 5)
	expectNearlyEqual(t, d.getStep(drumHiHat, 5), 1.0, 1e-12)
}

func TestDrumBPMClampAndGrid(t *testing.T) {
	d := newDrumMachine()
	d.setBPM(250)
	expectNearlyEqual(t, d.getBPM(), 200, 1e-9)
	d.setBPM(10)
	expectNearlyEqual(t, d.getBPM(), 60, 1e-9)
	d.setBPM(120)
	expectNearlyEqual(t, d.samplesPerSixteenth, sampleRate*60.0/(120*4), 1e-9)
}

func TestDrumSequencerGridIsExact(t *testing.T) {
	d := newDrumMachine()
	d.setBPM(120) // 6000 samples per sixteenth
	d.setEnabled(true)
	for i := 0; i < 96000; i++ {
		d.nextSample()
	}
	// one full bar later the sequencer is back at step 0 with no drift
	expectEqual(t, d.currentStep, 0)
	expectNearlyEqual(t, d.sampleCounter, 0, 1e-6)
}

func TestDrumSequencerKeepsFractionalRemainder(t *testing.T) {
	d := newDrumMachine()
	d.setBPM(70)
	spt := sampleRate * 60.0 / (70 * 4.0)
	d.setEnabled(true)
	n := int(math.Ceil(16 * spt))
	for i := 0; i < n; i++ {
		d.nextSample()
	}
	expectEqual(t, d.currentStep, 0)
	expected := float64(n) - 16*spt
	expectNearlyEqual(t, d.sampleCounter, expected, 1e-6)
}

func TestDrumDefaultPatternTriggers(t *testing.T) {
	d := newDrumMachine()
	d.setBPM(120)
	d.resetToDefaultPattern()
	d.setEnabled(true)
	// step 0: kick and hi-hat, no snare
	expectEqual(t, d.synth.kick.active, true)
	expectEqual(t, d.synth.hihat.active, true)
	expectEqual(t, d.synth.snare.active, false)

	// beat 2 lands at step 4
	for i := 0; i < 24000+10; i++ {
		d.nextSample()
	}
	expectEqual(t, d.synth.snare.active, true)
}

func TestDrumInstrumentVolumeScalesVelocity(t *testing.T) {
	d := newDrumMachine()
	d.setInstrumentVolume(drumKick, 0.5)
	d.setEnabled(true)
	// trigger velocity = pattern(1.0) * volume(0.5), squared by the synth
	expectNearlyEqual(t, d.synth.kick.velocity, 0.25, 1e-9)
}

func TestDrumInstrumentDisableSilencesIt(t *testing.T) {
	d := newDrumMachine()
	d.setInstrumentEnabled(drumKick, false)
	d.setEnabled(true)
	expectEqual(t, d.synth.kick.active, false)
	expectEqual(t, d.synth.hihat.active, true)
}

func TestDrumDisabledStillDecays(t *testing.T) {
	d := newDrumMachine()
	d.setEnabled(true)
	d.nextSample()
	d.setEnabled(false)
	nonZero := false
	for i := 0; i < 4800; i++ {
		if d.nextSample() != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Errorf("active hits should decay after the sequencer stops")
	}
}
