package audio

import (
	"math"
	"testing"
)

func TestWurlitzerEnvelopeVelocityScaling(t *testing.T) {
	v := newWurlitzerVoice()

	// hard hit: ~8 ms attack, ~2.0 s decay
	v.noteOn(60, 261.63, 1.0)
	expectNearlyEqual(t, v.ampEnv.attackRate, 1.0/(0.008*sampleRate), 1.0/(0.008*sampleRate)*0.05)
	expectNearlyEqual(t, v.ampEnv.decayRate, 1.0/(2.0*sampleRate), 1.0/(2.0*sampleRate)*0.05)

	// soft hit: ~20 ms attack, ~3.5 s decay
	v.noteOn(60, 261.63, 0.0)
	expectNearlyEqual(t, v.ampEnv.attackRate, 1.0/(0.020*sampleRate), 1.0/(0.020*sampleRate)*0.05)
	expectNearlyEqual(t, v.ampEnv.decayRate, 1.0/(3.5*sampleRate), 1.0/(3.5*sampleRate)*0.05)
}

func TestWurlitzerVelocityShapesHarmonics(t *testing.T) {
	v := newWurlitzerVoice()
	v.noteOn(60, 261.63, 1.0)
	hardSecond := v.secondHarmonicLevel
	hardBark := v.barkIntensity
	v.noteOn(60, 261.63, 0.1)
	if v.secondHarmonicLevel >= hardSecond {
		t.Errorf("soft hits should carry less 2nd harmonic")
	}
	if v.barkIntensity >= hardBark {
		t.Errorf("soft hits should bark less")
	}
}

func TestWurlitzerVoiceLifecycle(t *testing.T) {
	v := newWurlitzerVoice()
	v.noteOn(69, 440, 0.8)
	expectEqual(t, v.isActive(), true)

	peak := 0.0
	for i := 0; i < 4800; i++ {
		s := math.Abs(v.nextSample())
		if s > peak {
			peak = s
		}
	}
	if peak == 0 {
		t.Fatalf("expected audible output")
	}

	v.noteOff()
	for i := 0; i < 3*sampleRate && v.isActive(); i++ {
		v.nextSample()
	}
	expectEqual(t, v.isActive(), false)
	expectEqual(t, v.nextSample(), 0.0)
}

func TestWurlitzerVoiceOutputBounded(t *testing.T) {
	v := newWurlitzerVoice()
	v.noteOn(36, 65.41, 1.0)
	for i := 0; i < sampleRate; i++ {
		s := v.nextSample()
		if math.IsNaN(s) || math.Abs(s) > 1.5 {
			t.Fatalf("wurlitzer voice out of range at %d: %v", i, s)
		}
	}
}

func TestWurlitzerEngineStealsOldest(t *testing.T) {
	e := newWurlitzerEngine()
	for note := 48; note < 48+wurliMaxVoices; note++ {
		e.noteOn(note, noteToFreq(note), 0.7)
	}
	e.noteOn(80, noteToFreq(80), 0.7)

	active := 0
	has48 := false
	has80 := false
	for _, v := range e.voices {
		if v.isActive() {
			active++
			if v.midiNote == 48 {
				has48 = true
			}
			if v.midiNote == 80 {
				has80 = true
			}
		}
	}
	expectEqual(t, active, wurliMaxVoices)
	expectEqual(t, has48, false)
	expectEqual(t, has80, true)
}

func TestWurlitzerEngineStereoOutputBounded(t *testing.T) {
	e := newWurlitzerEngine()
	e.setTremoloDepth(0.6)
	e.setChorusMode(chorusModeII)
	e.setReverbMix(0.4)
	e.setDelayMix(0.3)
	for note := 60; note < 66; note++ {
		e.noteOn(note, noteToFreq(note), 1.0)
	}
	nonZero := false
	for i := 0; i < sampleRate; i++ {
		l, r := e.process()
		if l < -1 || l > 1 || r < -1 || r > 1 {
			t.Fatalf("output out of range at %d: %v %v", i, l, r)
		}
		if l != 0 || r != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Errorf("expected audible output")
	}
}
