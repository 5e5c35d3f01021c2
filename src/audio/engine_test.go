package audio

import (
	"math"
	"testing"
)

func TestEngineSingleNoteSpectrum(t *testing.T) {
	e := newEngine()
	e.poly.setWaveform(waveSine)
	e.poly.setAttack(0.01)
	e.poly.setDecay(0.001)
	e.poly.setSustain(1.0)
	e.poly.setRelease(0.1)
	e.noteOn(69, 440, 1.0)

	// let the attack and auto-gain settle
	for i := 0; i < 4800; i++ {
		e.nextFrame()
	}

	const n = 65536
	mono := make([]float64, n)
	for i := range mono {
		l, r := e.nextFrame()
		mono[i] = (l + r) * 0.5
	}
	mags := magnitudeSpectrum(t, mono)

	peakBin := 0
	for i, m := range mags {
		if m > mags[peakBin] {
			peakBin = i
		}
	}
	peakFreq := float64(peakBin) * sampleRate / n
	expectNearlyEqual(t, peakFreq, 440, 1.0)

	// the peak towers over everything outside its leakage skirt
	peakDb := 20 * math.Log10(mags[peakBin])
	for i, m := range mags {
		if i >= peakBin-10 && i <= peakBin+10 {
			continue
		}
		if m <= 0 {
			continue
		}
		if 20*math.Log10(m) > peakDb-30 {
			t.Fatalf("bin %d (%.1f Hz) within 30 dB of the peak", i, float64(i)*sampleRate/n)
		}
	}
}

func TestEngineOutputHardClipped(t *testing.T) {
	e := newEngine()
	e.setSynthVolume(1.0)
	e.drums.setVolume(1.0)
	e.setDrumEnabled(true)
	e.poly.setSustain(1.0)
	for note := 48; note < 48+maxPolyphony; note++ {
		e.noteOn(note, noteToFreq(note), 1.0)
	}
	for i := 0; i < sampleRate; i++ {
		l, r := e.nextFrame()
		if l < -1 || l > 1 || r < -1 || r > 1 {
			t.Fatalf("frame %d escaped the hard clip: %v %v", i, l, r)
		}
	}
}

func TestEngineModeSwitchKillsNotes(t *testing.T) {
	e := newEngine()
	e.noteOn(60, noteToFreq(60), 0.7)
	e.setWurlitzerMode(true)
	for _, v := range e.poly.voices {
		if v.state == voiceActive {
			t.Errorf("subtractive voice still gated after mode switch")
		}
	}

	e.noteOn(60, noteToFreq(60), 0.7)
	for _, v := range e.poly.voices {
		if v.state == voiceActive {
			t.Errorf("noteOn in wurlitzer mode must not reach the subtractive bank")
		}
	}
	found := false
	for _, v := range e.wurli.voices {
		if v.isActive() && v.midiNote == 60 {
			found = true
		}
	}
	expectEqual(t, found, true)

	e.setWurlitzerMode(false)
	for _, v := range e.wurli.voices {
		if v.isActive() && v.gateOn {
			t.Errorf("wurlitzer voice still gated after switching back")
		}
	}
}

func TestEnginePreCountGating(t *testing.T) {
	e := newEngine()
	e.setDrumBPM(120)
	e.setDrumEnabled(true)
	e.looperStartRecordingTrack(0)
	expectEqual(t, e.looper.state, LooperPreCount)

	drumCounterBefore := e.drums.sampleCounter

	// 4 beats of pre-count at 120 BPM = 96000 frames
	out := make([]float64, 96000)
	for i := range out {
		l, r := e.nextFrame()
		out[i] = (l + r) * 0.5
	}
	expectEqual(t, e.looper.state, LooperRecording)

	// the pattern sequencer is frozen while the metronome keeps time
	expectNearlyEqual(t, e.drums.sampleCounter, drumCounterBefore, 1e-9)

	// one metronome click per beat, nothing else sounding
	onsets := countOnsets(out, 0.02, 0.005)
	expectEqual(t, len(onsets), 4)
	for k, onset := range onsets {
		want := k * 24000
		if onset < want || onset > want+200 {
			t.Errorf("click %d at frame %d, expected near %d", k, onset, want)
		}
	}

	// no loop writes happened during the count-in
	for _, v := range e.looper.tracks[0].bufferL {
		if v != 0 {
			t.Fatalf("pre-count wrote into the loop buffer")
		}
	}
}

func TestEngineLoopRecordThenPlay(t *testing.T) {
	e := newEngine()
	e.setDrumBPM(120)
	e.looper.setBarCount(1)
	e.poly.setWaveform(waveSine)
	e.poly.setSustain(1.0)
	e.looperStartRecordingTrack(0)
	e.noteOn(69, 440, 1.0)

	total := 96000 + int(e.looper.loopLengthSamples)
	for i := 0; i < total; i++ {
		e.nextFrame()
	}
	expectEqual(t, e.looper.state, LooperStopped)
	expectEqual(t, e.looper.trackHasContent(0), true)

	recorded := false
	for _, v := range e.looper.tracks[0].bufferL {
		if v != 0 {
			recorded = true
			break
		}
	}
	expectEqual(t, recorded, true)

	e.looperStartPlayback()
	expectEqual(t, e.looper.state, LooperPlaying)
}

func TestEngineDrumVolumePath(t *testing.T) {
	e := newEngine()
	e.setDrumEnabled(true)
	nonZero := false
	for i := 0; i < 48000; i++ {
		l, _ := e.nextFrame()
		if l != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Errorf("expected drum pattern output")
	}
}
