package audio

import (
	"log"
	"math"
)

// ----- Engine ----- //

// engine is the per-frame audio graph host. It owns every stateful DSP
// component exclusively; the control surface reaches it only through Audio's
// mutex. Per frame: voice bank -> backend FX chain -> bass shelf -> looper
// (record + playback) -> mix with drum machine and metronome -> gain staging
// -> hard clip.
type engine struct {
	poly   *polyphonyManager
	wurli  *wurlitzerEngine
	drums  *drumMachine
	looper *looper
	metro  *metronome

	// subtractive-path effect chain
	synthTremolo *tremolo
	synthDelay   *delay
	synthReverb  *reverb

	// one-pole bass shelf state, engine-owned
	bassStateL float64
	bassStateR float64

	wurlitzerMode     bool
	synthVolume       float64
	metronomeVolume   float64
	drumEnabledByUser bool
}

// Mix gains. Drums at full volume or the metronome above unity volume can
// push the sum past ±1; the hard clip at the end of nextFrame bounds it.
const (
	synthMixGain = 0.09
	drumMixGain  = 1.08
	metroGain    = 1.8
)

func newEngine() *engine {
	e := &engine{
		poly:            newPolyphonyManager(),
		wurli:           newWurlitzerEngine(),
		drums:           newDrumMachine(),
		looper:          newLooper(),
		metro:           newMetronome(),
		synthTremolo:    newTremolo(),
		synthDelay:      newDelay(),
		synthReverb:     newReverb(),
		synthVolume:     0.7,
		metronomeVolume: 0.3,
	}
	e.synthTremolo.setRate(5.0)
	e.synthTremolo.setDepth(0)
	e.synthDelay.setTime(0.3)
	e.synthDelay.setFeedback(0.3)
	e.synthDelay.setMix(0)
	e.synthReverb.setSize(0.5)
	e.synthReverb.setMix(0)
	return e
}

// ----- Note control ----- //

func (e *engine) noteOn(midiNote int, frequency, velocity float64) {
	if e.wurlitzerMode {
		e.wurli.noteOn(midiNote, frequency, velocity)
	} else {
		e.poly.noteOn(midiNote, frequency)
	}
}

func (e *engine) noteOff(midiNote int) {
	if e.wurlitzerMode {
		e.wurli.noteOff(midiNote)
	} else {
		e.poly.noteOff(midiNote)
	}
}

func (e *engine) allNotesOff() {
	e.poly.allNotesOff()
	e.wurli.allNotesOff()
}

func (e *engine) setWurlitzerMode(enabled bool) {
	if e.wurlitzerMode != enabled {
		e.wurlitzerMode = enabled
		// kill notes on both backends so nothing hangs across the switch
		e.poly.allNotesOff()
		e.wurli.allNotesOff()
	}
}

// ----- Volumes ----- //

func (e *engine) setSynthVolume(volume float64) {
	e.synthVolume = math.Max(0, math.Min(1, volume))
}

func (e *engine) setMetronomeVolume(volume float64) {
	e.metronomeVolume = math.Max(0, math.Min(2, volume))
}

// ----- Drum machine ----- //

func (e *engine) setDrumEnabled(enabled bool) {
	e.drumEnabledByUser = enabled
	// joining a running loop: land on the loop's grid, not mid-pattern
	if enabled && e.looper.state == LooperPlaying {
		e.drums.resetBeat()
	}
	e.drums.setEnabled(enabled)
}

func (e *engine) setDrumBPM(bpm float64) {
	e.drums.setBPM(bpm)
	e.looper.setBPM(e.drums.getBPM())
	e.metro.setBPM(e.drums.getBPM())
}

// ----- Looper transport ----- //

func (e *engine) looperStartRecording() {
	e.looperStartRecordingTrack(0)
}

func (e *engine) looperStartRecordingTrack(trackIndex int) {
	bpm := e.drums.getBPM()
	e.looper.setBPM(bpm)
	e.metro.setBPM(bpm)
	e.looper.startRecordingTrack(trackIndex)
}

func (e *engine) looperStartPlayback() {
	e.metro.stop()
	if e.drumEnabledByUser {
		e.drums.resetBeat()
	}
	e.looper.startPlayback()
}

func (e *engine) looperStopPlayback() {
	e.looper.stopPlayback()
	e.metro.stop()
}

func (e *engine) looperClearAllTracks() {
	e.looper.clearAllTracks()
	e.metro.stop()
}

func (e *engine) looperCancelRecording() {
	e.looper.cancelRecording()
	e.metro.stop()
}

// ----- Rendering ----- //

// nextFrame renders one stereo frame. It touches no locks and allocates
// nothing; it must stay inside the callback deadline.
func (e *engine) nextFrame() (float64, float64) {
	var synthL, synthR float64

	if e.wurlitzerMode {
		synthL, synthR = e.wurli.process()
	} else {
		synthL, synthR = e.poly.nextSample()
		synthL, synthR = e.synthTremolo.process(synthL, synthR)
		synthL, synthR = e.synthDelay.process(synthL, synthR)
		synthL, synthR = e.synthReverb.process(synthL, synthR)

		// bass shelf: extract the low end with a one-pole and add it back
		e.bassStateL += 0.02 * (synthL - e.bassStateL)
		e.bassStateR += 0.02 * (synthR - e.bassStateR)
		synthL += e.bassStateL * 0.4
		synthR += e.bassStateR * 0.4
	}

	synthL *= e.synthVolume
	synthR *= e.synthVolume

	loopL, loopR := e.looper.process(synthL, synthR)

	// the metronome keeps time while the looper counts in or records
	needsMetronome := e.looper.state == LooperPreCount || e.looper.state == LooperRecording
	if needsMetronome && !e.metro.isRunning() {
		e.metro.setBPM(e.drums.getBPM())
		e.metro.start()
	} else if !needsMetronome && e.metro.isRunning() {
		e.metro.stop()
	}
	metroSample := e.metro.nextSample() * metroGain

	// the pattern sequencer yields to the metronome during count-in and
	// recording
	drumSample := 0.0
	if e.drumEnabledByUser && !needsMetronome {
		drumSample = e.drums.nextSample()
	}

	finalL := (synthL+loopL)*synthMixGain + drumSample*drumMixGain + metroSample*e.metronomeVolume
	finalR := (synthR+loopR)*synthMixGain + drumSample*drumMixGain + metroSample*e.metronomeVolume

	finalL = math.Max(-1, math.Min(1, finalL))
	finalR = math.Max(-1, math.Min(1, finalR))
	return finalL, finalR
}

// logState is a control-plane helper for transport diagnostics.
func (e *engine) logState() {
	log.Printf("engine: mode=%v looper=%d beat=%d bar=%d voices=%d",
		e.wurlitzerMode, e.looper.state, e.looper.currentBeat,
		e.looper.currentBar, e.poly.countActiveVoices())
}
