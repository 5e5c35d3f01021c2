package audio

import (
	"math"
	"testing"
)

func recordTestLoop(t *testing.T, l *looper, track int, value func(i int) float64) {
	t.Helper()
	l.startRecordingTrack(track)
	expectEqual(t, l.state, LooperPreCount)

	preCount := l.samplesPerBeat * preCountBeats
	for i := 0; i < preCount; i++ {
		l.process(1.0, 1.0)
	}
	expectEqual(t, l.state, LooperRecording)

	for i := 0; i < int(l.loopLengthSamples); i++ {
		l.process(value(i), value(i))
	}
	expectEqual(t, l.state, LooperStopped)
	expectEqual(t, l.trackHasContent(track), true)
	expectEqual(t, l.loopLengthLocked, true)
}

func TestLooperRecordPlayRoundTrip(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(2)
	// 2 bars * 4 beats * 24000 samples
	expectEqual(t, l.loopLengthSamples, int64(192000))

	signal := func(i int) float64 {
		return math.Sin(2 * math.Pi * 440 * float64(i) / sampleRate)
	}
	recordTestLoop(t, l, 0, signal)

	l.startPlayback()
	expectEqual(t, l.state, LooperPlaying)
	for i := 0; i < int(l.loopLengthSamples); i++ {
		gotL, gotR := l.process(0, 0)
		want := signal(i) * l.tracks[0].volume
		if math.Abs(gotL-want) > 1e-9 || math.Abs(gotR-want) > 1e-9 {
			t.Fatalf("playback mismatch at %d: got %v want %v", i, gotL, want)
		}
	}
	// position wraps at exactly L
	expectEqual(t, l.playbackPosition, int64(0))
}

func TestLooperPreCountDoesNotWrite(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(1)
	l.startRecordingTrack(0)
	for i := 0; i < l.samplesPerBeat*preCountBeats; i++ {
		l.process(0.75, 0.75)
	}
	expectEqual(t, l.state, LooperRecording)
	for _, v := range l.tracks[0].bufferL {
		if v != 0 {
			t.Fatalf("pre-count leaked into the record buffer")
		}
	}
}

func TestLooperLengthLockedAcrossBPMChange(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(2)
	recordTestLoop(t, l, 0, func(i int) float64 { return 0.1 })
	length := l.loopLengthSamples

	l.setBPM(60)
	expectEqual(t, l.loopLengthSamples, length)

	recordTestLoop(t, l, 1, func(i int) float64 { return 0.2 })
	expectEqual(t, int64(len(l.tracks[1].bufferL)), length)
}

func TestLooperSecondRecordingPlaysFirstTrack(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(1)
	recordTestLoop(t, l, 0, func(i int) float64 { return 0.25 })

	l.startRecordingTrack(1)
	for i := 0; i < l.samplesPerBeat*preCountBeats; i++ {
		l.process(0, 0)
	}
	expectEqual(t, l.state, LooperRecording)
	gotL, _ := l.process(0.5, 0.5)
	// track 0 plays along at its volume while track 1 records
	expectNearlyEqual(t, gotL, 0.25*0.7, 1e-9)
	expectNearlyEqual(t, l.tracks[1].bufferL[0], 0.5, 1e-12)
}

func TestLooperCancelRecordingDiscards(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.startRecordingTrack(0)
	for i := 0; i < l.samplesPerBeat*preCountBeats+100; i++ {
		l.process(0.3, 0.3)
	}
	expectEqual(t, l.state, LooperRecording)
	l.cancelRecording()
	expectEqual(t, l.state, LooperIdle)
	expectEqual(t, l.trackHasContent(0), false)
	expectEqual(t, l.loopLengthLocked, false)
}

func TestLooperIllegalCommandsIgnored(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(1)
	recordTestLoop(t, l, 0, func(i int) float64 { return 0.1 })

	// recording a track that already has content is a no-op
	l.startRecordingTrack(0)
	expectEqual(t, l.state, LooperStopped)

	// clearTrack on the active recording track is a no-op
	l.startRecordingTrack(1)
	expectEqual(t, l.state, LooperPreCount)
	l.clearTrack(1)
	expectEqual(t, l.state, LooperPreCount)
	l.cancelRecording()

	// out-of-range indices never fault
	l.startRecordingTrack(99)
	l.clearTrack(-1)
	l.setTrackVolume(42, 1.0)
}

func TestLooperMuteAndSolo(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(1)
	recordTestLoop(t, l, 0, func(i int) float64 { return 0.2 })
	recordTestLoop(t, l, 1, func(i int) float64 { return 0.4 })

	l.startPlayback()
	gotL, _ := l.process(0, 0)
	expectNearlyEqual(t, gotL, (0.2+0.4)*0.7, 1e-9)

	l.setTrackMuted(0, true)
	gotL, _ = l.process(0, 0)
	expectNearlyEqual(t, gotL, 0.4*0.7, 1e-9)

	l.setTrackMuted(0, false)
	l.setTrackSolo(0, true)
	gotL, _ = l.process(0, 0)
	expectNearlyEqual(t, gotL, 0.2*0.7, 1e-9)
}

func TestLooperBeatAndBarCounters(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(2)
	recordTestLoop(t, l, 0, func(i int) float64 { return 0.1 })
	l.startPlayback()

	for i := 0; i < l.samplesPerBeat; i++ {
		l.process(0, 0)
	}
	expectEqual(t, l.currentBeat, 1)
	expectEqual(t, l.currentBar, 0)

	for i := 0; i < l.samplesPerBar*1; i++ {
		l.process(0, 0)
	}
	expectEqual(t, l.currentBar, 1)
}

func TestLooperClearAllUnlocksLength(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(1)
	recordTestLoop(t, l, 0, func(i int) float64 { return 0.1 })
	l.clearAllTracks()
	expectEqual(t, l.state, LooperIdle)
	expectEqual(t, l.loopLengthLocked, false)
	expectEqual(t, l.getUsedTrackCount(), 0)
	expectEqual(t, l.hasAnyLoop(), false)
}

func TestLooperMixedBufferExport(t *testing.T) {
	l := newLooper()
	l.setBPM(120)
	l.setBarCount(1)
	recordTestLoop(t, l, 0, func(i int) float64 { return 0.5 })
	recordTestLoop(t, l, 1, func(i int) float64 { return 0.25 })

	both := l.getMixedBuffer(0b11)
	expectEqual(t, len(both), int(l.loopLengthSamples)*2)
	expectNearlyEqual(t, float64(both[0]), (0.5+0.25)*0.7, 1e-6)
	expectNearlyEqual(t, float64(both[1]), (0.5+0.25)*0.7, 1e-6)

	only0 := l.getMixedBuffer(0b01)
	expectNearlyEqual(t, float64(only0[0]), 0.5*0.7, 1e-6)
}

func TestLooperBarCountClamp(t *testing.T) {
	l := newLooper()
	l.setBarCount(99)
	expectEqual(t, l.bars, maxLoopBars)
	l.setBarCount(0)
	expectEqual(t, l.bars, minLoopBars)
}
