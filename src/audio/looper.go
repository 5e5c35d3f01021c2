package audio

import (
	"log"
	"math"
)

// ----- Looper ----- //

const (
	maxLoopTracks   = 4
	preCountBeats   = 4
	minLoopBars     = 1
	maxLoopBars     = 8
	defaultLoopBars = 4
	loopBeatsPerBar = 4
)

const (
	// looper states, exposed to the control surface as ints
	LooperIdle = iota
	LooperPreCount
	LooperRecording
	LooperStopped
	LooperPlaying
)

// loopTrack owns the recorded audio of one loop slot.
type loopTrack struct {
	bufferL    []float64
	bufferR    []float64
	hasContent bool
	volume     float64
	muted      bool
	solo       bool
}

// looper records and plays back up to four sample-accurate tracks on a
// shared musical grid. The first completed recording locks the loop length;
// every later track reuses it, so all tracks stay phase-aligned forever.
type looper struct {
	state int
	bpm   float64
	bars  int

	tracks               [maxLoopTracks]loopTrack
	activeRecordingTrack int

	samplesPerBeat    int
	samplesPerBar     int
	loopLengthSamples int64
	loopLengthLocked  bool

	recordPosition   int64
	playbackPosition int64
	preCountPosition int64

	currentBeat int
	currentBar  int
}

func newLooper() *looper {
	l := &looper{
		bpm:                  100,
		bars:                 defaultLoopBars,
		activeRecordingTrack: -1,
	}
	for i := range l.tracks {
		l.tracks[i].volume = 0.7
	}
	l.updateTiming()
	return l
}

func (l *looper) setBPM(bpm float64) {
	l.bpm = math.Max(30, math.Min(300, bpm))
	l.updateTiming()
}

func (l *looper) setBarCount(bars int) {
	if bars < minLoopBars {
		bars = minLoopBars
	}
	if bars > maxLoopBars {
		bars = maxLoopBars
	}
	if l.loopLengthLocked {
		log.Println("looper: bar count locked while loops exist")
		return
	}
	l.bars = bars
	l.updateTiming()
}

func (l *looper) getBarCount() int { return l.bars }

func (l *looper) updateTiming() {
	secondsPerBeat := 60.0 / l.bpm
	l.samplesPerBeat = int(secondsPerBeat * sampleRate)
	l.samplesPerBar = l.samplesPerBeat * loopBeatsPerBar
	// the first recording fixes the length; BPM changes afterwards only
	// affect the beat counters
	if !l.loopLengthLocked {
		l.loopLengthSamples = int64(l.samplesPerBar * l.bars)
	}
}

// ----- Main control ----- //

func (l *looper) startRecording() {
	l.startRecordingTrack(0)
}

func (l *looper) startRecordingTrack(trackIndex int) {
	if !l.isValidTrackIndex(trackIndex) {
		log.Printf("looper: invalid track index %d", trackIndex)
		return
	}
	if l.tracks[trackIndex].hasContent {
		log.Printf("looper: track %d already has content, clear it first", trackIndex)
		return
	}
	if l.state == LooperRecording || l.state == LooperPreCount {
		log.Println("looper: already recording")
		return
	}

	if !l.loopLengthLocked {
		l.updateTiming()
	}

	n := int(l.loopLengthSamples)
	l.tracks[trackIndex].bufferL = make([]float64, n)
	l.tracks[trackIndex].bufferR = make([]float64, n)

	l.activeRecordingTrack = trackIndex
	l.state = LooperPreCount
	l.preCountPosition = 0
	l.recordPosition = 0
	l.currentBeat = 0
	l.currentBar = 0
	log.Printf("looper: pre-count for track %d, loop length %d samples", trackIndex, n)
}

func (l *looper) startPlayback() {
	if l.hasAnyLoop() && l.state == LooperStopped {
		l.state = LooperPlaying
		l.playbackPosition = 0
		l.currentBeat = 0
		l.currentBar = 0
	}
}

func (l *looper) stopPlayback() {
	if l.state == LooperPlaying {
		l.state = LooperStopped
		l.playbackPosition = 0
	}
}

// cancelRecording abandons a pre-count or an in-flight recording and
// discards whatever was captured.
func (l *looper) cancelRecording() {
	if l.state != LooperPreCount && l.state != LooperRecording {
		return
	}
	if l.isValidTrackIndex(l.activeRecordingTrack) {
		l.tracks[l.activeRecordingTrack].bufferL = nil
		l.tracks[l.activeRecordingTrack].bufferR = nil
		l.tracks[l.activeRecordingTrack].hasContent = false
	}
	l.activeRecordingTrack = -1
	l.recordPosition = 0
	l.preCountPosition = 0
	if l.hasAnyLoop() {
		l.state = LooperStopped
	} else {
		l.state = LooperIdle
	}
	log.Println("looper: recording canceled")
}

// ----- Track controls ----- //

func (l *looper) setTrackVolume(trackIndex int, volume float64) {
	if l.isValidTrackIndex(trackIndex) {
		l.tracks[trackIndex].volume = math.Max(0, math.Min(1, volume))
	}
}

func (l *looper) setTrackMuted(trackIndex int, muted bool) {
	if l.isValidTrackIndex(trackIndex) {
		l.tracks[trackIndex].muted = muted
	}
}

func (l *looper) setTrackSolo(trackIndex int, solo bool) {
	if l.isValidTrackIndex(trackIndex) {
		l.tracks[trackIndex].solo = solo
	}
}

func (l *looper) clearTrack(trackIndex int) {
	if !l.isValidTrackIndex(trackIndex) {
		return
	}
	if l.activeRecordingTrack == trackIndex &&
		(l.state == LooperPreCount || l.state == LooperRecording) {
		log.Printf("looper: cannot clear track %d while recording it", trackIndex)
		return
	}
	l.tracks[trackIndex] = loopTrack{volume: 0.7}

	if !l.hasAnyLoop() {
		l.state = LooperIdle
		l.loopLengthLocked = false
		l.playbackPosition = 0
	}
}

func (l *looper) clearAllTracks() {
	if l.state == LooperPlaying {
		l.stopPlayback()
	}
	for i := range l.tracks {
		l.tracks[i] = loopTrack{volume: 0.7}
	}
	l.state = LooperIdle
	l.activeRecordingTrack = -1
	l.loopLengthLocked = false
	l.playbackPosition = 0
	l.recordPosition = 0
	l.currentBeat = 0
	l.currentBar = 0
	l.updateTiming()
}

// ----- Queries ----- //

func (l *looper) hasAnyLoop() bool {
	for i := range l.tracks {
		if l.tracks[i].hasContent {
			return true
		}
	}
	return false
}

func (l *looper) trackHasContent(trackIndex int) bool {
	return l.isValidTrackIndex(trackIndex) && l.tracks[trackIndex].hasContent
}

func (l *looper) getTrackVolume(trackIndex int) float64 {
	if !l.isValidTrackIndex(trackIndex) {
		return 0
	}
	return l.tracks[trackIndex].volume
}

func (l *looper) isTrackMuted(trackIndex int) bool {
	return l.isValidTrackIndex(trackIndex) && l.tracks[trackIndex].muted
}

func (l *looper) isTrackSolo(trackIndex int) bool {
	return l.isValidTrackIndex(trackIndex) && l.tracks[trackIndex].solo
}

func (l *looper) getUsedTrackCount() int {
	count := 0
	for i := range l.tracks {
		if l.tracks[i].hasContent {
			count++
		}
	}
	return count
}

func (l *looper) anySolo() bool {
	for i := range l.tracks {
		if l.tracks[i].hasContent && l.tracks[i].solo {
			return true
		}
	}
	return false
}

func (l *looper) isValidTrackIndex(index int) bool {
	return index >= 0 && index < maxLoopTracks
}

// ----- Audio processing ----- //

// process consumes one frame of synth audio (recording it when armed) and
// accumulates the loop playback mix for this frame.
func (l *looper) process(synthL, synthR float64) (float64, float64) {
	loopOutL := 0.0
	loopOutR := 0.0

	switch l.state {
	case LooperPreCount:
		// existing tracks keep playing under the count-in
		if l.hasAnyLoop() {
			hasSolo := l.anySolo()
			for i := range l.tracks {
				t := &l.tracks[i]
				if !t.hasContent || t.muted || (hasSolo && !t.solo) {
					continue
				}
				if l.playbackPosition < int64(len(t.bufferL)) {
					loopOutL += t.bufferL[l.playbackPosition] * t.volume
					loopOutR += t.bufferR[l.playbackPosition] * t.volume
				}
			}
			l.playbackPosition++
			if l.loopLengthSamples > 0 && l.playbackPosition >= l.loopLengthSamples {
				l.playbackPosition = 0
			}
		}

		l.preCountPosition++
		beatInPreCount := int(l.preCountPosition / int64(l.samplesPerBeat))
		if beatInPreCount != l.currentBeat {
			l.currentBeat = beatInPreCount
		}

		if l.preCountPosition >= int64(l.samplesPerBeat*preCountBeats) {
			l.state = LooperRecording
			l.recordPosition = 0
			l.playbackPosition = 0
			l.currentBeat = 0
			l.currentBar = 0
		}

	case LooperRecording:
		if l.isValidTrackIndex(l.activeRecordingTrack) &&
			l.recordPosition < l.loopLengthSamples {
			t := &l.tracks[l.activeRecordingTrack]
			t.bufferL[l.recordPosition] = synthL
			t.bufferR[l.recordPosition] = synthR
		}

		// everything except the armed track plays along
		hasSolo := l.anySolo()
		for i := range l.tracks {
			if i == l.activeRecordingTrack {
				continue
			}
			t := &l.tracks[i]
			if !t.hasContent || t.muted || (hasSolo && !t.solo) {
				continue
			}
			if l.recordPosition < int64(len(t.bufferL)) {
				loopOutL += t.bufferL[l.recordPosition] * t.volume
				loopOutR += t.bufferR[l.recordPosition] * t.volume
			}
		}

		l.recordPosition++
		l.updateBeatBar()

		if l.recordPosition >= l.loopLengthSamples {
			l.tracks[l.activeRecordingTrack].hasContent = true
			l.loopLengthLocked = true
			l.state = LooperStopped
			l.activeRecordingTrack = -1
			l.playbackPosition = 0
			l.currentBeat = 0
			l.currentBar = 0
		}

	case LooperPlaying:
		hasSolo := l.anySolo()
		for i := range l.tracks {
			t := &l.tracks[i]
			if !t.hasContent || t.muted || (hasSolo && !t.solo) {
				continue
			}
			if l.playbackPosition < int64(len(t.bufferL)) {
				loopOutL += t.bufferL[l.playbackPosition] * t.volume
				loopOutR += t.bufferR[l.playbackPosition] * t.volume
			}
		}
		l.playbackPosition++
		l.updateBeatBar()
		if l.playbackPosition >= l.loopLengthSamples {
			l.playbackPosition = 0
			l.currentBeat = 0
			l.currentBar = 0
		}
	}

	return loopOutL, loopOutR
}

func (l *looper) updateBeatBar() {
	position := l.playbackPosition
	if l.state == LooperRecording {
		position = l.recordPosition
	}
	if l.samplesPerBeat <= 0 {
		return
	}
	totalBeats := int(position / int64(l.samplesPerBeat))
	l.currentBar = (totalBeats / loopBeatsPerBar) % l.bars
	l.currentBeat = totalBeats % loopBeatsPerBar
}

// ----- Export ----- //

// getMixedBuffer renders the selected tracks into an interleaved stereo
// buffer for offline consumption. trackMask bit i selects track i.
func (l *looper) getMixedBuffer(trackMask int) []float32 {
	if l.loopLengthSamples <= 0 {
		return nil
	}
	n := int(l.loopLengthSamples)
	out := make([]float32, n*2)
	for i := range l.tracks {
		t := &l.tracks[i]
		if trackMask&(1<<uint(i)) == 0 || !t.hasContent {
			continue
		}
		for s := 0; s < n && s < len(t.bufferL); s++ {
			out[s*2] += float32(t.bufferL[s] * t.volume)
			out[s*2+1] += float32(t.bufferR[s] * t.volume)
		}
	}
	return out
}
