package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/oto"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048 // multiple of samplesPerCycle
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate
const baseFreq = 440.0

// ----- Utility ----- //

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- State ----- //

type state struct {
	sync.Mutex
	params *params
	engine *engine
	pos    int64
	out    []float64 // mono render ring, length fftSize, feeds GetFFT
}

func newState() *state {
	return &state{
		params: newParams(),
		engine: newEngine(),
		out:    make([]float64, fftSize),
	}
}

// ----- Audio ----- //

// Audio binds the engine graph to the host sound system. The oto player
// pulls interleaved stereo int16 through Read; control threads feed string
// commands through CommandCh. A single coarse mutex covers both sides: the
// control plane holds it for microseconds per write, the render loop takes
// it once per buffer.
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
	fftResult  []float64 // length: fftSize
	restarting atomic.Bool
}

var _ io.Reader = (*Audio)(nil)

// NewAudio opens the output device and starts the command pump.
func NewAudio() (*Audio, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	commandCh := make(chan []string, 256)
	audio := &Audio{
		ctx:        context.Background(),
		otoContext: otoContext,
		CommandCh:  commandCh,
		state:      newState(),
		fftResult:  make([]float64, fftSize),
	}
	go processCommands(audio, commandCh)
	return audio, nil
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("command %v failed: %v", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		a.state.Lock()
		defer a.state.Unlock()
		bufSamples := int64(len(buf) / bytesPerSample)

		offset := a.state.pos % fftSize
		for i := int64(0); i < bufSamples; i++ {
			l, r := a.state.engine.nextFrame()
			writeSample(buf, i, 0, l)
			writeSample(buf, i, 1, r)
			a.state.out[offset+i] = (l + r) * 0.5
		}
		a.state.pos += bufSamples
		return len(buf), nil
	}
}

func writeSample(buf []byte, frame int64, ch int, value float64) {
	const max = 32767
	b := int16(value * max)
	buf[bytesPerSample*frame+int64(2*ch)] = byte(b)
	buf[bytesPerSample*frame+int64(2*ch)+1] = byte(b >> 8)
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	return a.otoContext.Close()
}

// Start runs the playback loop until the context is canceled. One restart
// is attempted on a stream error; the flag keeps restarts from overlapping.
func (a *Audio) Start(ctx context.Context) error {
	a.ctx = ctx
	err := a.runPlayer()
	if err != nil && ctx.Err() == nil && a.restarting.CompareAndSwap(false, true) {
		log.Printf("audio stream error: %v, restarting once...", err)
		err = a.runPlayer()
		a.restarting.Store(false)
	}
	if err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

func (a *Audio) runPlayer() error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	// block until cancel() called
	_, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes))
	return err
}

// ----- JSON state ----- //

type audioJSON struct {
	Params json.RawMessage `json:"params"`
}

// ApplyJSON ...
func (a *Audio) ApplyJSON(data []byte) {
	a.state.Lock()
	defer a.state.Unlock()
	var j audioJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to Audio", err)
		return
	}
	a.state.params.applyJSON(j.Params)
	a.state.params.apply(a.state.engine)
}

// ToJSON ...
func (a *Audio) ToJSON() []byte {
	a.state.Lock()
	defer a.state.Unlock()
	bytes, err := json.Marshal(toRawMessage(&audioJSON{
		Params: a.state.params.toJSON(),
	}))
	if err != nil {
		panic(err)
	}
	return bytes
}

// ----- Commands ----- //

func parseIntArg(s string) (int, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	return int(v), err
}

func parseFloatArg(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func drumInstrumentFromString(s string) (int, error) {
	switch s {
	case "kick":
		return drumKick, nil
	case "snare":
		return drumSnare, nil
	case "hihat":
		return drumHiHat, nil
	}
	return 0, fmt.Errorf("unknown drum instrument %q", s)
}

func (a *Audio) update(command []string) error {
	a.state.Lock()
	defer a.state.Unlock()
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	e := a.state.engine
	p := a.state.params

	switch command[0] {
	case "set":
		if len(command) != 4 {
			return fmt.Errorf("invalid set command %v", command)
		}
		group, key, value := command[1], command[2], command[3]
		switch group {
		case "osc":
			if err := p.osc.set(key, value); err != nil {
				return err
			}
			p.osc.apply(e)
		case "filter":
			if err := p.filter.set(key, value); err != nil {
				return err
			}
			p.filter.apply(e)
		case "adsr":
			if err := p.adsr.set(key, value); err != nil {
				return err
			}
			p.adsr.apply(e)
		case "lfo":
			if err := p.lfo.set(key, value); err != nil {
				return err
			}
			p.lfo.apply(e)
		case "voicing":
			if err := p.voicing.set(key, value); err != nil {
				return err
			}
			p.voicing.apply(e)
		case "synth_fx":
			if err := p.synthFx.set(key, value); err != nil {
				return err
			}
			p.synthFx.applySynth(e)
		case "wurli_fx":
			if err := p.wurliFx.set(key, value); err != nil {
				return err
			}
			p.wurliFx.applyWurli(e)
		case "volume":
			if err := p.volumes.set(key, value); err != nil {
				return err
			}
			p.volumes.apply(e)
		default:
			return fmt.Errorf("unknown set group %q", group)
		}
	case "mode":
		if len(command) != 2 {
			return fmt.Errorf("invalid mode command %v", command)
		}
		p.wurlitzerMode = command[1] == "wurlitzer"
		e.setWurlitzerMode(p.wurlitzerMode)
	case "note_on":
		if len(command) < 3 {
			return fmt.Errorf("invalid note_on command %v", command)
		}
		note, err := parseIntArg(command[1])
		if err != nil {
			return err
		}
		freq, err := parseFloatArg(command[2])
		if err != nil {
			return err
		}
		velocity := 0.7
		if len(command) > 3 {
			velocity, err = parseFloatArg(command[3])
			if err != nil {
				return err
			}
		}
		e.noteOn(note, freq, velocity)
	case "note_off":
		if len(command) != 2 {
			return fmt.Errorf("invalid note_off command %v", command)
		}
		note, err := parseIntArg(command[1])
		if err != nil {
			return err
		}
		e.noteOff(note)
	case "all_notes_off":
		e.allNotesOff()
	case "drum":
		return a.updateDrum(command[1:])
	case "looper":
		return a.updateLooper(command[1:])
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

func (a *Audio) updateDrum(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty drum command")
	}
	e := a.state.engine
	switch command[0] {
	case "enabled":
		e.setDrumEnabled(len(command) > 1 && command[1] == "true")
	case "bpm":
		if len(command) != 2 {
			return fmt.Errorf("invalid drum bpm command %v", command)
		}
		bpm, err := parseFloatArg(command[1])
		if err != nil {
			return err
		}
		e.setDrumBPM(bpm)
	case "instrument":
		if len(command) != 3 {
			return fmt.Errorf("invalid drum instrument command %v", command)
		}
		instrument, err := drumInstrumentFromString(command[1])
		if err != nil {
			return err
		}
		e.drums.setInstrumentEnabled(instrument, command[2] == "true")
	case "instrument_volume":
		if len(command) != 3 {
			return fmt.Errorf("invalid drum instrument_volume command %v", command)
		}
		instrument, err := drumInstrumentFromString(command[1])
		if err != nil {
			return err
		}
		volume, err := parseFloatArg(command[2])
		if err != nil {
			return err
		}
		e.drums.setInstrumentVolume(instrument, volume)
	case "step":
		if len(command) != 4 {
			return fmt.Errorf("invalid drum step command %v", command)
		}
		instrument, err := drumInstrumentFromString(command[1])
		if err != nil {
			return err
		}
		step, err := parseIntArg(command[2])
		if err != nil {
			return err
		}
		velocity, err := parseFloatArg(command[3])
		if err != nil {
			return err
		}
		e.drums.setStep(instrument, step, velocity)
	case "toggle_step":
		if len(command) != 3 {
			return fmt.Errorf("invalid drum toggle_step command %v", command)
		}
		instrument, err := drumInstrumentFromString(command[1])
		if err != nil {
			return err
		}
		step, err := parseIntArg(command[2])
		if err != nil {
			return err
		}
		e.drums.toggleStep(instrument, step)
	case "reset_pattern":
		e.drums.resetToDefaultPattern()
	default:
		return fmt.Errorf("unknown drum command %q", command[0])
	}
	return nil
}

func (a *Audio) updateLooper(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty looper command")
	}
	e := a.state.engine
	switch command[0] {
	case "start_recording":
		e.looperStartRecording()
	case "record_track":
		if len(command) != 2 {
			return fmt.Errorf("invalid looper record_track command %v", command)
		}
		track, err := parseIntArg(command[1])
		if err != nil {
			return err
		}
		e.looperStartRecordingTrack(track)
	case "start_playback":
		e.looperStartPlayback()
	case "stop_playback":
		e.looperStopPlayback()
	case "clear_loop", "clear_all":
		e.looperClearAllTracks()
	case "clear_track":
		if len(command) != 2 {
			return fmt.Errorf("invalid looper clear_track command %v", command)
		}
		track, err := parseIntArg(command[1])
		if err != nil {
			return err
		}
		e.looper.clearTrack(track)
	case "cancel":
		e.looperCancelRecording()
	case "track_volume":
		if len(command) != 3 {
			return fmt.Errorf("invalid looper track_volume command %v", command)
		}
		track, err := parseIntArg(command[1])
		if err != nil {
			return err
		}
		volume, err := parseFloatArg(command[2])
		if err != nil {
			return err
		}
		e.looper.setTrackVolume(track, volume)
	case "mute":
		if len(command) != 3 {
			return fmt.Errorf("invalid looper mute command %v", command)
		}
		track, err := parseIntArg(command[1])
		if err != nil {
			return err
		}
		e.looper.setTrackMuted(track, command[2] == "true")
	case "solo":
		if len(command) != 3 {
			return fmt.Errorf("invalid looper solo command %v", command)
		}
		track, err := parseIntArg(command[1])
		if err != nil {
			return err
		}
		e.looper.setTrackSolo(track, command[2] == "true")
	case "bar_count":
		if len(command) != 2 {
			return fmt.Errorf("invalid looper bar_count command %v", command)
		}
		bars, err := parseIntArg(command[1])
		if err != nil {
			return err
		}
		e.looper.setBarCount(bars)
	default:
		return fmt.Errorf("unknown looper command %q", command[0])
	}
	e.logState()
	return nil
}

// ----- MIDI ----- //

// AddMidiEvent translates a raw MIDI message into note control.
func (a *Audio) AddMidiEvent(data []byte) {
	if len(data) < 3 {
		return
	}
	a.state.Lock()
	defer a.state.Unlock()
	status := data[0] >> 4
	note := int(data[1])
	if status == 8 || (status == 9 && data[2] == 0) {
		a.state.engine.noteOff(note)
	} else if status == 9 {
		velocity := float64(data[2]) / 127.0
		a.state.engine.noteOn(note, noteToFreq(note), velocity)
	}
}

// ----- State queries (UI scalars, brief lock) ----- //

// LooperStatus is the transport snapshot the UI polls.
type LooperStatus struct {
	State          int
	CurrentBeat    int
	CurrentBar     int
	UsedTracks     int
	RecordingTrack int
}

// GetLooperStatus ...
func (a *Audio) GetLooperStatus() LooperStatus {
	a.state.Lock()
	defer a.state.Unlock()
	l := a.state.engine.looper
	return LooperStatus{
		State:          l.state,
		CurrentBeat:    l.currentBeat,
		CurrentBar:     l.currentBar,
		UsedTracks:     l.getUsedTrackCount(),
		RecordingTrack: l.activeRecordingTrack,
	}
}

// GetDrumStep ...
func (a *Audio) GetDrumStep(instrument, step int) float64 {
	a.state.Lock()
	defer a.state.Unlock()
	return a.state.engine.drums.getStep(instrument, step)
}

// GetBPM ...
func (a *Audio) GetBPM() float64 {
	a.state.Lock()
	defer a.state.Unlock()
	return a.state.engine.drums.getBPM()
}

// GetActiveNotes ...
func (a *Audio) GetActiveNotes() []int {
	a.state.Lock()
	defer a.state.Unlock()
	return a.state.engine.poly.activeNotes()
}

// GetMixedLoopBuffer renders the selected loop tracks for export.
func (a *Audio) GetMixedLoopBuffer(trackMask int) []float32 {
	a.state.Lock()
	defer a.state.Unlock()
	return a.state.engine.looper.getMixedBuffer(trackMask)
}
