package audio

import (
	"math"
	"math/rand"
)

// ----- Voice State ----- //

const (
	voiceIdle = iota
	voiceActive
	voiceReleasing
)

// ----- Voice ----- //

// voice is one subtractive polyphonic slot: main oscillator, square
// sub-oscillator an octave below, white noise, resonant filter, and a pair
// of envelopes (amplitude and filter). Glide and unison detune act on the
// frequency before LFO pitch modulation.
type voice struct {
	oscillator *osc
	subOsc     *osc

	filter    *filter
	ampEnv    *envelope
	filterEnv *envelope

	// each voice owns its noise source so voices never contend on a
	// shared generator
	rng        *rand.Rand
	noiseLevel float64
	subLevel   float64

	state    int
	midiNote int

	targetFreq   float64
	currentFreq  float64
	glideTime    float64
	glideCoeff   float64
	glideEnabled bool
	firstNote    bool

	detuneRatio float64

	filterBaseCutoff float64
	filterEnvAmount  float64

	// modulation inputs from the global LFO
	lfoPitchMod    float64 // semitones
	lfoFilterMod   float64 // -1..1
	lfoPWMMod      float64 // -0.4..0.4
	basePulseWidth float64
}

func newVoice() *voice {
	v := &voice{
		oscillator:       newOsc(),
		subOsc:           newOsc(),
		filter:           newFilter(),
		ampEnv:           newEnvelope(),
		filterEnv:        newEnvelope(),
		rng:              rand.New(rand.NewSource(rand.Int63())),
		midiNote:         -1,
		targetFreq:       440,
		currentFreq:      440,
		glideCoeff:       1.0,
		firstNote:        true,
		detuneRatio:      1.0,
		filterBaseCutoff: 10000,
		basePulseWidth:   0.5,
	}
	v.ampEnv.setAttack(0.01)
	v.ampEnv.setDecay(0.2)
	v.ampEnv.setSustain(0.7)
	v.ampEnv.setRelease(0.3)
	// faster filter envelope for a percussive sweep
	v.filterEnv.setAttack(0.005)
	v.filterEnv.setDecay(0.3)
	v.filterEnv.setSustain(0.3)
	v.filterEnv.setRelease(0.2)
	v.subOsc.setWaveform(waveSquare)
	return v
}

func (v *voice) noteOn(midiNote int, frequency float64) {
	v.midiNote = midiNote
	v.targetFreq = frequency
	if !(v.glideEnabled && !v.firstNote && v.glideTime > 0) {
		v.currentFreq = frequency
	}
	v.firstNote = false

	detuned := v.currentFreq * v.detuneRatio
	v.oscillator.setFrequency(detuned)
	v.subOsc.setFrequency(detuned * 0.5)
	v.filter.setNoteFrequency(frequency)

	v.oscillator.reset()
	v.subOsc.reset()
	v.filter.reset()
	v.ampEnv.gate(true)
	v.filterEnv.gate(true)
	v.state = voiceActive
}

func (v *voice) noteOff() {
	v.ampEnv.gate(false)
	v.filterEnv.gate(false)
	v.state = voiceReleasing
}

func (v *voice) isActive() bool {
	return v.state != voiceIdle
}

func (v *voice) setWaveform(w int) {
	v.oscillator.setWaveform(w)
}

func (v *voice) setWaveformEnabled(w int, enabled bool) {
	v.oscillator.setWaveformEnabled(w, enabled)
}

func (v *voice) setPulseWidth(width float64) {
	v.basePulseWidth = math.Max(0.1, math.Min(0.9, width))
}

func (v *voice) setSubOscLevel(level float64) {
	v.subLevel = math.Max(0, math.Min(1, level))
}

func (v *voice) setNoiseLevel(level float64) {
	v.noiseLevel = math.Max(0, math.Min(1, level))
}

func (v *voice) setFilterCutoff(cutoffHz float64)     { v.filterBaseCutoff = cutoffHz }
func (v *voice) setFilterResonance(resonance float64) { v.filter.setResonance(resonance) }
func (v *voice) setFilterEnvelopeAmount(amount float64) {
	v.filterEnvAmount = amount
}
func (v *voice) setFilterKeyTracking(amount float64) { v.filter.setKeyTracking(amount) }
func (v *voice) setHPFCutoff(cutoffHz float64)       { v.filter.setHPFCutoff(cutoffHz) }

func (v *voice) setAttack(time float64)   { v.ampEnv.setAttack(time) }
func (v *voice) setDecay(time float64)    { v.ampEnv.setDecay(time) }
func (v *voice) setSustain(level float64) { v.ampEnv.setSustain(level) }
func (v *voice) setRelease(time float64)  { v.ampEnv.setRelease(time) }

func (v *voice) setGlideTime(time float64) {
	v.glideTime = math.Max(0, math.Min(2, time))
	v.updateGlideCoefficient()
}

func (v *voice) setGlideEnabled(enabled bool) {
	v.glideEnabled = enabled
	if !enabled {
		v.firstNote = true
	}
}

func (v *voice) updateGlideCoefficient() {
	if v.glideTime <= 0 {
		v.glideCoeff = 1.0
		return
	}
	// reach ~99% of the target in glideTime (5 time constants)
	tau := v.glideTime / 5.0
	v.glideCoeff = 1.0 - math.Exp(-1.0/(tau*sampleRate))
}

func (v *voice) applyLFOPitchMod(semitones float64) { v.lfoPitchMod = semitones }
func (v *voice) applyLFOFilterMod(amount float64)   { v.lfoFilterMod = amount }
func (v *voice) applyLFOPWMMod(amount float64)      { v.lfoPWMMod = amount }

// setDetune sets the unison spread offset in cents.
func (v *voice) setDetune(cents float64) {
	v.detuneRatio = math.Pow(2.0, cents/1200.0)
}

func (v *voice) nextSample() float64 {
	if v.state == voiceIdle {
		return 0
	}

	if v.glideEnabled && v.glideTime > 0 {
		v.currentFreq += (v.targetFreq - v.currentFreq) * v.glideCoeff
	} else {
		v.currentFreq = v.targetFreq
	}

	pitchModRatio := math.Pow(2.0, v.lfoPitchMod/12.0)
	modulatedFreq := v.currentFreq * v.detuneRatio * pitchModRatio
	v.oscillator.setFrequency(modulatedFreq)
	v.subOsc.setFrequency(modulatedFreq * 0.5)

	modulatedPW := math.Max(0.1, math.Min(0.9, v.basePulseWidth+v.lfoPWMMod))
	v.oscillator.setPulseWidth(modulatedPW)

	mainOsc := v.oscillator.nextSample()
	subOsc := v.subOsc.nextSample() * v.subLevel
	noise := (v.rng.Float64()*2 - 1) * v.noiseLevel

	sample := mainOsc + subOsc + noise
	sample /= 1.0 + v.subLevel*0.5 + v.noiseLevel*0.5

	ampEnv := v.ampEnv.nextSample()
	filterEnv := v.filterEnv.nextSample()

	envMod := filterEnv * v.filterEnvAmount * 10000.0
	lfoMod := v.lfoFilterMod * 5000.0
	cutoff := math.Max(20, math.Min(20000, v.filterBaseCutoff+envMod+lfoMod))
	v.filter.setCutoff(cutoff)

	sample = v.filter.process(sample)
	sample *= ampEnv

	if !v.ampEnv.isActive() {
		v.state = voiceIdle
		v.midiNote = -1
		v.firstNote = true
	}
	return sample
}
