package audio

import (
	"math"
)

const maxPolyphony = 12

// ----- Polyphony Manager ----- //

// polyphonyManager owns the subtractive voice bank: allocation with
// oldest-age stealing, unison voice stacking, the global LFO, smoothed
// auto-gain, a soft limiter, and the stereo chorus at the end of the chain.
type polyphonyManager struct {
	voices     [maxPolyphony]*voice
	voiceAge   [maxPolyphony]uint64
	ageCounter uint64

	lfo    *lfo
	chorus *chorus

	// snapshot of the current parameter set, replayed onto a voice
	// whenever it is (re)allocated
	enabledWaveforms [numWaveforms]bool
	pulseWidth       float64
	subOscLevel      float64
	noiseLevel       float64
	filterCutoff     float64
	filterResonance  float64
	filterEnvAmount  float64
	filterKeyTrack   float64
	hpfCutoff        float64
	attack           float64
	decay            float64
	sustain          float64
	release          float64
	glideTime        float64
	glideEnabled     bool

	unisonEnabled bool
	unisonVoices  int
	unisonDetune  float64 // cents

	masterGain        float64
	currentAutoGain   float64
	autoGainSmoothing float64
}

func newPolyphonyManager() *polyphonyManager {
	p := &polyphonyManager{
		lfo:               newLfo(),
		chorus:            newChorus(),
		pulseWidth:        0.5,
		filterCutoff:      10000,
		filterEnvAmount:   0.3,
		attack:            0.01,
		decay:             0.2,
		sustain:           0.7,
		release:           0.3,
		unisonVoices:      4,
		unisonDetune:      10,
		masterGain:        0.7,
		currentAutoGain:   1.0,
		autoGainSmoothing: 0.9995,
	}
	p.enabledWaveforms[waveSaw] = true
	for i := range p.voices {
		p.voices[i] = newVoice()
		p.applyParamsToVoice(p.voices[i])
	}
	return p
}

func (p *polyphonyManager) noteOn(midiNote int, frequency float64) {
	if p.unisonEnabled {
		p.noteOnUnison(midiNote, frequency)
		return
	}

	// retrigger if the note is already sounding
	if i := p.findVoiceWithNote(midiNote); i >= 0 {
		p.voices[i].noteOn(midiNote, frequency)
		p.ageCounter++
		p.voiceAge[i] = p.ageCounter
		return
	}

	i := p.findFreeVoice()
	if i < 0 {
		i = p.stealOldestVoice()
	}
	p.applyParamsToVoice(p.voices[i])
	p.voices[i].setDetune(0)
	p.voices[i].noteOn(midiNote, frequency)
	p.ageCounter++
	p.voiceAge[i] = p.ageCounter
}

func (p *polyphonyManager) noteOff(midiNote int) {
	if p.unisonEnabled {
		p.noteOffUnison(midiNote)
		return
	}
	for _, v := range p.voices {
		if v.midiNote == midiNote && v.state == voiceActive {
			v.noteOff()
		}
	}
}

func (p *polyphonyManager) allNotesOff() {
	for _, v := range p.voices {
		if v.isActive() {
			v.noteOff()
		}
	}
}

// ----- Parameter fan-out ----- //

func (p *polyphonyManager) setWaveform(w int) {
	for i := range p.enabledWaveforms {
		p.enabledWaveforms[i] = false
	}
	if w >= 0 && w < numWaveforms {
		p.enabledWaveforms[w] = true
	}
	for _, v := range p.voices {
		v.setWaveform(w)
	}
}

func (p *polyphonyManager) setWaveformEnabled(w int, enabled bool) {
	if w >= 0 && w < numWaveforms {
		p.enabledWaveforms[w] = enabled
	}
	for _, v := range p.voices {
		v.setWaveformEnabled(w, enabled)
	}
}

func (p *polyphonyManager) setPulseWidth(width float64) {
	p.pulseWidth = width
	for _, v := range p.voices {
		v.setPulseWidth(width)
	}
}

func (p *polyphonyManager) setSubOscLevel(level float64) {
	p.subOscLevel = level
	for _, v := range p.voices {
		v.setSubOscLevel(level)
	}
}

func (p *polyphonyManager) setNoiseLevel(level float64) {
	p.noiseLevel = level
	for _, v := range p.voices {
		v.setNoiseLevel(level)
	}
}

func (p *polyphonyManager) setFilterCutoff(cutoffHz float64) {
	p.filterCutoff = cutoffHz
	for _, v := range p.voices {
		v.setFilterCutoff(cutoffHz)
	}
}

func (p *polyphonyManager) setFilterResonance(resonance float64) {
	p.filterResonance = resonance
	for _, v := range p.voices {
		v.setFilterResonance(resonance)
	}
}

func (p *polyphonyManager) setFilterEnvelopeAmount(amount float64) {
	p.filterEnvAmount = amount
	for _, v := range p.voices {
		v.setFilterEnvelopeAmount(amount)
	}
}

func (p *polyphonyManager) setFilterKeyTracking(amount float64) {
	p.filterKeyTrack = amount
	for _, v := range p.voices {
		v.setFilterKeyTracking(amount)
	}
}

func (p *polyphonyManager) setHPFCutoff(cutoffHz float64) {
	p.hpfCutoff = cutoffHz
	for _, v := range p.voices {
		v.setHPFCutoff(cutoffHz)
	}
}

func (p *polyphonyManager) setAttack(time float64) {
	p.attack = time
	for _, v := range p.voices {
		v.setAttack(time)
	}
}

func (p *polyphonyManager) setDecay(time float64) {
	p.decay = time
	for _, v := range p.voices {
		v.setDecay(time)
	}
}

func (p *polyphonyManager) setSustain(level float64) {
	p.sustain = level
	for _, v := range p.voices {
		v.setSustain(level)
	}
}

func (p *polyphonyManager) setRelease(time float64) {
	p.release = time
	for _, v := range p.voices {
		v.setRelease(time)
	}
}

func (p *polyphonyManager) setLFORate(rateHz float64)      { p.lfo.setRate(rateHz) }
func (p *polyphonyManager) setLFOPitchDepth(depth float64) { p.lfo.setPitchDepth(depth) }
func (p *polyphonyManager) setLFOFilterDepth(depth float64) {
	p.lfo.setFilterDepth(depth)
}
func (p *polyphonyManager) setLFOPWMDepth(depth float64) { p.lfo.setPWMDepth(depth) }

func (p *polyphonyManager) setChorusMode(mode int) { p.chorus.setMode(mode) }

func (p *polyphonyManager) setGlideTime(time float64) {
	p.glideTime = time
	for _, v := range p.voices {
		v.setGlideTime(time)
	}
}

func (p *polyphonyManager) setGlideEnabled(enabled bool) {
	p.glideEnabled = enabled
	for _, v := range p.voices {
		v.setGlideEnabled(enabled)
	}
}

func (p *polyphonyManager) setUnisonEnabled(enabled bool) {
	if p.unisonEnabled != enabled {
		// release everything so no note stays stuck across the mode flip
		p.allNotesOff()
	}
	p.unisonEnabled = enabled
}

func (p *polyphonyManager) setUnisonVoices(count int) {
	if count < 1 {
		count = 1
	}
	if count > 8 {
		count = 8
	}
	p.unisonVoices = count
}

func (p *polyphonyManager) setUnisonDetune(cents float64) {
	p.unisonDetune = math.Max(0, math.Min(50, cents))
}

func (p *polyphonyManager) setMasterGain(gain float64) {
	p.masterGain = math.Max(0, math.Min(1, gain))
}

// ----- Unison ----- //

func (p *polyphonyManager) noteOnUnison(midiNote int, frequency float64) {
	voicesToUse := p.unisonVoices
	if voicesToUse > maxPolyphony {
		voicesToUse = maxPolyphony
	}

	// retrigger the whole stack if the note is already sounding
	for _, v := range p.voices {
		if v.midiNote == midiNote && v.isActive() {
			for _, u := range p.voices {
				if u.midiNote == midiNote {
					u.noteOn(midiNote, frequency)
				}
			}
			return
		}
	}

	for n := 0; n < voicesToUse; n++ {
		i := p.findFreeVoice()
		if i < 0 {
			i = p.stealOldestVoice()
		}
		p.applyParamsToVoice(p.voices[i])
		p.voices[i].setDetune(p.unisonDetuneCents(n, voicesToUse))
		p.voices[i].noteOn(midiNote, frequency)
		p.ageCounter++
		p.voiceAge[i] = p.ageCounter
	}
}

func (p *polyphonyManager) noteOffUnison(midiNote int) {
	for _, v := range p.voices {
		if v.midiNote == midiNote && v.state == voiceActive {
			v.noteOff()
		}
	}
}

// unisonDetuneCents spreads the stack evenly across ±unisonDetune cents.
func (p *polyphonyManager) unisonDetuneCents(voiceIndex, totalVoices int) float64 {
	if totalVoices <= 1 {
		return 0
	}
	spread := p.unisonDetune
	step := spread * 2.0 / float64(totalVoices-1)
	return -spread + step*float64(voiceIndex)
}

// ----- Rendering ----- //

func (p *polyphonyManager) applyLFOToVoices() {
	pitchMod := p.lfo.pitchMod()
	filterMod := p.lfo.filterMod()
	pwmMod := p.lfo.pwmMod()
	for _, v := range p.voices {
		if v.isActive() {
			v.applyLFOPitchMod(pitchMod)
			v.applyLFOFilterMod(filterMod)
			v.applyLFOPWMMod(pwmMod)
		}
	}
}

func (p *polyphonyManager) countActiveVoices() int {
	count := 0
	for _, v := range p.voices {
		if v.isActive() {
			count++
		}
	}
	return count
}

func (p *polyphonyManager) activeNotes() []int {
	notes := make([]int, 0, maxPolyphony)
	for _, v := range p.voices {
		if v.isActive() && v.midiNote >= 0 {
			notes = append(notes, v.midiNote)
		}
	}
	return notes
}

func (p *polyphonyManager) nextSample() (float64, float64) {
	p.lfo.tick()
	p.applyLFOToVoices()

	sum := 0.0
	activeCount := 0
	for _, v := range p.voices {
		if v.isActive() {
			sum += v.nextSample()
			activeCount++
		}
	}

	targetAutoGain := 1.0
	if activeCount > 1 {
		targetAutoGain = 1.0 / math.Sqrt(float64(activeCount))
	}
	p.currentAutoGain = p.currentAutoGain*p.autoGainSmoothing +
		targetAutoGain*(1.0-p.autoGainSmoothing)

	sum *= p.currentAutoGain * p.masterGain
	sum = softLimit(sum)

	return p.chorus.process(sum)
}

// softLimit passes signals below 0.8 untouched, compresses through a 0.2
// knee, and approaches ±1 asymptotically above it.
func softLimit(sample float64) float64 {
	const threshold = 0.8
	const knee = 0.2

	absSample := math.Abs(sample)
	if absSample <= threshold {
		return sample
	}
	var out float64
	if absSample <= threshold+knee {
		excess := absSample - threshold
		out = threshold + excess*(1.0-excess/(2.0*knee))
	} else {
		excess := absSample - threshold - knee
		out = threshold + knee*0.5 + (1.0-threshold-knee*0.5)*math.Tanh(excess*2.0)
	}
	if sample > 0 {
		return out
	}
	return -out
}

// ----- Allocation ----- //

func (p *polyphonyManager) findFreeVoice() int {
	for i, v := range p.voices {
		if !v.isActive() {
			return i
		}
	}
	return -1
}

func (p *polyphonyManager) findVoiceWithNote(midiNote int) int {
	for i, v := range p.voices {
		if v.midiNote == midiNote && v.isActive() {
			return i
		}
	}
	return -1
}

func (p *polyphonyManager) stealOldestVoice() int {
	minAge := uint64(math.MaxUint64)
	oldest := 0
	for i := range p.voices {
		if p.voiceAge[i] < minAge {
			minAge = p.voiceAge[i]
			oldest = i
		}
	}
	return oldest
}

func (p *polyphonyManager) applyParamsToVoice(v *voice) {
	for w := 0; w < numWaveforms; w++ {
		v.setWaveformEnabled(w, p.enabledWaveforms[w])
	}
	v.setPulseWidth(p.pulseWidth)
	v.setSubOscLevel(p.subOscLevel)
	v.setNoiseLevel(p.noiseLevel)
	v.setFilterCutoff(p.filterCutoff)
	v.setFilterResonance(p.filterResonance)
	v.setFilterEnvelopeAmount(p.filterEnvAmount)
	v.setFilterKeyTracking(p.filterKeyTrack)
	v.setHPFCutoff(p.hpfCutoff)
	v.setAttack(p.attack)
	v.setDecay(p.decay)
	v.setSustain(p.sustain)
	v.setRelease(p.release)
	v.setGlideTime(p.glideTime)
	v.setGlideEnabled(p.glideEnabled)
}
