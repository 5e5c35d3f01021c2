package audio

import (
	"math"
	"math/rand"
)

// ----- Drum Synth ----- //

// drumSynth generates kick, snare, and hi-hat on the fly, 808/707 style:
// the kick is a pitch-swept sine with a noise click, the snare a body tone
// plus bandpass-filtered noise, the hi-hat six inharmonic square waves
// through a high-pass with a noise layer.
type drumSynth struct {
	rng *rand.Rand

	kick  kickState
	snare snareState
	hihat hihatState
}

type kickState struct {
	active      bool
	phase       float64
	pitchEnv    float64
	ampEnv      float64
	velocity    float64
	sampleCount int
}

const (
	kickStartFreq     = 150.0
	kickEndFreq       = 55.0
	kickPitchDecay    = 0.0008
	kickAmpDecay      = 0.00005
	kickClickDuration = 2.0 // ms
)

type snareState struct {
	active      bool
	bodyPhase   float64
	toneEnv     float64
	noiseEnv    float64
	velocity    float64
	sampleCount int

	// state variable filter for the noise band
	bpLow  float64
	bpBand float64
}

const (
	snareBodyFreq   = 200.0
	snareToneDecay  = 0.00035
	snareNoiseDecay = 0.00045
	snareBodyMix    = 0.85
	snareNoiseMix   = 0.15
	snareBPFreq     = 3500.0
	snareBPQ        = 0.7
)

type hihatState struct {
	active      bool
	phases      [6]float64
	ampEnv      float64
	velocity    float64
	sampleCount int

	hpState      float64
	noiseHpState float64
}

// inharmonic partials of the classic analog hi-hat circuit
var hihatFreqs = [6]float64{205.3, 369.6, 304.4, 522.7, 800.0, 1127.0}

const (
	hihatAmpDecay = 0.0006
	hihatHPFreq   = 7000.0
	hihatToneMix  = 0.6
	hihatNoiseMix = 0.4
)

func newDrumSynth() *drumSynth {
	return &drumSynth{
		rng: rand.New(rand.NewSource(rand.Int63())),
	}
}

func (d *drumSynth) triggerKick(velocity float64) {
	d.kick.active = true
	// exponential velocity curve for a more natural response
	v := math.Max(0, math.Min(1, velocity))
	d.kick.velocity = v * v
	d.kick.phase = 0
	d.kick.pitchEnv = 1.0
	d.kick.ampEnv = 1.0
	d.kick.sampleCount = 0
}

func (d *drumSynth) triggerSnare(velocity float64) {
	d.snare.active = true
	v := math.Max(0, math.Min(1, velocity))
	d.snare.velocity = v * v
	d.snare.bodyPhase = 0
	d.snare.toneEnv = 1.0
	d.snare.noiseEnv = 1.0
	d.snare.bpLow = 0
	d.snare.bpBand = 0
	d.snare.sampleCount = 0
}

func (d *drumSynth) triggerHiHat(velocity float64) {
	d.hihat.active = true
	d.hihat.velocity = math.Max(0.3, math.Min(1, velocity))
	d.hihat.ampEnv = 1.0
	d.hihat.sampleCount = 0
	for i := range d.hihat.phases {
		d.hihat.phases[i] = 0
	}
	d.hihat.hpState = 0
}

func (d *drumSynth) nextSample() float64 {
	output := 0.0
	if d.kick.active {
		output += d.generateKickSample()
	}
	if d.snare.active {
		output += d.generateSnareSample()
	}
	if d.hihat.active {
		output += d.generateHiHatSample()
	}
	return output
}

func (d *drumSynth) isActive() bool {
	return d.kick.active || d.snare.active || d.hihat.active
}

func (d *drumSynth) noise() float64 {
	return d.rng.Float64()*2 - 1
}

func (d *drumSynth) generateKickSample() float64 {
	currentFreq := kickEndFreq + (kickStartFreq-kickEndFreq)*d.kick.pitchEnv

	sample := math.Sin(d.kick.phase * 2 * math.Pi)

	clickDurationSamples := kickClickDuration / 1000.0 * sampleRate
	if float64(d.kick.sampleCount) < clickDurationSamples {
		clickEnv := 1.0 - float64(d.kick.sampleCount)/clickDurationSamples
		sample += d.noise() * clickEnv * 0.15
	}

	sample *= d.kick.ampEnv

	d.kick.phase += currentFreq / sampleRate
	if d.kick.phase >= 1.0 {
		d.kick.phase -= 1.0
	}

	const sampleRateScale = sampleRate / 48000.0
	d.kick.pitchEnv *= 1.0 - kickPitchDecay*sampleRateScale
	d.kick.ampEnv *= 1.0 - kickAmpDecay*sampleRateScale
	d.kick.sampleCount++

	if d.kick.ampEnv < 0.001 {
		d.kick.active = false
	}
	return sample * d.kick.velocity
}

func (d *drumSynth) generateSnareSample() float64 {
	body := math.Sin(d.snare.bodyPhase * 2 * math.Pi)
	toneSample := body * snareBodyMix * d.snare.toneEnv

	rawNoise := d.noise()

	// SVF bandpass keeps the rattle without harsh highs
	f := 2.0 * math.Sin(math.Pi*snareBPFreq/sampleRate)
	q := 1.0 / snareBPQ
	d.snare.bpLow += f * d.snare.bpBand
	bpHigh := rawNoise - d.snare.bpLow - q*d.snare.bpBand
	d.snare.bpBand += f * bpHigh

	noiseSample := d.snare.bpBand * snareNoiseMix * d.snare.noiseEnv

	sample := toneSample + noiseSample

	d.snare.bodyPhase += snareBodyFreq / sampleRate
	if d.snare.bodyPhase >= 1.0 {
		d.snare.bodyPhase -= 1.0
	}

	const sampleRateScale = sampleRate / 48000.0
	d.snare.toneEnv *= 1.0 - snareToneDecay*sampleRateScale
	d.snare.noiseEnv *= 1.0 - snareNoiseDecay*sampleRateScale
	d.snare.sampleCount++

	if d.snare.toneEnv < 0.001 && d.snare.noiseEnv < 0.001 {
		d.snare.active = false
	}
	return sample * d.snare.velocity
}

func (d *drumSynth) generateHiHatSample() float64 {
	toneSum := 0.0
	for i := range d.hihat.phases {
		if d.hihat.phases[i] < 0.5 {
			toneSum += 1.0
		} else {
			toneSum -= 1.0
		}
		d.hihat.phases[i] += hihatFreqs[i] / sampleRate
		if d.hihat.phases[i] >= 1.0 {
			d.hihat.phases[i] -= 1.0
		}
	}
	toneSum /= 6.0

	hpCoeff := 1.0 - math.Exp(-2.0*math.Pi*hihatHPFreq/sampleRate)
	d.hihat.hpState += hpCoeff * (toneSum - d.hihat.hpState)
	filteredTone := toneSum - d.hihat.hpState

	noise := d.noise()
	d.hihat.noiseHpState += hpCoeff * (noise - d.hihat.noiseHpState)
	filteredNoise := noise - d.hihat.noiseHpState

	sample := filteredTone*hihatToneMix + filteredNoise*hihatNoiseMix
	sample *= d.hihat.ampEnv * d.hihat.velocity

	const sampleRateScale = sampleRate / 48000.0
	d.hihat.ampEnv *= 1.0 - hihatAmpDecay*sampleRateScale
	d.hihat.sampleCount++

	if d.hihat.ampEnv < 0.001 {
		d.hihat.active = false
	}
	return sample * 0.175
}
