package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// Every control group keeps the most recently requested values so a preset
// can be serialized back out, and fans them into the engine graph on apply.

// ----- Osc Controls ----- //

type oscParams struct {
	waveforms  [numWaveforms]bool
	pulseWidth float64
	subLevel   float64
	noiseLevel float64
}

type oscJSON struct {
	Waveforms  []string `json:"waveforms"`
	PulseWidth float64  `json:"pulseWidth"`
	SubLevel   float64  `json:"subLevel"`
	NoiseLevel float64  `json:"noiseLevel"`
}

func newOscParams() *oscParams {
	p := &oscParams{pulseWidth: 0.5}
	p.waveforms[waveSaw] = true
	return p
}

func (p *oscParams) applyJSON(data json.RawMessage) {
	var j oscJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to oscParams")
		return
	}
	for i := range p.waveforms {
		p.waveforms[i] = false
	}
	for _, name := range j.Waveforms {
		p.waveforms[waveformFromString(name)] = true
	}
	p.pulseWidth = j.PulseWidth
	p.subLevel = j.SubLevel
	p.noiseLevel = j.NoiseLevel
}

func (p *oscParams) toJSON() json.RawMessage {
	names := make([]string, 0, numWaveforms)
	for w, enabled := range p.waveforms {
		if enabled {
			names = append(names, waveformToString(w))
		}
	}
	return toRawMessage(&oscJSON{
		Waveforms:  names,
		PulseWidth: p.pulseWidth,
		SubLevel:   p.subLevel,
		NoiseLevel: p.noiseLevel,
	})
}

func (p *oscParams) set(key string, value string) error {
	switch key {
	case "waveform":
		for i := range p.waveforms {
			p.waveforms[i] = false
		}
		p.waveforms[waveformFromString(value)] = true
	case "sine", "square", "saw", "triangle":
		p.waveforms[waveformFromString(key)] = value == "true"
	case "pulse_width":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.pulseWidth = v
	case "sub_level":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.subLevel = v
	case "noise_level":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.noiseLevel = v
	}
	return nil
}

func (p *oscParams) apply(e *engine) {
	for w, enabled := range p.waveforms {
		e.poly.setWaveformEnabled(w, enabled)
	}
	e.poly.setPulseWidth(p.pulseWidth)
	e.poly.setSubOscLevel(p.subLevel)
	e.poly.setNoiseLevel(p.noiseLevel)
}

// ----- Filter Controls ----- //

type filterParams struct {
	cutoff      float64
	resonance   float64
	envAmount   float64
	keyTracking float64
	hpfCutoff   float64
}

type filterJSON struct {
	Cutoff      float64 `json:"cutoff"`
	Resonance   float64 `json:"resonance"`
	EnvAmount   float64 `json:"envAmount"`
	KeyTracking float64 `json:"keyTracking"`
	HPFCutoff   float64 `json:"hpfCutoff"`
}

func newFilterParams() *filterParams {
	return &filterParams{cutoff: 10000, envAmount: 0.3}
}

func (p *filterParams) applyJSON(data json.RawMessage) {
	var j filterJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to filterParams")
		return
	}
	p.cutoff = j.Cutoff
	p.resonance = j.Resonance
	p.envAmount = j.EnvAmount
	p.keyTracking = j.KeyTracking
	p.hpfCutoff = j.HPFCutoff
}

func (p *filterParams) toJSON() json.RawMessage {
	return toRawMessage(&filterJSON{
		Cutoff:      p.cutoff,
		Resonance:   p.resonance,
		EnvAmount:   p.envAmount,
		KeyTracking: p.keyTracking,
		HPFCutoff:   p.hpfCutoff,
	})
}

func (p *filterParams) set(key string, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "cutoff":
		p.cutoff = v
	case "resonance":
		p.resonance = v
	case "env_amount":
		p.envAmount = v
	case "key_tracking":
		p.keyTracking = v
	case "hpf_cutoff":
		p.hpfCutoff = v
	}
	return nil
}

func (p *filterParams) apply(e *engine) {
	e.poly.setFilterCutoff(p.cutoff)
	e.poly.setFilterResonance(p.resonance)
	e.poly.setFilterEnvelopeAmount(p.envAmount)
	e.poly.setFilterKeyTracking(p.keyTracking)
	e.poly.setHPFCutoff(p.hpfCutoff)
}

// ----- ADSR Controls ----- //

type adsrParams struct {
	attack  float64 // seconds
	decay   float64
	sustain float64 // 0-1
	release float64
}

type adsrJSON struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

func newAdsrParams() *adsrParams {
	return &adsrParams{attack: 0.01, decay: 0.2, sustain: 0.7, release: 0.3}
}

func (p *adsrParams) applyJSON(data json.RawMessage) {
	var j adsrJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to adsrParams")
		return
	}
	p.attack = j.Attack
	p.decay = j.Decay
	p.sustain = j.Sustain
	p.release = j.Release
}

func (p *adsrParams) toJSON() json.RawMessage {
	return toRawMessage(&adsrJSON{
		Attack:  p.attack,
		Decay:   p.decay,
		Sustain: p.sustain,
		Release: p.release,
	})
}

func (p *adsrParams) set(key string, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "attack":
		p.attack = v
	case "decay":
		p.decay = v
	case "sustain":
		p.sustain = v
	case "release":
		p.release = v
	}
	return nil
}

func (p *adsrParams) apply(e *engine) {
	e.poly.setAttack(p.attack)
	e.poly.setDecay(p.decay)
	e.poly.setSustain(p.sustain)
	e.poly.setRelease(p.release)
}

// ----- LFO Controls ----- //

type lfoParams struct {
	rate        float64
	pitchDepth  float64
	filterDepth float64
	pwmDepth    float64
}

type lfoJSON struct {
	Rate        float64 `json:"rate"`
	PitchDepth  float64 `json:"pitchDepth"`
	FilterDepth float64 `json:"filterDepth"`
	PWMDepth    float64 `json:"pwmDepth"`
}

func newLfoParams() *lfoParams {
	return &lfoParams{rate: 1.0}
}

func (p *lfoParams) applyJSON(data json.RawMessage) {
	var j lfoJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to lfoParams")
		return
	}
	p.rate = j.Rate
	p.pitchDepth = j.PitchDepth
	p.filterDepth = j.FilterDepth
	p.pwmDepth = j.PWMDepth
}

func (p *lfoParams) toJSON() json.RawMessage {
	return toRawMessage(&lfoJSON{
		Rate:        p.rate,
		PitchDepth:  p.pitchDepth,
		FilterDepth: p.filterDepth,
		PWMDepth:    p.pwmDepth,
	})
}

func (p *lfoParams) set(key string, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "rate":
		p.rate = v
	case "pitch_depth":
		p.pitchDepth = v
	case "filter_depth":
		p.filterDepth = v
	case "pwm_depth":
		p.pwmDepth = v
	}
	return nil
}

func (p *lfoParams) apply(e *engine) {
	e.poly.setLFORate(p.rate)
	e.poly.setLFOPitchDepth(p.pitchDepth)
	e.poly.setLFOFilterDepth(p.filterDepth)
	e.poly.setLFOPWMDepth(p.pwmDepth)
}

// ----- Glide / Unison / Chorus Controls ----- //

type voicingParams struct {
	glideTime     float64
	glideEnabled  bool
	unisonEnabled bool
	unisonVoices  int
	unisonDetune  float64
	chorusMode    int
}

type voicingJSON struct {
	GlideTime     float64 `json:"glideTime"`
	GlideEnabled  bool    `json:"glideEnabled"`
	UnisonEnabled bool    `json:"unisonEnabled"`
	UnisonVoices  int     `json:"unisonVoices"`
	UnisonDetune  float64 `json:"unisonDetune"`
	ChorusMode    int     `json:"chorusMode"`
}

func newVoicingParams() *voicingParams {
	return &voicingParams{unisonVoices: 4, unisonDetune: 10}
}

func (p *voicingParams) applyJSON(data json.RawMessage) {
	var j voicingJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to voicingParams")
		return
	}
	p.glideTime = j.GlideTime
	p.glideEnabled = j.GlideEnabled
	p.unisonEnabled = j.UnisonEnabled
	p.unisonVoices = j.UnisonVoices
	p.unisonDetune = j.UnisonDetune
	p.chorusMode = j.ChorusMode
}

func (p *voicingParams) toJSON() json.RawMessage {
	return toRawMessage(&voicingJSON{
		GlideTime:     p.glideTime,
		GlideEnabled:  p.glideEnabled,
		UnisonEnabled: p.unisonEnabled,
		UnisonVoices:  p.unisonVoices,
		UnisonDetune:  p.unisonDetune,
		ChorusMode:    p.chorusMode,
	})
}

func (p *voicingParams) set(key string, value string) error {
	switch key {
	case "glide_time":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.glideTime = v
	case "glide_enabled":
		p.glideEnabled = value == "true"
	case "unison_enabled":
		p.unisonEnabled = value == "true"
	case "unison_voices":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		p.unisonVoices = int(v)
	case "unison_detune":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.unisonDetune = v
	case "chorus_mode":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		p.chorusMode = int(v)
	}
	return nil
}

func (p *voicingParams) apply(e *engine) {
	e.poly.setGlideTime(p.glideTime)
	e.poly.setGlideEnabled(p.glideEnabled)
	e.poly.setUnisonEnabled(p.unisonEnabled)
	e.poly.setUnisonVoices(p.unisonVoices)
	e.poly.setUnisonDetune(p.unisonDetune)
	e.poly.setChorusMode(p.chorusMode)
}

// ----- FX Controls (shared shape for synth and wurlitzer chains) ----- //

type fxParams struct {
	tremoloRate   float64
	tremoloDepth  float64
	reverbSize    float64
	reverbMix     float64
	delayTime     float64
	delayFeedback float64
	delayMix      float64
}

type fxJSON struct {
	TremoloRate   float64 `json:"tremoloRate"`
	TremoloDepth  float64 `json:"tremoloDepth"`
	ReverbSize    float64 `json:"reverbSize"`
	ReverbMix     float64 `json:"reverbMix"`
	DelayTime     float64 `json:"delayTime"`
	DelayFeedback float64 `json:"delayFeedback"`
	DelayMix      float64 `json:"delayMix"`
}

func newSynthFxParams() *fxParams {
	return &fxParams{tremoloRate: 5, reverbSize: 0.5, delayTime: 0.3, delayFeedback: 0.3}
}

func newWurliFxParams() *fxParams {
	return &fxParams{tremoloRate: 5, reverbSize: 0.3, delayTime: 0.25, delayFeedback: 0.3}
}

func (p *fxParams) applyJSON(data json.RawMessage) {
	var j fxJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to fxParams")
		return
	}
	p.tremoloRate = j.TremoloRate
	p.tremoloDepth = j.TremoloDepth
	p.reverbSize = j.ReverbSize
	p.reverbMix = j.ReverbMix
	p.delayTime = j.DelayTime
	p.delayFeedback = j.DelayFeedback
	p.delayMix = j.DelayMix
}

func (p *fxParams) toJSON() json.RawMessage {
	return toRawMessage(&fxJSON{
		TremoloRate:   p.tremoloRate,
		TremoloDepth:  p.tremoloDepth,
		ReverbSize:    p.reverbSize,
		ReverbMix:     p.reverbMix,
		DelayTime:     p.delayTime,
		DelayFeedback: p.delayFeedback,
		DelayMix:      p.delayMix,
	})
}

func (p *fxParams) set(key string, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "tremolo_rate":
		p.tremoloRate = v
	case "tremolo_depth":
		p.tremoloDepth = v
	case "reverb_size":
		p.reverbSize = v
	case "reverb_mix":
		p.reverbMix = v
	case "delay_time":
		p.delayTime = v
	case "delay_feedback":
		p.delayFeedback = v
	case "delay_mix":
		p.delayMix = v
	}
	return nil
}

func (p *fxParams) applySynth(e *engine) {
	e.synthTremolo.setRate(p.tremoloRate)
	e.synthTremolo.setDepth(p.tremoloDepth)
	e.synthReverb.setSize(p.reverbSize)
	e.synthReverb.setMix(p.reverbMix)
	e.synthDelay.setTime(p.delayTime)
	e.synthDelay.setFeedback(p.delayFeedback)
	e.synthDelay.setMix(p.delayMix)
}

func (p *fxParams) applyWurli(e *engine) {
	e.wurli.setTremoloRate(p.tremoloRate)
	e.wurli.setTremoloDepth(p.tremoloDepth)
	e.wurli.setReverbSize(p.reverbSize)
	e.wurli.setReverbMix(p.reverbMix)
	e.wurli.setDelayTime(p.delayTime)
	e.wurli.setDelayFeedback(p.delayFeedback)
	e.wurli.setDelayMix(p.delayMix)
}

// ----- Volume Controls ----- //

type volumeParams struct {
	synth     float64
	wurli     float64
	drum      float64
	metronome float64
}

type volumeJSON struct {
	Synth     float64 `json:"synth"`
	Wurli     float64 `json:"wurli"`
	Drum      float64 `json:"drum"`
	Metronome float64 `json:"metronome"`
}

func newVolumeParams() *volumeParams {
	return &volumeParams{synth: 0.7, wurli: 0.7, drum: 0.7, metronome: 0.3}
}

func (p *volumeParams) applyJSON(data json.RawMessage) {
	var j volumeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to volumeParams")
		return
	}
	p.synth = j.Synth
	p.wurli = j.Wurli
	p.drum = j.Drum
	p.metronome = j.Metronome
}

func (p *volumeParams) toJSON() json.RawMessage {
	return toRawMessage(&volumeJSON{
		Synth:     p.synth,
		Wurli:     p.wurli,
		Drum:      p.drum,
		Metronome: p.metronome,
	})
}

func (p *volumeParams) set(key string, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "synth":
		p.synth = v
	case "wurli":
		p.wurli = v
	case "drum":
		p.drum = v
	case "metronome":
		p.metronome = v
	}
	return nil
}

func (p *volumeParams) apply(e *engine) {
	e.setSynthVolume(p.synth)
	e.wurli.setVolume(p.wurli)
	e.drums.setVolume(p.drum)
	e.setMetronomeVolume(p.metronome)
}

// ----- Params (whole patch) ----- //

type params struct {
	wurlitzerMode bool
	osc           *oscParams
	filter        *filterParams
	adsr          *adsrParams
	lfo           *lfoParams
	voicing       *voicingParams
	synthFx       *fxParams
	wurliFx       *fxParams
	volumes       *volumeParams
}

type paramsJSON struct {
	Mode    string          `json:"mode"`
	Osc     json.RawMessage `json:"osc"`
	Filter  json.RawMessage `json:"filter"`
	Adsr    json.RawMessage `json:"adsr"`
	Lfo     json.RawMessage `json:"lfo"`
	Voicing json.RawMessage `json:"voicing"`
	SynthFx json.RawMessage `json:"synthFx"`
	WurliFx json.RawMessage `json:"wurliFx"`
	Volumes json.RawMessage `json:"volumes"`
}

func newParams() *params {
	return &params{
		osc:     newOscParams(),
		filter:  newFilterParams(),
		adsr:    newAdsrParams(),
		lfo:     newLfoParams(),
		voicing: newVoicingParams(),
		synthFx: newSynthFxParams(),
		wurliFx: newWurliFxParams(),
		volumes: newVolumeParams(),
	}
}

func (p *params) applyJSON(data json.RawMessage) {
	var j paramsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		log.Println("failed to apply JSON to params")
		return
	}
	p.wurlitzerMode = j.Mode == "wurlitzer"
	p.osc.applyJSON(j.Osc)
	p.filter.applyJSON(j.Filter)
	p.adsr.applyJSON(j.Adsr)
	p.lfo.applyJSON(j.Lfo)
	p.voicing.applyJSON(j.Voicing)
	p.synthFx.applyJSON(j.SynthFx)
	p.wurliFx.applyJSON(j.WurliFx)
	p.volumes.applyJSON(j.Volumes)
}

func (p *params) toJSON() json.RawMessage {
	mode := "synth"
	if p.wurlitzerMode {
		mode = "wurlitzer"
	}
	return toRawMessage(&paramsJSON{
		Mode:    mode,
		Osc:     p.osc.toJSON(),
		Filter:  p.filter.toJSON(),
		Adsr:    p.adsr.toJSON(),
		Lfo:     p.lfo.toJSON(),
		Voicing: p.voicing.toJSON(),
		SynthFx: p.synthFx.toJSON(),
		WurliFx: p.wurliFx.toJSON(),
		Volumes: p.volumes.toJSON(),
	})
}

func (p *params) apply(e *engine) {
	e.setWurlitzerMode(p.wurlitzerMode)
	p.osc.apply(e)
	p.filter.apply(e)
	p.adsr.apply(e)
	p.lfo.apply(e)
	p.voicing.apply(e)
	p.synthFx.applySynth(e)
	p.wurliFx.applyWurli(e)
	p.volumes.apply(e)
}
