package audio

import (
	"math"
)

// ----- Envelope Stage ----- //

const (
	stageIdle = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// ----- Envelope ----- //

/*
  1 +     x
    |    / \
    |   /   \
  s +  /     x------x
    | /              \
    |/                \
  0 +-----+--+------+---
    |a    |d |      |r |
*/
// envelope is a retriggerable ADSR gain contour. Attack and release are
// linear ramps; decay is a leaky exponential approach to the sustain level.
type envelope struct {
	attackTime  float64 // seconds
	decayTime   float64
	releaseTime float64

	attackRate   float64 // per-sample increments
	decayRate    float64
	releaseRate  float64
	sustainLevel float64

	level float64
	stage int
}

func newEnvelope() *envelope {
	e := &envelope{
		attackTime:   0.01,
		decayTime:    0.1,
		releaseTime:  0.3,
		sustainLevel: 0.7,
	}
	e.calculateRates()
	return e
}

func envelopeRate(time float64) float64 {
	return 1.0 / (time * sampleRate)
}

func (e *envelope) calculateRates() {
	e.attackRate = envelopeRate(e.attackTime)
	e.decayRate = envelopeRate(e.decayTime)
	e.releaseRate = envelopeRate(e.releaseTime)
}

func (e *envelope) setAttack(time float64) {
	e.attackTime = math.Max(0.001, time)
	e.attackRate = envelopeRate(e.attackTime)
}

func (e *envelope) setDecay(time float64) {
	e.decayTime = math.Max(0.001, time)
	e.decayRate = envelopeRate(e.decayTime)
}

func (e *envelope) setSustain(level float64) {
	e.sustainLevel = math.Max(0, math.Min(1, level))
}

func (e *envelope) setRelease(time float64) {
	e.releaseTime = math.Max(0.001, time)
	e.releaseRate = envelopeRate(e.releaseTime)
}

// gate starts the attack on true and the release on false. The level is not
// reset on retrigger so a voice can re-gate from wherever it currently is.
func (e *envelope) gate(on bool) {
	if on {
		e.stage = stageAttack
	} else if e.stage != stageIdle {
		e.stage = stageRelease
	}
}

func (e *envelope) isActive() bool {
	return e.stage != stageIdle
}

func (e *envelope) nextSample() float64 {
	switch e.stage {
	case stageIdle:
		e.level = 0
	case stageAttack:
		e.level += e.attackRate
		if e.level >= 1.0 {
			e.level = 1.0
			e.stage = stageDecay
		}
	case stageDecay:
		e.level -= e.decayRate * (e.level - e.sustainLevel + 0.001)
		if e.level <= e.sustainLevel+0.0001 {
			e.level = e.sustainLevel
			e.stage = stageSustain
		}
	case stageSustain:
		e.level = e.sustainLevel
	case stageRelease:
		e.level -= e.releaseRate
		if e.level <= 0 {
			e.level = 0
			e.stage = stageIdle
		}
	}
	e.level = math.Max(0, math.Min(1, e.level))
	return e.level
}
