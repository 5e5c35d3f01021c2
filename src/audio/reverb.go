package audio

import (
	"math"
)

// ----- Reverb ----- //

// Schroeder topology: four parallel combs into two series allpasses per
// channel, with the right side's delays offset for stereo decorrelation.
var combDelays = [4]int{1557, 1617, 1491, 1422}
var allpassDelays = [2]int{225, 556}

const combDelayOffsetR = 23
const allpassDelayOffsetR = 11

type combFilter struct {
	buffer      []float64
	writePos    int
	filterState float64
	feedback    float64
	damping     float64
}

func (c *combFilter) process(input float64, delaySamples int) float64 {
	size := len(c.buffer)
	if delaySamples > size-1 {
		delaySamples = size - 1
	}
	readPos := c.writePos - delaySamples
	if readPos < 0 {
		readPos += size
	}
	delayed := c.buffer[readPos]

	// one-pole damping in the feedback path
	c.filterState = delayed*(1.0-c.damping) + c.filterState*c.damping
	c.buffer[c.writePos] = input + c.filterState*c.feedback

	c.writePos++
	if c.writePos >= size {
		c.writePos = 0
	}
	return delayed
}

type allpassFilter struct {
	buffer   []float64
	writePos int
	feedback float64
}

func (a *allpassFilter) process(input float64, delaySamples int) float64 {
	size := len(a.buffer)
	if delaySamples > size-1 {
		delaySamples = size - 1
	}
	readPos := a.writePos - delaySamples
	if readPos < 0 {
		readPos += size
	}
	delayed := a.buffer[readPos]
	output := -input + delayed
	a.buffer[a.writePos] = input + delayed*a.feedback

	a.writePos++
	if a.writePos >= size {
		a.writePos = 0
	}
	return output
}

type reverb struct {
	size    float64
	damping float64
	mix     float64

	combsL   [4]combFilter
	combsR   [4]combFilter
	allpassL [2]allpassFilter
	allpassR [2]allpassFilter
}

func newReverb() *reverb {
	r := &reverb{
		size:    0.5,
		damping: 0.5,
		mix:     0.3,
	}
	for i := range r.combsL {
		r.combsL[i] = combFilter{
			buffer:   make([]float64, combDelays[i]+1),
			feedback: 0.7,
			damping:  0.5,
		}
		r.combsR[i] = combFilter{
			buffer:   make([]float64, combDelays[i]+combDelayOffsetR+1),
			feedback: 0.7,
			damping:  0.5,
		}
	}
	for i := range r.allpassL {
		r.allpassL[i] = allpassFilter{
			buffer:   make([]float64, allpassDelays[i]+1),
			feedback: 0.5,
		}
		r.allpassR[i] = allpassFilter{
			buffer:   make([]float64, allpassDelays[i]+allpassDelayOffsetR+1),
			feedback: 0.5,
		}
	}
	r.setSize(r.size)
	return r
}

func (r *reverb) setSize(size float64) {
	r.size = math.Max(0, math.Min(1, size))
	feedback := 0.5 + r.size*0.45
	for i := range r.combsL {
		r.combsL[i].feedback = feedback
		r.combsR[i].feedback = feedback
	}
}

func (r *reverb) setDamping(damping float64) {
	r.damping = math.Max(0, math.Min(1, damping))
	for i := range r.combsL {
		r.combsL[i].damping = r.damping
		r.combsR[i].damping = r.damping
	}
}

func (r *reverb) setMix(mix float64) {
	r.mix = math.Max(0, math.Min(1, mix))
}

func (r *reverb) reset() {
	for i := range r.combsL {
		for j := range r.combsL[i].buffer {
			r.combsL[i].buffer[j] = 0
		}
		for j := range r.combsR[i].buffer {
			r.combsR[i].buffer[j] = 0
		}
		r.combsL[i].filterState = 0
		r.combsR[i].filterState = 0
	}
	for i := range r.allpassL {
		for j := range r.allpassL[i].buffer {
			r.allpassL[i].buffer[j] = 0
		}
		for j := range r.allpassR[i].buffer {
			r.allpassR[i].buffer[j] = 0
		}
	}
}

func (r *reverb) process(left, right float64) (float64, float64) {
	monoInput := (left + right) * 0.5

	combSumL := 0.0
	combSumR := 0.0
	for i := range r.combsL {
		combSumL += r.combsL[i].process(monoInput, combDelays[i])
		combSumR += r.combsR[i].process(monoInput, combDelays[i]+combDelayOffsetR)
	}
	combSumL *= 0.25
	combSumR *= 0.25

	wetL := combSumL
	wetR := combSumR
	for i := range r.allpassL {
		wetL = r.allpassL[i].process(wetL, allpassDelays[i])
		wetR = r.allpassR[i].process(wetR, allpassDelays[i]+allpassDelayOffsetR)
	}

	outL := left*(1.0-r.mix) + wetL*r.mix
	outR := right*(1.0-r.mix) + wetR*r.mix
	return outL, outR
}
