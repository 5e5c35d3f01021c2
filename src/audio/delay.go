package audio

import (
	"math"
)

// ----- Delay ----- //

// delay is a stereo delay with a one-pole low-pass in the feedback path so
// repeats darken as they decay.
type delay struct {
	time     float64 // seconds
	feedback float64
	mix      float64

	bufferL  []float64
	bufferR  []float64
	writePos int
	samples  int

	filterStateL float64
	filterStateR float64
	filterCoeff  float64
}

func newDelay() *delay {
	d := &delay{
		time:     0.25,
		feedback: 0.3,
		mix:      0.3,
		// one second of headroom
		bufferL:     make([]float64, sampleRate),
		bufferR:     make([]float64, sampleRate),
		filterCoeff: 1.0 - math.Exp(-2.0*math.Pi*3000.0/sampleRate),
	}
	d.updateDelaySamples()
	return d
}

func (d *delay) setTime(timeSeconds float64) {
	d.time = math.Max(0.05, math.Min(0.5, timeSeconds))
	d.updateDelaySamples()
}

func (d *delay) setFeedback(feedback float64) {
	d.feedback = math.Max(0, math.Min(0.8, feedback))
}

func (d *delay) setMix(mix float64) {
	d.mix = math.Max(0, math.Min(1, mix))
}

func (d *delay) updateDelaySamples() {
	d.samples = int(d.time * sampleRate)
	if d.samples > len(d.bufferL)-1 {
		d.samples = len(d.bufferL) - 1
	}
}

func (d *delay) process(left, right float64) (float64, float64) {
	readPos := d.writePos - d.samples
	if readPos < 0 {
		readPos += len(d.bufferL)
	}
	delayedL := d.bufferL[readPos]
	delayedR := d.bufferR[readPos]

	d.filterStateL += d.filterCoeff * (delayedL - d.filterStateL)
	d.filterStateR += d.filterCoeff * (delayedR - d.filterStateR)

	d.bufferL[d.writePos] = left + d.filterStateL*d.feedback
	d.bufferR[d.writePos] = right + d.filterStateR*d.feedback

	d.writePos++
	if d.writePos >= len(d.bufferL) {
		d.writePos = 0
	}

	outL := left*(1.0-d.mix) + delayedL*d.mix
	outR := right*(1.0-d.mix) + delayedR*d.mix
	return outL, outR
}
