package audio

import (
	"math"
)

// ----- Chorus ----- //

const (
	chorusOff = iota
	chorusModeI
	chorusModeII
)

type chorusParamsSet struct {
	rate      float64 // LFO rate in Hz
	depth     float64 // modulation depth in seconds
	baseDelay float64 // base delay in seconds
	wetMix    float64
}

var chorusModeIParams = chorusParamsSet{rate: 0.5, depth: 0.0015, baseDelay: 0.006, wetMix: 0.5}
var chorusModeIIParams = chorusParamsSet{rate: 0.8, depth: 0.003, baseDelay: 0.008, wetMix: 0.6}

// chorus is a bucket-brigade style stereo chorus: one mono delay line, two
// interpolated read taps with inverted LFO modulation for left and right.
// Mode I is slow and subtle, mode II a faster, deeper warble.
type chorus struct {
	mode int

	delayLine []float64
	writeIdx  int

	lfoPhase float64
	params   chorusParamsSet
}

func newChorus() *chorus {
	return &chorus{
		// 50 ms line covers both modes with headroom
		delayLine: make([]float64, int(0.05*sampleRate)),
		params:    chorusModeIParams,
	}
}

func (c *chorus) setMode(mode int) {
	c.mode = mode
	switch mode {
	case chorusModeI:
		c.params = chorusModeIParams
	case chorusModeII:
		c.params = chorusModeIIParams
	}
}

func (c *chorus) reset() {
	for i := range c.delayLine {
		c.delayLine[i] = 0
	}
	c.writeIdx = 0
	c.lfoPhase = 0
}

func (c *chorus) process(input float64) (float64, float64) {
	if c.mode == chorusOff {
		return input, input
	}

	c.delayLine[c.writeIdx] = input

	lfoValue := math.Sin(c.lfoPhase * 2 * math.Pi)
	baseDelaySamples := c.params.baseDelay * sampleRate
	modDepthSamples := c.params.depth * sampleRate

	size := float64(len(c.delayLine))
	delayLeft := math.Max(1, math.Min(baseDelaySamples+lfoValue*modDepthSamples, size-1))
	delayRight := math.Max(1, math.Min(baseDelaySamples-lfoValue*modDepthSamples, size-1))

	wetLeft := c.readDelayLine(delayLeft)
	wetRight := c.readDelayLine(delayRight)

	wetMix := c.params.wetMix
	dryMix := 1.0 - wetMix*0.5

	outLeft := input*dryMix + wetLeft*wetMix
	outRight := input*dryMix + wetRight*wetMix

	c.writeIdx = (c.writeIdx + 1) % len(c.delayLine)
	c.lfoPhase += c.params.rate / sampleRate
	if c.lfoPhase >= 1.0 {
		c.lfoPhase -= 1.0
	}
	return outLeft, outRight
}

func (c *chorus) readDelayLine(delaySamples float64) float64 {
	size := len(c.delayLine)
	readPos := float64(c.writeIdx) - delaySamples
	if readPos < 0 {
		readPos += float64(size)
	}
	index0 := int(readPos)
	index1 := (index0 + 1) % size
	frac := readPos - float64(index0)
	return c.delayLine[index0]*(1.0-frac) + c.delayLine[index1]*frac
}
