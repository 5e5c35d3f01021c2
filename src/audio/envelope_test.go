package audio

import (
	"testing"
)

func TestEnvelopeAttackReachesPeak(t *testing.T) {
	e := newEnvelope()
	e.setAttack(0.01)
	e.gate(true)
	samples := int(0.01*sampleRate) + 2
	for i := 0; i < samples; i++ {
		e.nextSample()
	}
	expectNearlyEqual(t, e.level, 1.0, 0.01)
	expectEqual(t, e.stage, stageDecay)
}

func TestEnvelopeReleaseCompletes(t *testing.T) {
	e := newEnvelope()
	e.setAttack(0.001)
	e.setDecay(0.01)
	e.setSustain(0.7)
	e.setRelease(0.1)
	e.gate(true)
	for i := 0; i < sampleRate/2; i++ {
		e.nextSample()
	}
	expectEqual(t, e.stage, stageSustain)

	e.gate(false)
	// release time + 10 ms headroom
	samples := int((0.1 + 0.01) * sampleRate)
	for i := 0; i < samples; i++ {
		e.nextSample()
	}
	if e.level > 1e-3 {
		t.Errorf("expected level below 1e-3 after release, got %v", e.level)
	}
	expectEqual(t, e.isActive(), false)
}

func TestEnvelopeMinimumTimes(t *testing.T) {
	e := newEnvelope()
	e.setAttack(0)
	expectNearlyEqual(t, e.attackTime, 0.001, 1e-9)
	e.setDecay(-1)
	expectNearlyEqual(t, e.decayTime, 0.001, 1e-9)
	e.setRelease(0)
	expectNearlyEqual(t, e.releaseTime, 0.001, 1e-9)
}

func TestEnvelopeRetriggerKeepsLevel(t *testing.T) {
	e := newEnvelope()
	e.setAttack(0.1)
	e.gate(true)
	for i := 0; i < sampleRate/100; i++ {
		e.nextSample()
	}
	levelBefore := e.level
	if levelBefore <= 0 {
		t.Fatalf("expected a partial attack level")
	}
	e.gate(true)
	e.nextSample()
	if e.level < levelBefore {
		t.Errorf("retrigger should ramp from the current level, got %v -> %v", levelBefore, e.level)
	}
}

func TestEnvelopeGateOffFromIdleStaysIdle(t *testing.T) {
	e := newEnvelope()
	e.gate(false)
	expectEqual(t, e.stage, stageIdle)
}
