package audio

import (
	"context"
	"log"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// ----- Spectrum ----- //

var fftPlan, fftPlanErr = algofft.NewPlan64(fftSize)

// GetFFT returns the Hann-windowed magnitude spectrum of the most recent
// fftSize mono output samples. Runs on the report thread, never on the
// render path.
func (a *Audio) GetFFT(ctx context.Context) []float64 {
	select {
	case <-ctx.Done():
		return nil
	default:
	}
	if fftPlanErr != nil {
		log.Printf("fft plan unavailable: %v", fftPlanErr)
		return nil
	}

	a.state.Lock()
	// out:       | 4 | 1 | 2 | 3 |
	// offset:        ^
	// fftResult: | 1 | 2 | 3 | 4 |
	offset := a.state.pos % fftSize
	copy(a.fftResult, a.state.out[offset:])
	copy(a.fftResult[fftSize-offset:], a.state.out[:offset])
	a.state.Unlock()

	Han(a.fftResult)

	in := make([]complex128, fftSize)
	out := make([]complex128, fftSize)
	for i, v := range a.fftResult {
		in[i] = complex(v, 0)
	}
	if err := fftPlan.Forward(out, in); err != nil {
		log.Printf("fft failed: %v", err)
		return nil
	}
	for i := range a.fftResult {
		a.fftResult[i] = cmplx.Abs(out[i]) * 2 / fftSize
	}
	return a.fftResult[:fftSize/2]
}
