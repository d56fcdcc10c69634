package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first half of the discrete
// Fourier transform of data, after removing the mean. Any length works.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin
// for samples spaced dt apart, or 0 when the signal is flat or too short.
func DominantFrequency(data []float64, dt float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0
	}

	best, peak := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > peak {
			best, peak = i, ps[i]
		}
	}
	if peak < 1e-12 {
		return 0
	}

	return float64(best) / (float64(len(data)) * dt)
}

// DominantPeriod is 1/DominantFrequency, or +Inf when no frequency stands
// out.
func DominantPeriod(data []float64, dt float64) float64 {
	f := DominantFrequency(data, dt)
	if f == 0 {
		return math.Inf(1)
	}
	return 1 / f
}
