package classify

import "gonum.org/v1/gonum/dsp/fourier"

// Resample changes the length of a real signal to num samples with the Fourier
// method, matching scipy.signal.resample for real input: the spectrum is truncated
// or zero-padded and the Nyquist bin is split or folded when the shorter length is even.
func Resample(x []float64, num int) []float64 {
	n := len(x)
	if n == 0 || num <= 0 {
		return make([]float64, max(num, 0))
	}

	coeffs := fourier.NewFFT(n).Coefficients(nil, x)

	out := make([]complex128, num/2+1)
	m := min(num, n)
	copy(out, coeffs[:m/2+1])
	if m%2 == 0 {
		switch {
		case num < n:
			out[m/2] *= 2
		case num > n:
			out[m/2] *= 0.5
		}
	}

	// The inverse real transform reads only the real part of the DC and Nyquist bins.
	out[0] = complex(real(out[0]), 0)
	if num%2 == 0 {
		out[num/2] = complex(real(out[num/2]), 0)
	}

	// gonum's inverse is unnormalized: dividing by n applies both the 1/num
	// inverse normalization and the num/n amplitude scale.
	y := fourier.NewFFT(num).Sequence(nil, out)
	for i := range y {
		y[i] /= float64(n)
	}
	return y
}
