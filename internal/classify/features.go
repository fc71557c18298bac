package classify

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JeffersonLab/rfClassifier/internal/waveform"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// Feature transform parameters. They must match the transform the models were trained on.
const (
	// WindowStart is the nominal time of the first windowed sample, in ms.
	WindowStart    = -1533.4
	WindowSamples  = 7680
	ResampleLength = 4096
	// ConstantFill replaces every value of a constant column.
	ConstantFill = 0.001
)

// FeatureMatrix is the model input for one event, row-major Rows x Cols.
// Column c*len(Signals)+s holds cavity c+1, signal Signals[s].
type FeatureMatrix struct {
	Rows int
	Cols int
	Data []float32
}

// At returns the value at row r, column c.
func (m FeatureMatrix) At(r, c int) float32 {
	return m.Data[r*m.Cols+c]
}

// Tensor returns the matrix as a [1, Rows, Cols] tensor sharing the same data.
func (m FeatureMatrix) Tensor() models.Tensor {
	return models.Tensor{
		Shape: []int64{1, int64(m.Rows), int64(m.Cols)},
		Data:  m.Data,
	}
}

// ExtractFeatures windows, resamples, reorders and standardizes validated captures.
func ExtractFeatures(captures []waveform.Capture, stepSize float64) (FeatureMatrix, error) {
	sorted := sortCaptures(captures)
	if len(sorted) != NumCavities {
		return FeatureMatrix{}, fmt.Errorf("extracting features: need %d captures, got %d", NumCavities, len(sorted))
	}

	m := FeatureMatrix{
		Rows: ResampleLength,
		Cols: NumCavities * len(Signals),
		Data: make([]float32, ResampleLength*NumCavities*len(Signals)),
	}

	for ci, c := range sorted {
		start, err := windowStart(c.Time, stepSize)
		if err != nil {
			return FeatureMatrix{}, fmt.Errorf("cavity %d: %w", c.Cavity, err)
		}
		for si, name := range Signals {
			values, _ := c.Lookup(name)
			if start+WindowSamples > len(values) {
				return FeatureMatrix{}, fmt.Errorf("%w: cavity %d waveform %s has %d samples after %g ms, need %d",
					ErrWindowOutOfRange, c.Cavity, name, len(values)-start, WindowStart, WindowSamples)
			}
			col := standardize(Resample(values[start:start+WindowSamples], ResampleLength))
			j := ci*len(Signals) + si
			for r, v := range col {
				m.Data[r*m.Cols+j] = float32(v)
			}
		}
	}
	return m, nil
}

// windowStart returns the first sample index at or after WindowStart, allowing half a
// step of rounding in the recorded times.
func windowStart(t []float64, stepSize float64) (int, error) {
	threshold := WindowStart - stepSize/2
	for i, v := range t {
		if v >= threshold {
			if i+WindowSamples > len(t) {
				return 0, fmt.Errorf("%w: %d samples after %g ms, need %d",
					ErrWindowOutOfRange, len(t)-i, WindowStart, WindowSamples)
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no sample at or after %g ms", ErrWindowOutOfRange, WindowStart)
}

// standardize z-scores x in place with the population standard deviation.
// A constant column becomes ConstantFill.
func standardize(x []float64) []float64 {
	if floats.Min(x) == floats.Max(x) {
		for i := range x {
			x[i] = ConstantFill
		}
		return x
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	for i := range x {
		x[i] = (x[i] - mean) / std
	}
	return x
}
