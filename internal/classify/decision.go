package classify

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// Labels produced by the cavity stage.
const (
	MultipleLabel = "multiple"
	// MultiCavTurnOff is the fault label reported when the cavity stage says "multiple".
	MultiCavTurnOff = "Multi Cav turn off"
)

// CavityLabels maps cavity model output indices to labels.
var CavityLabels = []string{MultipleLabel, "1", "2", "3", "4", "5", "6", "7", "8"}

// FaultLabels maps fault model output indices to labels.
var FaultLabels = []string{
	"Quench_100ms",
	"Quench_3ms",
	"E_Quench",
	"Heat Riser Choke",
	"Microphonics",
	"Controls Fault",
	"Single Cav Turn off",
}

// Decision is the outcome of both classification stages for one event.
type Decision struct {
	CavityLabel      string
	CavityConfidence float64
	FaultLabel       string
	FaultConfidence  float64
}

type state int

const (
	stateStart state = iota
	stateCavityDecided
	stateFaultDecided
	stateShortCircuit
)

func (s state) terminal() bool {
	return s == stateFaultDecided || s == stateShortCircuit
}

// Classifier runs the two-stage decision over the cavity and fault engines.
// Both engines receive the same feature matrix.
type Classifier struct {
	cavity   models.InferenceEngine
	fault    models.InferenceEngine
	recorder Recorder
}

// NewClassifier creates a Classifier. A nil recorder records nothing.
func NewClassifier(cavity, fault models.InferenceEngine, recorder Recorder) *Classifier {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Classifier{cavity: cavity, fault: fault, recorder: recorder}
}

// Classify decides the faulted cavity and, unless several cavities faulted, the fault type.
func (c *Classifier) Classify(ctx context.Context, m FeatureMatrix) (Decision, error) {
	in := m.Tensor()
	var d Decision

	for st := stateStart; !st.terminal(); {
		next, err := c.step(ctx, st, in, &d)
		if err != nil {
			return Decision{}, err
		}
		st = next
	}
	return d, nil
}

// step performs the work of state st and returns the following state.
func (c *Classifier) step(ctx context.Context, st state, in models.Tensor, d *Decision) (state, error) {
	switch st {
	case stateStart:
		idx, p, err := c.predict(ctx, "cavity", c.cavity, in, len(CavityLabels))
		if err != nil {
			return st, err
		}
		d.CavityLabel, d.CavityConfidence = CavityLabels[idx], p
		c.recorder.CavityLabel(d.CavityLabel)
		return stateCavityDecided, nil

	case stateCavityDecided:
		if d.CavityLabel == MultipleLabel {
			d.FaultLabel, d.FaultConfidence = MultiCavTurnOff, d.CavityConfidence
			return stateShortCircuit, nil
		}
		if err := checkCavityNumber(d.CavityLabel); err != nil {
			return st, err
		}
		idx, p, err := c.predict(ctx, "fault", c.fault, in, len(FaultLabels))
		if err != nil {
			return st, err
		}
		d.FaultLabel, d.FaultConfidence = FaultLabels[idx], p
		return stateFaultDecided, nil

	default:
		return st, fmt.Errorf("classifier: no transition from state %d", st)
	}
}

// predict runs one engine and decodes its logits into the winning index and its probability.
func (c *Classifier) predict(ctx context.Context, stage string, engine models.InferenceEngine, in models.Tensor, classes int) (int, float64, error) {
	start := time.Now()
	out, err := engine.Run(ctx, in)
	c.recorder.ObserveInference(stage, time.Since(start))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s model (%s): %w", ErrEngineInvocation, stage, engine.Name(), err)
	}
	if len(out.Data) != classes {
		return 0, 0, fmt.Errorf("%w: %s model (%s) returned %d values, want %d",
			ErrEngineInvocation, stage, engine.Name(), len(out.Data), classes)
	}
	for _, v := range out.Data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return 0, 0, fmt.Errorf("%w: %s model (%s) returned non-finite output", ErrEngineInvocation, stage, engine.Name())
		}
	}

	dist := Softmax(out.Data)
	idx := Argmax(dist)
	return idx, dist[idx], nil
}

func checkCavityNumber(label string) error {
	n, err := strconv.Atoi(label)
	if err != nil || n < 1 || n > NumCavities {
		return fmt.Errorf("%w: cavity label %q is not a cavity number", ErrEngineInvocation, label)
	}
	return nil
}

// Softmax converts logits into a probability distribution. The maximum is
// subtracted before exponentiation, which leaves the result unchanged.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	hi := math.Inf(-1)
	for _, v := range logits {
		hi = math.Max(hi, float64(v))
	}

	dist := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		dist[i] = math.Exp(float64(v) - hi)
		sum += dist[i]
	}
	for i := range dist {
		dist[i] /= sum
	}
	return dist
}

// Argmax returns the index of the largest value; ties go to the lowest index.
func Argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}
