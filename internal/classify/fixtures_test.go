package classify_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JeffersonLab/rfClassifier/internal/classify"
	"github.com/JeffersonLab/rfClassifier/internal/waveform"
	"github.com/JeffersonLab/rfClassifier/pkg/event"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

const (
	eventPath = "/data/waveforms/1L25/2023_02_01/210026.1"
	// samples from -1536.0 ms to 12.0 ms at 0.2 ms
	numSamples = 7741
)

func timeAxis() []float64 {
	t := make([]float64, numSamples)
	for i := range t {
		t[i] = -1536.0 + 0.2*float64(i)
	}
	return t
}

func testCapture(zone string, cavity int) waveform.Capture {
	c := waveform.Capture{
		File:    fmt.Sprintf("R1P%dWFSharv.2023_02_01_210026.1.txt", cavity),
		Zone:    zone,
		Cavity:  cavity,
		Time:    timeAxis(),
		Signals: make([]waveform.Signal, len(classify.Signals)),
	}
	for s, name := range classify.Signals {
		v := make([]float64, numSamples)
		for i := range v {
			v[i] = float64(cavity)*math.Sin(2*math.Pi*float64(s+1)*float64(i)/500) + float64(s)
		}
		c.Signals[s] = waveform.Signal{Name: name, Values: v}
	}
	return c
}

func validCaptures() []waveform.Capture {
	captures := make([]waveform.Capture, 0, classify.NumCavities)
	for cav := 1; cav <= classify.NumCavities; cav++ {
		captures = append(captures, testCapture("1L25", cav))
	}
	return captures
}

func testIdentity(t *testing.T) event.Identity {
	t.Helper()
	id, err := event.ParsePath(eventPath)
	require.NoError(t, err)
	return id
}

// fakeModes answers GDR I/Q for every cavity unless overridden.
type fakeModes struct {
	mu          sync.Mutex
	modes       map[int]int
	err         error
	deployments []string
}

func (f *fakeModes) CavityMode(_ context.Context, _ string, cavity int, deployment string, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployments = append(f.deployments, deployment)
	if f.err != nil {
		return 0, f.err
	}
	if m, ok := f.modes[cavity]; ok {
		return m, nil
	}
	return models.ModeGDRIQ, nil
}

func historyPolicy() classify.DeploymentPolicy {
	return classify.DeploymentPolicy{Fixed: models.DeploymentHistory}
}

// fakeCaptures serves captures per event directory.
type fakeCaptures struct {
	events map[string][]waveform.Capture
	panics bool
}

func (f *fakeCaptures) Captures(_ context.Context, id event.Identity) ([]waveform.Capture, error) {
	if f.panics {
		panic("corrupt capture index")
	}
	c, ok := f.events[id.Dir]
	if !ok {
		return nil, fmt.Errorf("%w: %s", waveform.ErrEventNotFound, id.Dir)
	}
	return c, nil
}

// countingRecorder tallies measurements.
type countingRecorder struct {
	mu          sync.Mutex
	outcomes    map[string]int
	validations map[string]int
	labels      map[string]int
	stages      map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		outcomes:    map[string]int{},
		validations: map[string]int{},
		labels:      map[string]int{},
		stages:      map[string]int{},
	}
}

func (r *countingRecorder) ObserveInference(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage]++
}

func (r *countingRecorder) CavityLabel(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[label]++
}

func (r *countingRecorder) EventAnalyzed(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *countingRecorder) ValidationFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations[reason]++
}
