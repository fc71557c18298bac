package classify

import "time"

// Recorder receives pipeline measurements.
type Recorder interface {
	ObserveInference(stage string, d time.Duration)
	CavityLabel(label string)
	EventAnalyzed(outcome string)
	ValidationFailed(reason string)
}

// NopRecorder discards every measurement.
type NopRecorder struct{}

func (NopRecorder) ObserveInference(string, time.Duration) {}
func (NopRecorder) CavityLabel(string)                     {}
func (NopRecorder) EventAnalyzed(string)                   {}
func (NopRecorder) ValidationFailed(string)                {}
