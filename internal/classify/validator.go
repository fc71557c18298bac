package classify

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/JeffersonLab/rfClassifier/internal/waveform"
	"github.com/JeffersonLab/rfClassifier/pkg/event"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// NumCavities is the number of cavities in a zone.
const NumCavities = 8

// Signals lists the waveforms the model reads, in canonical column order.
var Signals = []string{"GMES", "GASK", "CRFP", "DETA2"}

// ModeSource looks up a cavity's control mode at a point in time.
type ModeSource interface {
	CavityMode(ctx context.Context, zone string, cavity int, deployment string, at time.Time) (int, error)
}

// ValidationParams are the acceptance bounds the deployed model was trained under.
type ValidationParams struct {
	// MaxStart is the latest allowed first sample time, in ms.
	MaxStart float64
	// MinEnd is the earliest allowed last sample time, in ms.
	MinEnd        float64
	StepSize      float64
	StepTolerance float64
	// AxisTolerance bounds the per-sample difference between two cavities' time axes.
	AxisTolerance float64
	AcceptedModes []int
}

// DefaultValidationParams returns the bounds for the cnn_lstm model.
func DefaultValidationParams() ValidationParams {
	return ValidationParams{
		MaxStart:      -1534.0,
		MinEnd:        10.0,
		StepSize:      0.2,
		StepTolerance: 0.01,
		AxisTolerance: 0.01,
		AcceptedModes: []int{models.ModeGDRIQ, models.ModeSELAP},
	}
}

// DeploymentPolicy chooses the archiver deployment that holds an event's control modes.
type DeploymentPolicy struct {
	// Fixed is "ops", "history", or "auto"/empty for selection by event age.
	Fixed     string
	OpsWindow time.Duration
	// Now returns the current site wall-clock time carried in UTC. Defaults to SiteNow.
	Now func() time.Time
}

// Select returns the deployment to query for an event at t.
func (p DeploymentPolicy) Select(t time.Time) string {
	switch p.Fixed {
	case models.DeploymentOps, models.DeploymentHistory:
		return p.Fixed
	}
	now := SiteNow
	if p.Now != nil {
		now = p.Now
	}
	if now().Sub(t) <= p.OpsWindow {
		return models.DeploymentOps
	}
	return models.DeploymentHistory
}

// SiteNow returns the local wall-clock time relabelled as UTC, matching how event
// times are parsed from paths.
func SiteNow() time.Time {
	n := time.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), n.Nanosecond(), time.UTC)
}

// Validator enforces the structural and physical preconditions of the models.
type Validator struct {
	params ValidationParams
	modes  ModeSource
	policy DeploymentPolicy
}

// NewValidator creates a Validator.
func NewValidator(params ValidationParams, modes ModeSource, policy DeploymentPolicy) *Validator {
	return &Validator{params: params, modes: modes, policy: policy}
}

// Validate checks captures against every rule in order and returns the first failure.
// Captures are examined in cavity order, then file-name order.
func (v *Validator) Validate(ctx context.Context, id event.Identity, captures []waveform.Capture) error {
	sorted := sortCaptures(captures)

	if err := checkCavityCoverage(sorted); err != nil {
		return err
	}
	// Coverage holds from here on: sorted[i] is cavity i+1.
	if err := checkSignalCoverage(sorted); err != nil {
		return err
	}
	if err := v.checkTiming(sorted); err != nil {
		return err
	}
	if err := v.checkModes(ctx, id); err != nil {
		return err
	}
	return checkZones(id, sorted)
}

func sortCaptures(captures []waveform.Capture) []waveform.Capture {
	sorted := slices.Clone(captures)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Cavity != sorted[j].Cavity {
			return sorted[i].Cavity < sorted[j].Cavity
		}
		return sorted[i].File < sorted[j].File
	})
	return sorted
}

func checkCavityCoverage(sorted []waveform.Capture) error {
	counts := make(map[int]int, NumCavities)
	for _, c := range sorted {
		counts[c.Cavity]++
	}

	for cav := 1; cav <= NumCavities; cav++ {
		switch n := counts[cav]; {
		case n == 0:
			return &ValidationError{
				Reason:  ErrMissingCapture,
				Cavity:  cav,
				Message: fmt.Sprintf("Missing capture file for zone '%d'", cav),
			}
		case n > 1:
			return &ValidationError{
				Reason:  ErrDuplicateCapture,
				Cavity:  cav,
				Message: fmt.Sprintf("Duplicate capture file for zone '%d'", cav),
			}
		}
	}

	for _, c := range sorted {
		if c.Cavity < 1 || c.Cavity > NumCavities {
			return &ValidationError{
				Reason:  ErrUnexpectedCapture,
				Cavity:  c.Cavity,
				Message: fmt.Sprintf("Unexpected capture file for cavity '%d'", c.Cavity),
			}
		}
	}
	return nil
}

func checkSignalCoverage(sorted []waveform.Capture) error {
	for _, c := range sorted {
		for _, name := range Signals {
			switch _, n := c.Lookup(name); {
			case n == 0:
				return &ValidationError{
					Reason:  ErrMissingSignal,
					Cavity:  c.Cavity,
					Message: fmt.Sprintf("Missing waveform '%s' for cavity '%d'", name, c.Cavity),
				}
			case n > 1:
				return &ValidationError{
					Reason:  ErrDuplicateSignal,
					Cavity:  c.Cavity,
					Message: fmt.Sprintf("Duplicate waveform '%s' for cavity '%d'", name, c.Cavity),
				}
			}
		}
	}
	return nil
}

func timingError(cavity int, format string, args ...any) error {
	return &ValidationError{
		Reason:  ErrInconsistentTiming,
		Cavity:  cavity,
		Message: "Inconsistent waveform timing: " + fmt.Sprintf(format, args...),
	}
}

func (v *Validator) checkTiming(sorted []waveform.Capture) error {
	ref := sorted[0].Time
	if len(ref) < 2 {
		return timingError(1, "cavity 1 has %d samples", len(ref))
	}
	if ref[0] > v.params.MaxStart {
		return timingError(1, "starts at %g ms, after %g ms", ref[0], v.params.MaxStart)
	}
	if last := ref[len(ref)-1]; last < v.params.MinEnd {
		return timingError(1, "ends at %g ms, before %g ms", last, v.params.MinEnd)
	}
	for i := 1; i < len(ref); i++ {
		if step := ref[i] - ref[i-1]; math.Abs(step-v.params.StepSize) > v.params.StepTolerance {
			return timingError(1, "step of %g ms at sample %d, expected %g ms", step, i, v.params.StepSize)
		}
	}

	for _, c := range sorted {
		if c.Cavity != 1 {
			if len(c.Time) != len(ref) {
				return timingError(c.Cavity, "cavity %d has %d samples, cavity 1 has %d", c.Cavity, len(c.Time), len(ref))
			}
			for i := range ref {
				if math.Abs(c.Time[i]-ref[i]) > v.params.AxisTolerance {
					return timingError(c.Cavity, "cavity %d time axis differs from cavity 1 at sample %d", c.Cavity, i)
				}
			}
		}
		for _, name := range Signals {
			if values, _ := c.Lookup(name); len(values) != len(c.Time) {
				return timingError(c.Cavity, "cavity %d waveform %s has %d samples, time axis has %d",
					c.Cavity, name, len(values), len(c.Time))
			}
		}
	}
	return nil
}

func (v *Validator) checkModes(ctx context.Context, id event.Identity) error {
	deployment := v.policy.Select(id.Time)
	for cav := 1; cav <= NumCavities; cav++ {
		mode, err := v.modes.CavityMode(ctx, id.Zone, cav, deployment, id.Time)
		if err != nil {
			return fmt.Errorf("%w: zone %s cavity %d (%s): %w", ErrModeUnavailable, id.Zone, cav, deployment, err)
		}
		if !slices.Contains(v.params.AcceptedModes, mode) {
			return &ValidationError{
				Reason:  ErrInvalidMode,
				Cavity:  cav,
				Message: fmt.Sprintf("Invalid cavity mode: cavity %d in mode %d", cav, mode),
			}
		}
	}
	return nil
}

func checkZones(id event.Identity, sorted []waveform.Capture) error {
	for _, c := range sorted {
		if c.Zone != id.Zone {
			return &ValidationError{
				Reason:  ErrZoneMismatch,
				Cavity:  c.Cavity,
				Message: fmt.Sprintf("Zone mismatch: capture file %s belongs to zone '%s', event is in zone '%s'", c.File, c.Zone, id.Zone),
			}
		}
	}
	return nil
}
