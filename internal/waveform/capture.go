// Package waveform reads the per-cavity waveform captures recorded for a fault event.
package waveform

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrEventNotFound is returned when the event directory does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrMalformedCapture is returned when a capture file cannot be parsed.
	ErrMalformedCapture = errors.New("malformed capture file")
)

// reFileName matches e.g. R1P6WFSharv.2023_02_01_210026.1.txt
var reFileName = regexp.MustCompile(`^R(\d)([A-Z])(\d)WFS[^.]*\.(\d{4}_\d{2}_\d{2}_\d{6}\.\d+)\.txt$`)

// Signal is one named waveform column.
type Signal struct {
	Name   string
	Values []float64
}

// Capture is the content of one cavity's capture file.
type Capture struct {
	File   string
	Zone   string
	Cavity int
	Time   []float64
	// Signals keeps file column order. Duplicate names are preserved.
	Signals []Signal
}

// Lookup returns the values of the named signal and how many columns carry that name.
func (c Capture) Lookup(name string) ([]float64, int) {
	var (
		values []float64
		n      int
	)
	for _, s := range c.Signals {
		if s.Name == name {
			if n == 0 {
				values = s.Values
			}
			n++
		}
	}
	return values, n
}

// DecodeFileName returns the zone and cavity number encoded in a capture file name.
// The zone letter maps to a two digit zone index: 'A' is 10, so R1P is zone 1L25.
func DecodeFileName(name string) (zone string, cavity int, err error) {
	m := reFileName.FindStringSubmatch(name)
	if m == nil {
		return "", 0, fmt.Errorf("%w: unrecognized file name %q", ErrMalformedCapture, name)
	}
	cavity, _ = strconv.Atoi(m[3])
	zone = fmt.Sprintf("%sL%02d", m[1], int(m[2][0]-'A')+10)
	return zone, cavity, nil
}
