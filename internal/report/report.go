// Package report renders batch results for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

const (
	resultFormat = "%-10s %-19s %-8s %-22s %-20s %-8s %-8s\n"
	errorFormat  = "%-8s %-22s %s\n"
)

// Format selects how a batch is written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts "table" or "json".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q: must be table or json", s)
}

// Options controls table rendering.
type Options struct {
	// NoHeader suppresses the header of the results table. The error table
	// header is always printed.
	NoHeader bool
}

// Write renders records in format f.
func Write(w io.Writer, f Format, records []models.Record, opts Options) error {
	if f == FormatJSON {
		return WriteJSON(w, records)
	}
	return WriteTables(w, records, opts)
}

// WriteJSON writes {"data": [...]} followed by a newline.
func WriteJSON(w io.Writer, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	return json.NewEncoder(w).Encode(models.BatchResponse{Data: records})
}

// WriteTables writes successful classifications first, then failures. A table
// with no rows is omitted entirely.
func WriteTables(w io.Writer, records []models.Record, opts Options) error {
	first := true
	for _, rec := range records {
		r, ok := rec.(*models.AnalysisResult)
		if !ok {
			continue
		}
		if first {
			first = false
			if !opts.NoHeader {
				if _, err := fmt.Fprintf(w, resultFormat, "Cavity", "Fault", "Zone", "Timestamp", "Model", "Cav-Conf", "Fault-Conf"); err != nil {
					return err
				}
			}
		}
		_, err := fmt.Fprintf(w, resultFormat, r.CavityLabel, r.FaultLabel, r.Location, r.Timestamp, r.Model,
			Confidence(r.CavityConfidence), Confidence(r.FaultConfidence))
		if err != nil {
			return err
		}
	}

	first = true
	for _, rec := range records {
		e, ok := rec.(*models.AnalysisError)
		if !ok {
			continue
		}
		if first {
			first = false
			if _, err := fmt.Fprintf(w, errorFormat, "Zone", "Timestamp", "Error"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, errorFormat, orNone(e.Location), orNone(e.Timestamp), e.Message); err != nil {
			return err
		}
	}
	return nil
}

// Confidence rounds to two decimals and drops trailing zeros.
func Confidence(c float64) string {
	if math.IsNaN(c) {
		return "N/A"
	}
	return strconv.FormatFloat(math.Round(c*100)/100, 'f', -1, 64)
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
