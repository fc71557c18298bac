package waveform

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/pkg/event"
)

// Repository reads captures from the on-disk layout <root>/<zone>/<date>/<time>/*.txt.
// It is safe for concurrent use.
type Repository struct {
	logger *zap.Logger
}

// NewRepository creates a file-backed capture repository.
func NewRepository(logger *zap.Logger) *Repository {
	return &Repository{logger: logger}
}

// Captures loads every capture file of the event, sorted by file name.
// Files that are not .txt are ignored.
func (r *Repository) Captures(ctx context.Context, id event.Identity) ([]Capture, error) {
	dir := filepath.FromSlash(id.Dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id.Dir)
		}
		return nil, fmt.Errorf("reading event directory %s: %w", id.Dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	captures := make([]Capture, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := readCapture(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}

	r.logger.Debug("captures loaded",
		zap.String("zone", id.Zone),
		zap.String("timestamp", id.Timestamp()),
		zap.Int("files", len(captures)),
	)
	return captures, nil
}

func readCapture(path string) (Capture, error) {
	name := filepath.Base(path)
	zone, cavity, err := DecodeFileName(name)
	if err != nil {
		return Capture{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Capture{}, fmt.Errorf("opening capture %s: %w", name, err)
	}
	defer f.Close()

	c, err := parseCapture(f)
	if err != nil {
		return Capture{}, fmt.Errorf("%w: %s: %v", ErrMalformedCapture, name, err)
	}
	c.File = name
	c.Zone = zone
	c.Cavity = cavity
	return c, nil
}

// parseCapture reads a tab-separated body whose first column is Time.
func parseCapture(r io.Reader) (Capture, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return Capture{}, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "Time" {
		return Capture{}, fmt.Errorf("header must start with Time and name at least one signal")
	}

	c := Capture{Signals: make([]Signal, len(header)-1)}
	for i, col := range header[1:] {
		c.Signals[i].Name = signalName(strings.TrimSpace(col))
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Capture{}, fmt.Errorf("line %d: %w", line, err)
		}
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return Capture{}, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			if i == 0 {
				c.Time = append(c.Time, v)
			} else {
				c.Signals[i-1].Values = append(c.Signals[i-1].Values, v)
			}
		}
	}

	if len(c.Time) == 0 {
		return Capture{}, fmt.Errorf("no samples")
	}
	return c, nil
}

// signalName strips the record prefix from a column name: R1P6WFSGMES becomes GMES.
func signalName(col string) string {
	if i := strings.Index(col, "WFS"); i >= 0 {
		return col[i+len("WFS"):]
	}
	return col
}
