package event

import (
	"errors"
	"testing"
	"time"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		zone     string
		expected time.Time
		root     string
	}{
		{
			name:     "posix absolute path",
			path:     "/data/waveforms/rf/1L25/2023_02_01/210026.1",
			zone:     "1L25",
			expected: time.Date(2023, 2, 1, 21, 0, 26, 100000000, time.UTC),
			root:     "/data/waveforms/rf",
		},
		{
			name:     "trailing separator stripped",
			path:     "/some/path/1L99/2018_05_01/012345.6/",
			zone:     "1L99",
			expected: time.Date(2018, 5, 1, 1, 23, 45, 600000000, time.UTC),
			root:     "/some/path",
		},
		{
			name:     "windows separators",
			path:     `C:\rf\data\2L22\2019_12_25\012345.67`,
			zone:     "2L22",
			expected: time.Date(2019, 12, 25, 1, 23, 45, 670000000, time.UTC),
			root:     "C:/rf/data",
		},
		{
			name:     "zone directly under filesystem root",
			path:     "/1L25/2018_10_05/044408.2",
			zone:     "1L25",
			expected: time.Date(2018, 10, 5, 4, 44, 8, 200000000, time.UTC),
			root:     "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParsePath(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id.Zone != tt.zone {
				t.Errorf("zone: expected %q, got %q", tt.zone, id.Zone)
			}
			if !id.Time.Equal(tt.expected) {
				t.Errorf("time: expected %s, got %s", tt.expected, id.Time)
			}
			if id.Root != tt.root {
				t.Errorf("root: expected %q, got %q", tt.root, id.Root)
			}
		})
	}
}

func TestParsePath_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"too few segments", "2018_05_01/012345.6"},
		{"bad date pattern", "/some/path/1L99/20178-05-01/012345.6"},
		{"bad time pattern", "/some/path/1L99/2018_05_01/00:03:50.7289"},
		{"missing fraction", "/some/path/1L99/2018_05_01/012345"},
		{"invalid calendar day", "/some/path/1L99/2018_02_30/012345.6"},
		{"invalid hour", "/some/path/1L99/2018_02_03/252345.6"},
		{"empty zone", "/some/path//2018_02_03/012345.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePath(tt.path)
			if err == nil {
				t.Fatalf("expected error for %q", tt.path)
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("expected ErrParse, got %v", err)
			}
		})
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/d/1L25/2023_02_01/210026.1", "2023-02-01 21:00:26.1"},
		{"/d/1L25/2018_10_05/044408.2", "2018-10-05 04:44:08.2"},
		{"/d/0L04/2020_01_01/000000.0", "2020-01-01 00:00:00.0"},
		// sub-tenth digits are truncated, not rounded
		{"/d/1L22/2019_07_04/235959.99", "2019-07-04 23:59:59.9"},
	}

	for _, tt := range tests {
		id, err := ParsePath(tt.path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := id.Timestamp(); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.expected, got)
		}
	}
}

func TestIsAbs(t *testing.T) {
	tests := map[string]bool{
		"/data/1L25/2023_02_01/210026.1":  true,
		`C:\data\1L25\2023_02_01\210026.1`: true,
		"d:/data":                          true,
		"data/1L25/2023_02_01/210026.1":   false,
		"":                                false,
	}
	for path, expected := range tests {
		if got := IsAbs(path); got != expected {
			t.Errorf("IsAbs(%q): expected %v, got %v", path, expected, got)
		}
	}
}

func TestRawSegments(t *testing.T) {
	zone, ts := RawSegments("/some/path/1L99/20178-05-01/00:03:50.7289")
	if zone != "1L99" {
		t.Errorf("unexpected zone: %q", zone)
	}
	if ts != "20178-05-01 00:03:50.7289" {
		t.Errorf("unexpected timestamp: %q", ts)
	}

	zone, ts = RawSegments("event")
	if zone != "" || ts != "event" {
		t.Errorf("unexpected segments: %q %q", zone, ts)
	}
}
