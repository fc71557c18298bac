// Package event derives the identity of an RF fault event from its storage path.
package event

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrParse is returned when an event path does not encode a zone, date and time.
var ErrParse = errors.New("malformed event path")

// TimestampLayout renders event times with a single fractional-second digit.
const TimestampLayout = "2006-01-02 15:04:05.0"

var (
	reDate      = regexp.MustCompile(`^\d{4}_\d{2}_\d{2}$`)
	reTimeOfDay = regexp.MustCompile(`^\d{6}\.\d{1,6}$`)
	reVolume    = regexp.MustCompile(`^[A-Za-z]:/`)
)

// Identity locates one fault event. Zero value is not valid; use ParsePath.
type Identity struct {
	Zone string
	// Time is the site wall-clock time of the fault, in time.UTC.
	Time time.Time
	// Root is the data-source root the zone directory lives under.
	Root string
	// Dir is the normalized event directory.
	Dir string
}

// ParsePath extracts an Identity from a path ending in <zone>/<YYYY_MM_DD>/<HHMMSS.f>.
// Backslash separators are accepted and trailing separators are ignored.
func ParsePath(path string) (Identity, error) {
	p := normalize(path)
	segs := strings.Split(p, "/")
	if len(segs) < 3 {
		return Identity{}, fmt.Errorf("%w: %q must end in <zone>/<YYYY_MM_DD>/<HHMMSS.f>", ErrParse, path)
	}

	zone, day, tod := segs[len(segs)-3], segs[len(segs)-2], segs[len(segs)-1]
	if zone == "" {
		return Identity{}, fmt.Errorf("%w: %q has an empty zone segment", ErrParse, path)
	}
	if !reDate.MatchString(day) {
		return Identity{}, fmt.Errorf("%w: date segment %q does not match YYYY_MM_DD", ErrParse, day)
	}
	if !reTimeOfDay.MatchString(tod) {
		return Identity{}, fmt.Errorf("%w: time segment %q does not match HHMMSS.f", ErrParse, tod)
	}

	// Event times are site wall-clock times with no zone; they are carried as UTC.
	// time.Parse accepts the fractional seconds after the seconds field.
	ts, err := time.Parse("2006_01_02 150405", day+" "+tod)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	root := strings.Join(segs[:len(segs)-3], "/")
	if root == "" && strings.HasPrefix(p, "/") {
		root = "/"
	}

	return Identity{Zone: zone, Time: ts, Root: root, Dir: p}, nil
}

// Timestamp renders the event time as "YYYY-MM-DD hh:mm:ss.f".
func (id Identity) Timestamp() string {
	return id.Time.Format(TimestampLayout)
}

func (id Identity) String() string {
	return id.Zone + " " + id.Timestamp()
}

// IsAbs reports whether path is absolute on either a POSIX or a Windows host.
func IsAbs(path string) bool {
	p := strings.ReplaceAll(path, `\`, "/")
	return strings.HasPrefix(p, "/") || reVolume.MatchString(p)
}

// RawSegments returns the zone and "date time" segments of path without validating
// them. Used to label failures for paths that ParsePath rejects.
func RawSegments(path string) (zone, timestamp string) {
	segs := strings.Split(normalize(path), "/")
	n := len(segs)
	if n >= 3 {
		zone = segs[n-3]
	}
	if n >= 2 {
		timestamp = segs[n-2] + " " + segs[n-1]
	} else if n == 1 {
		timestamp = segs[0]
	}
	return zone, timestamp
}

func normalize(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" && p != "" {
		return "/"
	}
	return trimmed
}
