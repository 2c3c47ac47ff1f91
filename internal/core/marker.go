package core

import (
	"strconv"
	"time"
)

// Marker is an opaque, monotonically comparable position indicator: a
// string-encoded timestamp such as "1700000000.000100". The zero value means
// "no marker".
type Marker string

// MarkerNone is the rollback sentinel meaning "no known message".
const MarkerNone Marker = "0"

// IsZero reports whether the marker is absent.
func (m Marker) IsZero() bool {
	return m == ""
}

// After reports whether m points to a later position than other. An absent
// marker is never after anything.
func (m Marker) After(other Marker) bool {
	if m.IsZero() {
		return false
	}
	return m.seconds() > other.seconds()
}

// Time converts the marker to wall-clock time, for freshness decisions.
func (m Marker) Time() time.Time {
	f := m.seconds()
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func (m Marker) seconds() float64 {
	f, err := strconv.ParseFloat(string(m), 64)
	if err != nil {
		return 0
	}
	return f
}
