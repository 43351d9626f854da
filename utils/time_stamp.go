package utils

import (
	"time"
)

// UTCLayout is the timestamp layout used in session headers and footers.
const UTCLayout = "2006-01-02T15:04:05.000Z"

// NowNano returns the current time as nanoseconds since Unix epoch.
func NowNano() int64 {
	return time.Now().UnixNano()
}

// FormatUTC renders t in UTC with millisecond precision.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(UTCLayout)
}

// ParseUTC is the inverse of FormatUTC.
func ParseUTC(s string) (time.Time, error) {
	return time.Parse(UTCLayout, s)
}

// Clock abstracts time.Now so recorders can be driven deterministically.
// Values returned by Now must carry a monotonic reading for Since to be
// immune to wall-clock steps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock with Go's monotonic reading attached.
var SystemClock Clock = systemClock{}
