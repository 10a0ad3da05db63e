package timeutil

import (
	"time"
)

// TimeUTC is a small helper type representing Unix time (in seconds) in UTC.
// Using a dedicated type prevents confusion between local and UTC timestamps.
type TimeUTC struct {
	T int64 `json:"t"`
}

func NowUTC() TimeUTC {
	return FromTime(time.Now())
}

func FromTime(t time.Time) TimeUTC {
	return TimeUTC{T: t.UTC().Unix()}
}

func (t TimeUTC) Time() time.Time { return time.Unix(t.T, 0).UTC() }
