package schema

import "time"

// Persisted timestamps are UTC ticks: 100 ns units since 0001-01-01T00:00:00Z.
// unixEpochTicks is the tick count at the Unix epoch.
const unixEpochTicks int64 = 621355968000000000

// Ticks converts a time to UTC ticks.
func Ticks(t time.Time) int64 {
	return unixEpochTicks + t.UTC().UnixNano()/100
}

// TimeFromTicks converts UTC ticks back to a time.
func TimeFromTicks(ticks int64) time.Time {
	return time.Unix(0, (ticks-unixEpochTicks)*100).UTC()
}
