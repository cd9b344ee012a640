package credentials

import "time"

// The table stores timestamps as fractional epoch seconds (REAL), matching
// what the rest of the dashboard tooling expects to read.

func toEpoch(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

func fromEpoch(sec float64) time.Time {
	return time.UnixMilli(int64(sec * 1000)).UTC()
}
