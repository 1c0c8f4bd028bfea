package timesync

import "time"

// TimeSample is a single reading of the current time
type TimeSample struct {
	At     time.Time `json:"at"`
	Source string    `json:"source"`
}

// NewTimeSample normalizes t to UTC
func NewTimeSample(t time.Time, source string) TimeSample {
	return TimeSample{At: t.UTC(), Source: source}
}

// Seconds returns the sample as floating seconds since the Unix epoch
func (s TimeSample) Seconds() float64 {
	return float64(s.At.UnixNano()) / float64(time.Second)
}
