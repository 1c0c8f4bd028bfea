// Package clockmath holds the pure time arithmetic behind the clock display.
// Every function converts its input to UTC first.
package clockmath

import "time"

const (
	secondsPerDay = 24 * 60 * 60

	// CountdownStart is the second of the minute at which the countdown appears
	CountdownStart = 50
)

// FormattedClock returns ts as zero-padded 24-hour "HH:MM:SS"
func FormattedClock(ts time.Time) string {
	return ts.UTC().Format("15:04:05")
}

// SecondsSinceMidnight returns whole seconds elapsed in the UTC day, in [0, 86399]
func SecondsSinceMidnight(ts time.Time) int {
	h, m, s := ts.UTC().Clock()
	return (h*3600 + m*60 + s) % secondsPerDay
}

// SecondsInMinute returns the second of the minute, in [0, 59]
func SecondsInMinute(ts time.Time) int {
	return SecondsSinceMidnight(ts) % 60
}

// ShouldFlash is true at the :00 and :30 second marks
func ShouldFlash(ts time.Time) bool {
	s := SecondsInMinute(ts)
	return s == 0 || s == 30
}

// ShouldCountdown is true for the last ten seconds of a minute
func ShouldCountdown(ts time.Time) bool {
	return SecondsInMinute(ts) >= CountdownStart
}

// CountdownValue returns seconds left until the next minute while the
// countdown is showing, and 0 otherwise.
func CountdownValue(ts time.Time) int {
	s := SecondsInMinute(ts)
	if s < CountdownStart {
		return 0
	}
	return max(0, 60-s)
}

// NextMinute truncates ts to the minute and adds one minute
func NextMinute(ts time.Time) time.Time {
	return ts.UTC().Truncate(time.Minute).Add(time.Minute)
}

// NextMinuteLabel returns NextMinute as "HH:MM"
func NextMinuteLabel(ts time.Time) string {
	return NextMinute(ts).Format("15:04")
}
