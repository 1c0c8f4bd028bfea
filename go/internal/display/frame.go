package display

import (
	"fmt"
	"time"

	"github.com/mcdev12/timehack/go/internal/clockmath"
)

// Frame describes one render of the clock
type Frame struct {
	Timestamp        time.Time `json:"timestamp"`
	Digits           string    `json:"digits"`
	Flashing         bool      `json:"flashing"`
	CountdownVisible bool      `json:"countdown_visible"`
	CountdownDigit   int       `json:"countdown_digit"`
	StatusMessage    string    `json:"status_message"`
}

// BuildFrame computes the display state for ts. A flash hides the countdown.
func BuildFrame(ts time.Time) Frame {
	ts = ts.UTC()
	flashing := clockmath.ShouldFlash(ts)

	return Frame{
		Timestamp:        ts,
		Digits:           clockmath.FormattedClock(ts),
		Flashing:         flashing,
		CountdownVisible: clockmath.ShouldCountdown(ts) && !flashing,
		CountdownDigit:   clockmath.CountdownValue(ts),
		StatusMessage:    StatusMessage(ts),
	}
}

// StatusMessage announces the next top of minute during the first half of a
// minute, and the time 30 seconds ahead during the second half.
func StatusMessage(ts time.Time) string {
	if clockmath.SecondsInMinute(ts) <= 30 {
		return fmt.Sprintf("In one minute, the time will be %s UTC.", clockmath.NextMinuteLabel(ts))
	}
	return fmt.Sprintf("In 30 seconds, the time will be %s UTC.", clockmath.NextMinuteLabel(ts.Add(30*time.Second)))
}
