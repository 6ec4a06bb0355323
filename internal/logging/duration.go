// Package logging renders the human-readable Sound Check summary for a
// checked master.
package logging

import (
	"fmt"
	"math"
)

// FormatDuration renders a non-negative duration in seconds as a
// fixed-width clock string. The default form carries unit suffixes and
// hundredths of a second ("00h:01m:36.03s"); the compact form is the
// bare "HH:MM:SS" shape other command-line tools expect.
func FormatDuration(seconds float64, compact bool) string {
	hours := int(seconds / 3600)
	minutes := int(math.Mod(seconds, 3600) / 60)
	secs := seconds - float64(hours)*3600 - float64(minutes)*60
	if compact {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, int(secs))
	}
	// %.2f rounds, so a remainder like 59.999 must carry into the
	// minutes field rather than print as 60.00
	secs = math.Round(secs*100) / 100
	if secs >= 60 {
		secs -= 60
		minutes++
	}
	if minutes == 60 {
		minutes = 0
		hours++
	}
	return fmt.Sprintf("%02dh:%02dm:%05.2fs", hours, minutes, secs)
}
