// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"time"
)

// FormatTime formats d as MM:SS. Seconds are truncated and minutes keep
// counting past an hour.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
