package utils

import (
	"fmt"
	"time"
)

// FormatElapsed renders a duration as mm:ss.  Minutes keep growing past
// 59 ("75:03") because tables are never open for days.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
