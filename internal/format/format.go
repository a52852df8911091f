// Package format holds the pure display helpers used by chat-list and
// attachment rendering. Stateless by design so they can be tested without a
// store.
package format

import (
	"fmt"
	"time"
)

// TimeLabel renders the relative label for a message timestamp: time of day
// for today, "Yesterday", the short weekday name within a week, month/day
// otherwise.
func TimeLabel(now, t time.Time) string {
	days := daysBetween(t, now)
	switch {
	case days <= 0:
		return t.Format("15:04")
	case days == 1:
		return "Yesterday"
	case days < 7:
		return t.Format("Mon")
	default:
		return t.Format("Jan 2")
	}
}

// FileSize renders an attachment byte size: plain bytes below 1 KB, then
// KB/MB/GB with one decimal, 1024 base.
func FileSize(bytes int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case bytes < kb:
		return fmt.Sprintf("%d bytes", bytes)
	case bytes < mb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	case bytes < gb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	}
}

// daysBetween counts whole calendar days from t to now in t's location.
func daysBetween(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.In(t.Location()).Date()
	start := time.Date(ty, tm, td, 0, 0, 0, 0, t.Location())
	end := time.Date(ny, nm, nd, 0, 0, 0, 0, t.Location())
	return int(end.Sub(start) / (24 * time.Hour))
}
