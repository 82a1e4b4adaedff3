// Package validity derives remaining subscription time from a plan order's
// stored time-accounting state. All functions are pure; callers supply the
// clock.
package validity

import (
	"fmt"
	"time"

	"dukani-service/internal/domain/subscription"
)

const (
	msPerMinute int64 = 60_000
	msPerHour   int64 = 3_600_000
	msPerDay    int64 = 86_400_000
)

// TotalMs returns the full purchased term of an order in milliseconds,
// always from the order's own duration snapshot, never the live plan.
func TotalMs(o *subscription.PlanOrder) int64 {
	return int64(o.DurationDays) * msPerDay
}

// RemainingMs returns the unconsumed portion of an order's term at the given
// instant. While the order is active, the running interval since
// LastActivatedAt counts as consumed on top of UsedMs.
//
// The result may be negative; callers treat <= 0 as expired and clamp before
// displaying.
func RemainingMs(o *subscription.PlanOrder, now time.Time) int64 {
	var elapsed int64
	if o.Status == subscription.OrderStatusActive && o.LastActivatedAt.Valid {
		elapsed = now.Sub(o.LastActivatedAt.Time).Milliseconds()
	}
	return TotalMs(o) - o.UsedMs - elapsed
}

// Clamp maps negative remaining time to zero for display.
func Clamp(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}

// Format renders a remaining duration as days/hours/minutes, e.g. "29d 23h 59m".
// Negative input is treated as zero.
func Format(ms int64) string {
	ms = Clamp(ms)
	days := ms / msPerDay
	hours := (ms % msPerDay) / msPerHour
	minutes := (ms % msPerHour) / msPerMinute
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
