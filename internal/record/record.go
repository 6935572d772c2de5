// Package record holds helpers shared by the collection-backed repositories:
// identifier assignment and update timestamps.
package record

import "time"

// Clock returns the current time. Repositories default to Now.
type Clock func() time.Time

// Now returns the current UTC time without a monotonic reading, so values
// survive a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC()
}

// NextID returns one more than the largest id in items, or 1 when empty.
func NextID[T any](items []T, id func(T) int64) int64 {
	var highest int64
	for _, item := range items {
		if v := id(item); v > highest {
			highest = v
		}
	}
	return highest + 1
}

// Touch returns a timestamp strictly after prev, preferring now.
func Touch(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
