package beanstalkt

import "time"

// includes checks if string s is included in the slice of strings a.
func includes(a []string, s string) bool {
	for _, e := range a {
		if e == s {
			return true
		}
	}

	return false
}

// dur converts a duration to the whole number of seconds the protocol
// expects. Negative durations count as zero.
func dur(d time.Duration) int64 {
	if d < 0 {
		d = 0
	}

	return int64(d / time.Second)
}
