package query

import "strconv"

// parseHour returns the 0-23 hour from a hash field, -1 when malformed.
func parseHour(field string) int {
	h, err := strconv.Atoi(field)
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	return h
}

func parseCount(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
