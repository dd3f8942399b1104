package utils

import (
	"strconv"
	"strings"
)

// ParseFloat reads the numeric strings the Graph API returns. Empty means zero.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	return strconv.ParseFloat(s, 64)
}

// ParseInt accepts integers and integral floats ("12" or "12.0").
func ParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	return int64(f), nil
}
