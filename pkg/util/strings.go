package util

import (
	"strconv"
	"strings"
)

// Normalize trims and lowercases free text so that equality checks ignore casing and padding.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParsePrice parses a price that may carry thousands separators or a currency prefix.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
