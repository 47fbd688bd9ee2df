package catalog

import (
	"fmt"
	"strings"
)

// TimeRange selects the listening window for top tracks and artists.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

func (r TimeRange) DisplayName() string {
	switch r {
	case ShortTerm:
		return "Last 4 Weeks"
	case MediumTerm:
		return "Last 6 Months"
	case LongTerm:
		return "All Time"
	}
	return string(r)
}

// ParseTimeRange accepts the API values plus the short aliases "short",
// "medium", "long", "4w", "6m" and "all".
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short_term", "short", "4w":
		return ShortTerm, nil
	case "medium_term", "medium", "6m", "":
		return MediumTerm, nil
	case "long_term", "long", "all":
		return LongTerm, nil
	}
	return "", fmt.Errorf("invalid time range %q: want one of short, medium, long", s)
}
