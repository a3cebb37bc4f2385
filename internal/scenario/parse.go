// Package scenario schedules blends between precomputed lighting scenarios
// keyed by time of day, and persists the catalog of baked scenarios.
//
// Scenario names end in a space-separated HHMM token, e.g. "Interior 1430".
package scenario

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ParseTimeOfDay extracts the time of day in hours from the trailing HHMM
// token of name. Names whose last token is not exactly four ASCII digits,
// or whose hour or minute is out of range, are rejected.
func ParseTimeOfDay(name string) (float64, bool) {
	token := name
	if idx := strings.LastIndex(name, " "); idx >= 0 {
		token = name[idx+1:]
	}
	if len(token) != 4 {
		return 0, false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return 0, false
		}
	}

	hh := int(token[0]-'0')*10 + int(token[1]-'0')
	mm := int(token[2]-'0')*10 + int(token[3]-'0')
	if hh >= 24 || mm >= 60 {
		return 0, false
	}

	return float64(hh) + float64(mm)/60, true
}

// Name builds the scenario name for a scene at a local wall time
func Name(scene string, local time.Time) string {
	return fmt.Sprintf("%s %02d%02d", scene, local.Hour(), local.Minute())
}

// FormatHours renders a time of day as HH:MM, used in log lines
func FormatHours(hours float64) string {
	total := int(math.Round(hours * 60))
	total = ((total % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
