package executor

import (
	"strconv"
	"strings"
	"time"
)

// DefaultPeriod is used when a periodic schedule expression cannot be
// parsed. Five minutes is slow enough to be safe for an agent whose author
// mistyped the expression.
const DefaultPeriod = 300 * time.Second

// ParsePeriod parses a periodic schedule expression of the form
// "every <N><unit>" where unit is s, m, h or d, e.g. "every 30s" or
// "every 2h". Unparseable expressions fall back to DefaultPeriod rather
// than failing; a background agent on a wrong cadence beats one that never
// runs.
func ParsePeriod(expr string) time.Duration {
	fields := strings.Fields(strings.TrimSpace(strings.ToLower(expr)))
	if len(fields) != 2 || fields[0] != "every" {
		return DefaultPeriod
	}

	spec := fields[1]
	if len(spec) < 2 {
		return DefaultPeriod
	}

	n, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil || n <= 0 {
		return DefaultPeriod
	}

	switch spec[len(spec)-1] {
	case 's':
		return time.Duration(n) * time.Second
	case 'm':
		return time.Duration(n) * time.Minute
	case 'h':
		return time.Duration(n) * time.Hour
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	default:
		return DefaultPeriod
	}
}
