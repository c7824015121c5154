package capability

import (
	"fmt"
	"strings"
)

// Matches reports whether the granted capability covers the required one.
//
// Rules:
//   - KindToolAll covers any KindToolInvoke.
//   - Pattern-scoped kinds match when the variants agree and the granted
//     glob covers the required value ("*" matches all; "prefix*",
//     "*suffix", "prefix*suffix" and exact strings otherwise).
//   - Numeric kinds match when granted.Limit >= required.Limit.
//   - Boolean kinds match only on an identical variant.
//   - Different variants never match.
func Matches(granted, required Capability) bool {
	if granted.Kind == KindToolAll && required.Kind == KindToolInvoke {
		return true
	}
	if granted.Kind != required.Kind {
		return false
	}

	switch granted.Kind {
	case KindToolAll, KindAgentSpawn:
		return true
	case KindLlmMaxTokens, KindSpend:
		return granted.Limit >= required.Limit
	case KindNetListen:
		return granted.Pattern == required.Pattern
	default:
		return globMatches(granted.Pattern, required.Pattern)
	}
}

// ValidateInheritance checks that every capability the child requests is
// covered by at least one parent capability under Matches. A violation is
// a privilege-escalation attempt: the returned error names the offending
// capability and the caller must abort the spawn. The check is pure and
// must never be narrowed or retried.
func ValidateInheritance(parent, child []Capability) error {
	for _, want := range child {
		covered := false
		for _, have := range parent {
			if Matches(have, want) {
				covered = true
				break
			}
		}
		if !covered {
			return fmt.Errorf("privilege escalation denied: child requests %s but parent has no matching grant", want)
		}
	}
	return nil
}

// globMatches implements the kernel's glob subset: "*" matches anything,
// otherwise exact match or a single '*' splitting the pattern into a
// required prefix and suffix.
func globMatches(pattern, value string) bool {
	if pattern == "*" || pattern == value {
		return true
	}
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return false
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	return strings.HasPrefix(value, prefix) &&
		strings.HasSuffix(value, suffix) &&
		len(value) >= len(prefix)+len(suffix)
}
