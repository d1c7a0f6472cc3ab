package sail

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aleksaelezovic/propsail/pkg/graph"
)

// Bind-pattern bitmask, one bit per quad position.
const (
	maskS = 1 << iota
	maskP
	maskO
	maskC

	numSlots = 16
)

var patternRe = regexp.MustCompile(`^s?p?o?c?$`)

// maskOf parses a pattern string like "pc" or "spoc" into its bitmask.
func maskOf(pattern string) (int, error) {
	if pattern == "" || !patternRe.MatchString(pattern) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	mask := 0
	for _, r := range pattern {
		switch r {
		case 's':
			mask |= maskS
		case 'p':
			mask |= maskP
		case 'o':
			mask |= maskO
		case 'c':
			mask |= maskC
		}
	}
	return mask, nil
}

// patternOf renders a bitmask back to its canonical pattern string.
func patternOf(mask int) string {
	var b strings.Builder
	if mask&maskS != 0 {
		b.WriteByte('s')
	}
	if mask&maskP != 0 {
		b.WriteByte('p')
	}
	if mask&maskO != 0 {
		b.WriteByte('o')
	}
	if mask&maskC != 0 {
		b.WriteByte('c')
	}
	return b.String()
}

// parseIndexedPatterns parses the comma-separated configuration value and
// returns the enabled pattern masks. "p" and "c" are always included.
func parseIndexedPatterns(s string) (map[int]string, error) {
	patterns := map[int]string{
		maskP: "p",
		maskC: "c",
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mask, err := maskOf(part)
		if err != nil {
			return nil, err
		}
		patterns[mask] = patternOf(mask)
	}
	return patterns, nil
}

// alternatives captures subset containment: a bind-pattern P can be served by
// a matcher for any Q ⊂ P at post-filter cost. Preferred alternatives first,
// with the most bound positions.
var alternatives = map[string][]string{
	"sp":   {"s", "p"},
	"so":   {"s", "o"},
	"sc":   {"s", "c"},
	"po":   {"o", "p"},
	"pc":   {"p", "c"},
	"oc":   {"o", "c"},
	"spo":  {"so", "sp", "po"},
	"spc":  {"sc", "sp", "pc"},
	"soc":  {"so", "sc", "oc"},
	"poc":  {"po", "oc", "pc"},
	"spoc": {"spo", "soc", "spc", "poc"},
}

// buildMatchers fills the 16-slot dispatch table.
//
// Slot 0 is the trivial full-scan matcher. Configured indexed patterns seed
// their slots with indexing matchers; every remaining slot with s or o bound
// gets a graph-based matcher; anything still empty resolves through the
// alternative table, sharing a matcher instance with a populated subset slot.
// Over-matching from shared instances is filtered by the connection, which
// applies the full 4-tuple predicate to every yielded edge.
func buildMatchers(g graph.Graph, edges graph.Index, patterns map[int]string) [numSlots]matcher {
	var slots [numSlots]matcher
	slots[0] = &trivialMatcher{g: g}

	for mask, pattern := range patterns {
		slots[mask] = &indexingMatcher{mask: mask, pattern: pattern, edges: edges}
	}

	for mask := 1; mask < numSlots; mask++ {
		if slots[mask] == nil && mask&(maskS|maskO) != 0 {
			slots[mask] = &graphMatcher{mask: mask}
		}
	}

	for mask := 1; mask < numSlots; mask++ {
		if slots[mask] != nil {
			continue
		}
		for _, alt := range alternatives[patternOf(mask)] {
			altMask, _ := maskOf(alt)
			if slots[altMask] != nil {
				slots[mask] = slots[altMask]
				break
			}
		}
		if slots[mask] == nil {
			// The s-only slot is always populated after the passes above
			// (indexing if "s" is configured, graph-based otherwise).
			slots[mask] = slots[maskS]
		}
	}
	return slots
}
