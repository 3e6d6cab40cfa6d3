package guard

import (
	"fmt"
	"math"
	"strings"
)

// Contribution records one scored trigger.
type Contribution struct {
	RuleID string
	Reason string
	Weight int
}

// ledger is the running score of a session. The total only grows until
// reset and saturates instead of overflowing.
type ledger struct {
	threshold int
	total     int
	entries   []Contribution
}

func newLedger(threshold int) ledger {
	if threshold < 1 {
		threshold = 1
	}
	return ledger{threshold: threshold}
}

func (l *ledger) add(c Contribution) {
	if c.Weight <= 0 {
		return
	}
	if l.total > math.MaxInt-c.Weight {
		l.total = math.MaxInt
	} else {
		l.total += c.Weight
	}
	l.entries = append(l.entries, c)
}

func (l *ledger) reached() bool {
	return l.total > 0 && l.total >= l.threshold
}

// reason lists each contributing reason once, in the order first seen.
func (l *ledger) reason() string {
	seen := make(map[string]bool, len(l.entries))
	var reasons []string
	for _, c := range l.entries {
		if seen[c.Reason] {
			continue
		}
		seen[c.Reason] = true
		reasons = append(reasons, c.Reason)
	}
	return fmt.Sprintf("score threshold exceeded: %d >= %d (%s)", l.total, l.threshold, strings.Join(reasons, "; "))
}

func (l *ledger) details() []Contribution {
	out := make([]Contribution, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ledger) reset() {
	l.total = 0
	l.entries = nil
}
