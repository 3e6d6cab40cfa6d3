// Package sequence detects forbidden word sequences in a token stream that
// arrives in arbitrary chunks. A Pattern is immutable configuration; all
// matching progress lives in Progress values owned by the caller.
package sequence

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/gzhole/streamguard/internal/normalize"
)

// minFuzzyLen is the shortest expected token that fuzzy matching applies to.
// Below it a single edit turns most words into unrelated ones.
const minFuzzyLen = 4

// Pattern is a compiled forbidden sequence.
type Pattern struct {
	tokens    []string
	maxGap    int
	maxEdits  int
	stopWords map[string]struct{}
}

// Compile normalizes the expected tokens and stop words. Entries that
// contain whitespace are split into several tokens.
func Compile(tokens []string, maxGap int, stopWords []string, maxEdits int) (*Pattern, error) {
	if maxGap < 0 {
		return nil, fmt.Errorf("negative gap tolerance %d", maxGap)
	}
	if maxEdits < 0 {
		return nil, fmt.Errorf("negative edit distance %d", maxEdits)
	}

	p := &Pattern{maxGap: maxGap, maxEdits: maxEdits}
	for _, raw := range tokens {
		norm := normalize.Tokens(raw)
		if len(norm) == 0 {
			return nil, fmt.Errorf("token %q has no matchable content", raw)
		}
		p.tokens = append(p.tokens, norm...)
	}
	if len(p.tokens) == 0 {
		return nil, errors.New("empty token list")
	}

	if len(stopWords) > 0 {
		p.stopWords = make(map[string]struct{}, len(stopWords))
		for _, w := range stopWords {
			for _, t := range normalize.Tokens(w) {
				p.stopWords[t] = struct{}{}
			}
		}
	}
	return p, nil
}

// Tokens returns the normalized expected tokens.
func (p *Pattern) Tokens() []string {
	out := make([]string, len(p.tokens))
	copy(out, p.tokens)
	return out
}

func (p *Pattern) isStop(token string) bool {
	_, ok := p.stopWords[token]
	return ok
}

// expects reports whether token satisfies the expected token at pos.
func (p *Pattern) expects(pos int, token string) bool {
	want := p.tokens[pos]
	if token == want {
		return true
	}
	if p.maxEdits == 0 || utf8.RuneCountInString(want) < minFuzzyLen {
		return false
	}
	return levenshtein.ComputeDistance(token, want) <= p.maxEdits
}

// expectsLater reports whether token satisfies an expected token after pos.
func (p *Pattern) expectsLater(pos int, token string) bool {
	for q := pos + 1; q < len(p.tokens); q++ {
		if p.expects(q, token) {
			return true
		}
	}
	return false
}
