package sequence

import (
	"strings"
	"unicode"

	"github.com/gzhole/streamguard/internal/normalize"
)

// Match is a completed sequence of a tracked slot: the words that satisfied
// each expected token, as byte ranges of the stream.
type Match struct {
	Slot  int
	Words []Span
}

// Stream tokenizes chunked text and drives one Progress per registered
// Pattern. A chunk that ends inside a word leaves that word tentative: it is
// matched right away, and if the next chunk continues it the progress from
// before the fragment is restored and the merged word is matched instead.
// Triggers already reported for the fragment are not reported again.
//
// Offsets count the bytes pushed since the stream was created or reset.
type Stream struct {
	patterns []*Pattern
	progress []Progress
	tracked  []bool
	offset   int

	tail      string     // raw tentative word, empty when none
	tailStart int        // stream offset of tail
	snapshot  []Progress // progress before tail was matched
	tailHits  []int      // triggers reported for tail, per slot

	matches []Match // completed on final words, not yet taken
	pending []Match // completed on the tentative word
}

// Add registers p and returns its slot. The new slot starts with no
// progress and only sees words pushed after this call.
func (s *Stream) Add(p *Pattern) int {
	s.patterns = append(s.patterns, p)
	s.progress = append(s.progress, Progress{})
	s.tracked = append(s.tracked, false)
	return len(s.patterns) - 1
}

// Track makes the matches of slot available from Matches.
func (s *Stream) Track(slot int) { s.tracked[slot] = true }

// Len returns the number of registered patterns.
func (s *Stream) Len() int { return len(s.patterns) }

// Push consumes one chunk and returns, per slot, how many times the pattern
// completed within it.
func (s *Stream) Push(chunk string) []int {
	hits := make([]int, len(s.patterns))
	base := s.offset
	s.offset += len(chunk)

	words, joins, open := normalize.Split(chunk)
	if len(words) == 0 {
		if chunk != "" {
			s.Commit()
		}
		return hits
	}

	if s.tail != "" {
		if joins {
			w := words[0]
			words = words[1:]
			at := Span{Start: s.tailStart, End: base + w.End}
			s.rematch(s.tail+w.Text, at, len(words) == 0 && open, hits)
		} else {
			s.Commit()
		}
	}

	for i, w := range words {
		at := Span{Start: base + w.Start, End: base + w.End}
		if i == len(words)-1 && open {
			s.tentative(w.Text, at, hits)
			break
		}
		s.step(w.Text, at, hits, &s.matches)
	}
	return hits
}

// Commit makes the tentative word final. Call it at end of stream.
func (s *Stream) Commit() {
	s.matches = append(s.matches, s.pending...)
	s.pending = nil
	s.tail = ""
	s.snapshot = nil
	s.tailHits = nil
}

// Reset clears all progress and offsets but keeps the registered patterns.
func (s *Stream) Reset() {
	for i := range s.progress {
		s.progress[i] = Progress{}
	}
	s.Commit()
	s.matches = nil
	s.offset = 0
}

// Matches returns the matches of tracked slots completed since the last
// call, in stream order. A match that ends on the tentative word is held
// back until the word is final.
func (s *Stream) Matches() []Match {
	out := s.matches
	s.matches = nil
	return out
}

// Hold returns the offset of the earliest word that a tracked slot may still
// include in a match. It reports false when nothing needs holding.
func (s *Stream) Hold() (int, bool) {
	at, ok := 0, false
	consider := func(start int) {
		if !ok || start < at {
			at, ok = start, true
		}
	}
	for i, tracked := range s.tracked {
		if !tracked {
			continue
		}
		if start, found := s.progress[i].earliest(); found {
			consider(start)
		}
		if i < len(s.snapshot) {
			if start, found := s.snapshot[i].earliest(); found {
				consider(start)
			}
		}
		if s.tail != "" {
			consider(s.tailStart)
		}
	}
	return at, ok
}

func (s *Stream) step(raw string, at Span, hits []int, found *[]Match) {
	tok := normalize.Token(raw)
	if tok == "" {
		return
	}
	at = trimPunct(raw, at)
	for i, p := range s.patterns {
		words, ok := s.progress[i].Step(p, tok, at)
		if !ok {
			continue
		}
		hits[i]++
		if s.tracked[i] {
			*found = append(*found, Match{Slot: i, Words: words})
		}
	}
}

func (s *Stream) tentative(raw string, at Span, hits []int) {
	s.snapshot = s.cloneProgress()
	s.tail, s.tailStart = raw, at.Start
	s.tailHits = make([]int, len(s.patterns))
	s.pending = nil
	s.step(raw, at, s.tailHits, &s.pending)
	for i, n := range s.tailHits {
		hits[i] += n
	}
}

// rematch replaces the tentative word with merged, matched from the
// snapshot. stillOpen keeps merged tentative.
func (s *Stream) rematch(merged string, at Span, stillOpen bool, hits []int) {
	for i := range s.progress {
		if i < len(s.snapshot) {
			s.progress[i] = s.snapshot[i].Clone()
		} else {
			s.progress[i] = Progress{}
		}
	}
	prev := s.tailHits

	raw := make([]int, len(s.patterns))
	s.pending = nil
	s.step(merged, at, raw, &s.pending)
	for i, n := range raw {
		var seen int
		if i < len(prev) {
			seen = prev[i]
		}
		if n > seen {
			hits[i] += n - seen
		} else {
			raw[i] = seen
		}
	}

	if stillOpen {
		s.tail = merged
		s.tailHits = raw
		return
	}
	s.Commit()
}

func (s *Stream) cloneProgress() []Progress {
	out := make([]Progress, len(s.progress))
	for i := range s.progress {
		out[i] = s.progress[i].Clone()
	}
	return out
}

// trimPunct narrows at to the part of raw left after trimming leading and
// trailing punctuation, the way tokens are compared.
func trimPunct(raw string, at Span) Span {
	lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsPunct))
	trail := len(raw) - len(strings.TrimRightFunc(raw, unicode.IsPunct))
	if lead+trail >= len(raw) {
		return at
	}
	return Span{Start: at.Start + lead, End: at.End - trail}
}
