package sequence

// Span is a byte range [Start, End) of the stream.
type Span struct {
	Start, End int
}

// cursor is one partial attempt at a sequence: pos expected tokens have been
// seen and gaps unrelated tokens have been skipped since the last of them.
// words holds where each of the pos tokens was seen.
type cursor struct {
	pos   int
	gaps  int
	words []Span
}

// Progress is the matching state of one Pattern. The zero value has no
// attempt in flight. Attempts are keyed by position, so a Progress never
// holds more than len(tokens)-1 of them.
type Progress struct {
	cursors []cursor
}

// Step advances every attempt with one normalized token seen at span at.
// When the sequence completes on it, Step returns the spans of the words
// that satisfied each expected token and true. Empty tokens are ignored.
func (pr *Progress) Step(p *Pattern, token string, at Span) ([]Span, bool) {
	if token == "" {
		return nil, false
	}
	if p.isStop(token) {
		pr.cursors = pr.cursors[:0]
		return nil, false
	}

	last := len(p.tokens)
	var done []Span
	next := pr.cursors[:0]
	for _, c := range pr.cursors {
		switch {
		case p.expects(c.pos, token):
			c.pos++
			c.gaps = 0
			c.words = appendSpan(c.words, at)
			if c.pos == last {
				done = c.words
				continue
			}
		case p.expectsLater(c.pos, token):
			continue
		case c.gaps < p.maxGap:
			c.gaps++
		default:
			continue
		}
		next = keep(next, c)
	}
	pr.cursors = next

	if done != nil {
		pr.cursors = pr.cursors[:0]
	}
	if p.expects(0, token) {
		if last == 1 {
			return []Span{at}, true
		}
		pr.cursors = keep(pr.cursors, cursor{pos: 1, words: []Span{at}})
	}
	return done, done != nil
}

// earliest returns the start of the first word of the oldest attempt.
func (pr *Progress) earliest() (int, bool) {
	at, ok := 0, false
	for _, c := range pr.cursors {
		if start := c.words[0].Start; !ok || start < at {
			at, ok = start, true
		}
	}
	return at, ok
}

// Clone returns an independent copy.
func (pr Progress) Clone() Progress {
	if len(pr.cursors) == 0 {
		return Progress{}
	}
	out := make([]cursor, len(pr.cursors))
	copy(out, pr.cursors)
	return Progress{cursors: out}
}

// keep adds c unless an attempt at the same position exists; of two attempts
// at one position the one with more gap budget left survives.
func keep(cs []cursor, c cursor) []cursor {
	for i := range cs {
		if cs[i].pos == c.pos {
			if c.gaps < cs[i].gaps {
				cs[i] = c
			}
			return cs
		}
	}
	return append(cs, c)
}

// appendSpan never writes into the backing array of ws, which clones and
// snapshots may share.
func appendSpan(ws []Span, at Span) []Span {
	return append(ws[:len(ws):len(ws)], at)
}
