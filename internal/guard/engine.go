// Package guard is a streaming content-safety filter. An Engine inspects
// text chunk by chunk and answers each chunk with Allow, Rewrite or Block.
//
// An Engine holds back only as much trailing text as its pattern rules need
// to see a match split across chunks, plus the words a rewriting sequence
// rule may still replace. It does no I/O and has no internal
// locking; use one Engine per stream and serialize calls to it.
package guard

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gzhole/streamguard/internal/pattern"
	"github.com/gzhole/streamguard/internal/sequence"
)

const (
	DefaultScoreThreshold = 1
	DefaultMaxBuffer      = 4096

	reasonTerminal = "stream already blocked"
)

// Option configures an Engine.
type Option func(*Engine)

// WithScoreThreshold sets the ledger total at which the stream is blocked.
// Values below 1 are raised to 1.
func WithScoreThreshold(t int) Option {
	return func(e *Engine) { e.ledger = newLedger(t) }
}

// WithMaxBuffer caps the held-back text in bytes. Non-positive values keep
// the default.
func WithMaxBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBuffer = n
		}
	}
}

// entry is a registered rule. Offsets are absolute byte positions in the
// raw input of the session.
type entry struct {
	id     string
	action Action

	slot    int // sequence stream slot, -1 for pattern rules
	matcher *pattern.Matcher

	since  int // matches starting before this offset predate the rule
	scored int // score matches starting before this offset were counted
}

func (r *entry) isPattern() bool { return r.matcher != nil }

// Engine evaluates registered rules over a chunked text stream.
type Engine struct {
	maxBuffer int
	rules     []entry
	stream    sequence.Stream
	ledger    ledger
	terminal  bool

	buf  string
	base int // absolute offset of buf[0]

	patternRules int
	maxSpan      int
}

// New returns an engine with no rules and a zero score.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxBuffer: DefaultMaxBuffer,
		ledger:    newLedger(DefaultScoreThreshold),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddForbiddenSequence registers r. It applies to text fed after the call.
func (e *Engine) AddForbiddenSequence(r SequenceRule) error {
	id := e.ruleID(r.ID)
	if err := checkAction(id, r.Action); err != nil {
		return err
	}
	p, err := sequence.Compile(r.Tokens, r.MaxGap, r.StopWords, r.MaxEdits)
	if err != nil {
		return configErr(id, "%v", err)
	}

	action := r.Action
	if action.Reason == "" {
		action.Reason = "forbidden sequence: " + strings.Join(p.Tokens(), " ")
	}
	slot := e.stream.Add(p)
	if action.Kind == ActionRewrite {
		e.stream.Track(slot)
	}
	e.rules = append(e.rules, entry{
		id:     id,
		action: action,
		slot:   slot,
	})
	return nil
}

// AddPatternRule registers r. It applies to text fed after the call.
func (e *Engine) AddPatternRule(r PatternRule) error {
	id := e.ruleID(r.ID)
	if err := checkAction(id, r.Action); err != nil {
		return err
	}

	var (
		m   *pattern.Matcher
		err error
	)
	switch r.Kind {
	case 0:
		return configErr(id, "empty pattern kind")
	case pattern.Custom:
		m, err = pattern.Compile(r.Expr)
	default:
		m, err = pattern.New(r.Kind)
	}
	if err != nil {
		return configErr(id, "%v", err)
	}

	action := r.Action
	if action.Reason == "" {
		action.Reason = m.Description() + " detected"
	}
	end := e.base + len(e.buf)
	e.rules = append(e.rules, entry{
		id:      id,
		action:  action,
		slot:    -1,
		matcher: m,
		since:   end,
		scored:  end,
	})
	e.patternRules++
	if m.Span() > e.maxSpan {
		e.maxSpan = m.Span()
	}
	return nil
}

func (e *Engine) ruleID(id string) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("rule-%d", len(e.rules)+1)
}

func checkAction(id string, a Action) error {
	switch a.Kind {
	case ActionBlock:
		if a.Weight != 0 {
			return configErr(id, "block action with weight %d", a.Weight)
		}
	case ActionRewrite:
		if a.Weight != 0 {
			return configErr(id, "rewrite action cannot carry a weight")
		}
		if a.Replacement == "" {
			return configErr(id, "empty replacement")
		}
	case ActionScore:
		if a.Weight <= 0 {
			return configErr(id, "weight must be positive, got %d", a.Weight)
		}
	default:
		return configErr(id, "unknown action %d", int(a.Kind))
	}
	return nil
}

// Feed evaluates the next chunk of the stream.
func (e *Engine) Feed(chunk string) Decision {
	if e.terminal {
		return Blocked(reasonTerminal)
	}
	if chunk == "" {
		return Allowed()
	}
	e.buf += chunk
	hits := e.stream.Push(chunk)
	return e.evaluate(hits, false)
}

// Flush ends the stream: a match that reaches the end of the held-back text
// is treated as complete, and the held-back text is released.
func (e *Engine) Flush() Decision {
	if e.terminal {
		return Blocked(reasonTerminal)
	}
	e.stream.Commit()
	if e.buf == "" {
		return Allowed()
	}
	return e.evaluate(make([]int, e.stream.Len()), true)
}

// Reset returns the engine to its initial state. Registered rules stay.
func (e *Engine) Reset() {
	e.stream.Reset()
	e.ledger.reset()
	e.terminal = false
	e.buf = ""
	e.base = 0
	for i := range e.rules {
		e.rules[i].since = 0
		e.rules[i].scored = 0
	}
}

func (e *Engine) CurrentScore() int { return e.ledger.total }

func (e *Engine) ScoreDetails() []Contribution { return e.ledger.details() }

func (e *Engine) Terminal() bool { return e.terminal }

func (e *Engine) RuleCount() int { return len(e.rules) }

// Buffered returns the raw text held back for matches that may still
// complete. A host that forwards text should withhold exactly this suffix.
func (e *Engine) Buffered() string { return e.buf }

func (e *Engine) evaluate(hits []int, final bool) Decision {
	found := e.stream.Matches()
	if reason, ok := e.blockPass(hits, final); ok {
		return e.block(reason)
	}

	segs, cut := e.rewritePass(found, final)

	e.scorePass(hits, segs, final)
	if e.ledger.reached() {
		return e.block(e.ledger.reason())
	}

	var d Decision
	if cut > 0 {
		d = Rewritten(joinSegments(segs))
		e.consume(cut)
	} else {
		d = Allowed()
	}

	if final {
		e.consume(len(e.buf))
	} else {
		e.evict()
	}
	return d
}

func (e *Engine) block(reason string) Decision {
	e.terminal = true
	return Blocked(reason)
}

func (e *Engine) blockPass(hits []int, final bool) (string, bool) {
	open := e.openFrom(final)
	for i := range e.rules {
		r := &e.rules[i]
		if r.action.Kind != ActionBlock {
			continue
		}
		if !r.isPattern() {
			if hits[r.slot] > 0 {
				return r.action.Reason, true
			}
			continue
		}
		floor := r.since - e.base
		for _, m := range r.matcher.FindAll(e.buf) {
			if m.Start >= floor && !e.isOpen(m.Start, m.End, e.reach(r.matcher), open) {
				return r.action.Reason, true
			}
		}
	}
	return "", false
}

// segment is a piece of the held-back text after rewriting. start and end
// are offsets into the buffer; for a replacement they span the text it
// replaced.
type segment struct {
	text       string
	start, end int
	repl       bool
}

func joinSegments(segs []segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	return b.String()
}

// openFrom returns the buffer offset where the trailing word starts, or
// len(buf) when the buffer ends in whitespace. A match ending inside or
// right before that word may still grow with the next chunk. On the final
// pass nothing can grow and the result is -1.
func (e *Engine) openFrom(final bool) int {
	if final {
		return -1
	}
	i := len(e.buf)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(e.buf[:i])
		if unicode.IsSpace(r) {
			break
		}
		i -= size
	}
	return i
}

// reach is how far back from the buffer end a match of m can still start.
func (e *Engine) reach(m *pattern.Matcher) int {
	return min(m.Span(), e.maxBuffer)
}

// isOpen reports whether a match at buffer offsets [start, end) may still
// grow. A match that could not reach the end of the buffer within span
// bytes is complete.
func (e *Engine) isOpen(start, end, span, open int) bool {
	if open < 0 || len(e.buf)-start > span {
		return false
	}
	return end > open || end == len(e.buf)
}

// span is a byte range of the buffer.
type span struct{ start, end int }

// rewritePass applies every rewrite rule in registration order. Replacement
// text is never matched again and open matches are left for a later call.
// found holds the completed matches of rewriting sequence rules. cut is the
// buffer offset just past the last replaced text, or 0 when nothing was
// replaced.
func (e *Engine) rewritePass(found []sequence.Match, final bool) ([]segment, int) {
	segs := []segment{{text: e.buf, start: 0, end: len(e.buf)}}
	open := e.openFrom(final)
	cut := 0
	for i := range e.rules {
		r := &e.rules[i]
		if r.action.Kind != ActionRewrite {
			continue
		}
		var words []span
		if !r.isPattern() {
			words = e.heldWords(found, r.slot)
			if len(words) == 0 {
				continue
			}
		}

		floor := r.since - e.base
		next := make([]segment, 0, len(segs))
		for _, s := range segs {
			if s.repl {
				next = append(next, s)
				continue
			}
			var spans []span
			if r.isPattern() {
				for _, m := range r.matcher.FindAll(s.text) {
					start, end := s.start+m.Start, s.start+m.End
					if start < floor || e.isOpen(start, end, e.reach(r.matcher), open) {
						continue
					}
					spans = append(spans, span{start, end})
				}
			} else {
				for _, w := range words {
					if w.start >= s.start && w.end <= s.end {
						spans = append(spans, w)
					}
				}
			}
			next = append(next, splitSegment(s, spans, r.action.Replacement)...)
			if n := len(spans); n > 0 && spans[n-1].end > cut {
				cut = spans[n-1].end
			}
		}
		segs = next
	}
	return segs, cut
}

// heldWords returns the buffer ranges of the words matched for slot that
// are still buffered, in order and without overlaps.
func (e *Engine) heldWords(found []sequence.Match, slot int) []span {
	var words []span
	for _, m := range found {
		if m.Slot != slot {
			continue
		}
		for _, w := range m.Words {
			start, end := w.Start-e.base, w.End-e.base
			if start < 0 || end > len(e.buf) {
				continue
			}
			words = append(words, span{start, end})
		}
	}
	slices.SortFunc(words, func(a, b span) int { return a.start - b.start })

	out := words[:0]
	for _, w := range words {
		if len(out) > 0 && w.start < out[len(out)-1].end {
			continue
		}
		out = append(out, w)
	}
	return out
}

// splitSegment replaces the buffer ranges in spans, which lie inside s in
// ascending order, with repl.
func splitSegment(s segment, spans []span, repl string) []segment {
	if len(spans) == 0 {
		return []segment{s}
	}
	out := make([]segment, 0, 2*len(spans)+1)
	pos := s.start
	for _, sp := range spans {
		if sp.start > pos {
			out = append(out, segment{text: s.text[pos-s.start : sp.start-s.start], start: pos, end: sp.start})
		}
		out = append(out, segment{text: repl, start: sp.start, end: sp.end, repl: true})
		pos = sp.end
	}
	if pos < s.end {
		out = append(out, segment{text: s.text[pos-s.start:], start: pos, end: s.end})
	}
	return out
}

// scorePass adds sequence triggers and pattern matches of score rules to
// the ledger. Pattern matches are taken from unreplaced text only, are
// counted once complete and only once however long they stay buffered.
func (e *Engine) scorePass(hits []int, segs []segment, final bool) {
	open := e.openFrom(final)
	for i := range e.rules {
		r := &e.rules[i]
		if r.action.Kind != ActionScore {
			continue
		}
		c := Contribution{RuleID: r.id, Reason: r.action.Reason, Weight: r.action.Weight}
		if !r.isPattern() {
			for n := 0; n < hits[r.slot]; n++ {
				e.ledger.add(c)
			}
			continue
		}
		for _, s := range segs {
			if s.repl {
				continue
			}
			for _, m := range r.matcher.FindAll(s.text) {
				start := e.base + s.start + m.Start
				if start < r.since || start < r.scored {
					continue
				}
				if e.isOpen(s.start+m.Start, s.start+m.End, e.reach(r.matcher), open) {
					continue
				}
				e.ledger.add(c)
				r.scored = e.base + s.start + m.End
			}
		}
	}
}

// consume drops the first n bytes of the buffer.
func (e *Engine) consume(n int) {
	e.buf = e.buf[n:]
	e.base += n
}

// evict trims the buffer to the longest registered pattern span. Up to one
// more span is kept when that lets the buffer start at a word boundary, but
// never more than maxBuffer bytes. Words a rewriting sequence rule may still
// replace stay buffered within the same cap.
func (e *Engine) evict() {
	cut := e.patternCut()
	if at, ok := e.stream.Hold(); ok {
		cut = min(cut, max(at-e.base, len(e.buf)-e.maxBuffer, 0))
	}
	for cut < len(e.buf) && !utf8.RuneStart(e.buf[cut]) {
		cut++
	}
	e.consume(cut)
}

// patternCut returns how many leading bytes of the buffer no pattern rule
// needs any more.
func (e *Engine) patternCut() int {
	if e.patternRules == 0 {
		return len(e.buf)
	}
	keep := min(e.maxSpan, e.maxBuffer)
	if len(e.buf) <= keep {
		return 0
	}

	cut := len(e.buf) - keep
	limit := max(cut-keep, len(e.buf)-e.maxBuffer, 0)
	for i := cut; i > limit; i-- {
		r, _ := utf8.DecodeLastRuneInString(e.buf[:i])
		if unicode.IsSpace(r) {
			return i
		}
	}
	return cut
}
