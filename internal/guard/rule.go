package guard

import "github.com/gzhole/streamguard/internal/pattern"

// DefaultMaxGap is the gap tolerance of WithScore rules.
const DefaultMaxGap = 3

// ActionKind selects what a triggered rule does.
type ActionKind int

const (
	// ActionBlock ends the session with the rule's reason.
	ActionBlock ActionKind = iota
	// ActionRewrite replaces matched text. A sequence rule replaces each
	// matched word on its own.
	ActionRewrite
	// ActionScore adds Weight to the session ledger.
	ActionScore
)

func (k ActionKind) String() string {
	switch k {
	case ActionBlock:
		return "block"
	case ActionRewrite:
		return "rewrite"
	case ActionScore:
		return "score"
	}
	return "unknown"
}

// Action is the policy a rule applies when it triggers.
type Action struct {
	Kind        ActionKind
	Reason      string
	Replacement string
	Weight      int
}

// SequenceRule forbids an ordered list of words, optionally with unrelated
// words in between. Rules are values; the engine keeps its own copy.
type SequenceRule struct {
	ID     string
	Tokens []string
	// MaxGap is the number of unrelated words allowed between two
	// consecutive expected words. Zero means strict adjacency.
	MaxGap int
	// StopWords abandon every partial match when seen.
	StopWords []string
	// MaxEdits allows expected words of four or more letters to match with
	// this many edits.
	MaxEdits int
	Action   Action
}

// Strict blocks on tokens appearing back to back.
func Strict(tokens []string, reason string) SequenceRule {
	return SequenceRule{Tokens: tokens, Action: Action{Kind: ActionBlock, Reason: reason}}
}

// WithGaps blocks on tokens in order with at most maxGap other words
// between each pair.
func WithGaps(tokens []string, reason string, maxGap int) SequenceRule {
	return SequenceRule{Tokens: tokens, MaxGap: maxGap, Action: Action{Kind: ActionBlock, Reason: reason}}
}

// WithScore adds weight to the ledger each time tokens appear in order.
func WithScore(tokens []string, reason string, weight int) SequenceRule {
	return SequenceRule{
		Tokens: tokens,
		MaxGap: DefaultMaxGap,
		Action: Action{Kind: ActionScore, Reason: reason, Weight: weight},
	}
}

// SequenceRewrite replaces each word of tokens with replacement when they
// appear back to back.
func SequenceRewrite(tokens []string, replacement string) SequenceRule {
	return SequenceRule{
		Tokens: tokens,
		Action: Action{Kind: ActionRewrite, Reason: "sequence redacted", Replacement: replacement},
	}
}

func (r SequenceRule) WithID(id string) SequenceRule {
	r.ID = id
	return r
}

func (r SequenceRule) WithStopWords(words ...string) SequenceRule {
	r.StopWords = append(append([]string(nil), r.StopWords...), words...)
	return r
}

func (r SequenceRule) WithFuzzy(maxEdits int) SequenceRule {
	r.MaxEdits = maxEdits
	return r
}

// Weighted turns the rule into a score-only rule.
func (r SequenceRule) Weighted(weight int) SequenceRule {
	r.Action = r.Action.weighted(weight)
	return r
}

// PatternRule acts on structured data such as email addresses.
type PatternRule struct {
	ID   string
	Kind pattern.Kind
	// Expr is the regular expression of a Custom rule.
	Expr   string
	Action Action
}

func blockPattern(kind pattern.Kind, reason string) PatternRule {
	return PatternRule{Kind: kind, Action: Action{Kind: ActionBlock, Reason: reason}}
}

func rewritePattern(kind pattern.Kind, replacement, reason string) PatternRule {
	return PatternRule{Kind: kind, Action: Action{Kind: ActionRewrite, Reason: reason, Replacement: replacement}}
}

func Email(reason string) PatternRule       { return blockPattern(pattern.Email, reason) }
func EmailStrict(reason string) PatternRule { return blockPattern(pattern.EmailStrict, reason) }
func URL(reason string) PatternRule         { return blockPattern(pattern.URL, reason) }
func IPv4(reason string) PatternRule        { return blockPattern(pattern.IPv4, reason) }
func CreditCard(reason string) PatternRule  { return blockPattern(pattern.CreditCard, reason) }

func EmailRewrite(replacement string) PatternRule {
	return rewritePattern(pattern.Email, replacement, "email redacted")
}

func URLRewrite(replacement string) PatternRule {
	return rewritePattern(pattern.URL, replacement, "url redacted")
}

func IPv4Rewrite(replacement string) PatternRule {
	return rewritePattern(pattern.IPv4, replacement, "ip redacted")
}

func CreditCardRewrite(replacement string) PatternRule {
	return rewritePattern(pattern.CreditCard, replacement, "card redacted")
}

// CustomPattern blocks on matches of a Go regular expression.
func CustomPattern(expr, reason string) PatternRule {
	r := blockPattern(pattern.Custom, reason)
	r.Expr = expr
	return r
}

// CustomRewrite replaces matches of a Go regular expression.
func CustomRewrite(expr, replacement string) PatternRule {
	r := rewritePattern(pattern.Custom, replacement, "pattern redacted")
	r.Expr = expr
	return r
}

func (r PatternRule) WithID(id string) PatternRule {
	r.ID = id
	return r
}

// Weighted turns a blocking rule into a score-only rule. On a rewrite rule
// the weight is kept and rejected at registration.
func (r PatternRule) Weighted(weight int) PatternRule {
	r.Action = r.Action.weighted(weight)
	return r
}

func (a Action) weighted(weight int) Action {
	a.Weight = weight
	if a.Kind == ActionBlock {
		a.Kind = ActionScore
	}
	return a
}
