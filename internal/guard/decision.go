package guard

import "fmt"

// Verdict is the outcome class of a Decision.
type Verdict int

const (
	Allow Verdict = iota
	Rewrite
	Block
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "ALLOW"
	case Rewrite:
		return "REWRITE"
	case Block:
		return "BLOCK"
	}
	return fmt.Sprintf("VERDICT(%d)", int(v))
}

// Decision is the result of one Feed or Flush call.
type Decision struct {
	Verdict Verdict
	// Reason explains a Block.
	Reason string
	// Text is the rewritten form of the held-back text for a Rewrite.
	Text string
}

func Allowed() Decision { return Decision{Verdict: Allow} }

func Blocked(reason string) Decision { return Decision{Verdict: Block, Reason: reason} }

func Rewritten(text string) Decision { return Decision{Verdict: Rewrite, Text: text} }

func (d Decision) IsAllow() bool   { return d.Verdict == Allow }
func (d Decision) IsBlock() bool   { return d.Verdict == Block }
func (d Decision) IsRewrite() bool { return d.Verdict == Rewrite }

// RewrittenText returns the replacement text of a Rewrite and "" otherwise.
func (d Decision) RewrittenText() string {
	if d.Verdict != Rewrite {
		return ""
	}
	return d.Text
}

func (d Decision) String() string {
	switch d.Verdict {
	case Block:
		return fmt.Sprintf("BLOCK(%s)", d.Reason)
	case Rewrite:
		return fmt.Sprintf("REWRITE(%q)", d.Text)
	}
	return d.Verdict.String()
}
