package policy

import (
	"fmt"
	"strings"

	"github.com/gzhole/streamguard/internal/guard"
	"github.com/gzhole/streamguard/internal/pattern"
)

// Build compiles the policy into a fresh engine. Options are applied after
// the policy defaults, so callers can override the threshold or buffer cap.
func Build(p *Policy, opts ...guard.Option) (*guard.Engine, error) {
	var base []guard.Option
	if p.Defaults.ScoreThreshold > 0 {
		base = append(base, guard.WithScoreThreshold(p.Defaults.ScoreThreshold))
	}
	if p.Defaults.MaxBuffer > 0 {
		base = append(base, guard.WithMaxBuffer(p.Defaults.MaxBuffer))
	}
	e := guard.New(append(base, opts...)...)

	seen := make(map[string]bool, len(p.Rules))
	for i, r := range p.Rules {
		if r.ID == "" {
			r.ID = fmt.Sprintf("rule-%d", i+1)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true

		if err := addRule(e, r, p.Defaults); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
	}
	return e, nil
}

func addRule(e *guard.Engine, r Rule, d Defaults) error {
	action, err := r.action(d)
	if err != nil {
		return err
	}

	isSeq, isPattern := len(r.Sequence) > 0, r.Pattern != "" || r.Expr != ""
	switch {
	case isSeq && isPattern:
		return fmt.Errorf("rule has both sequence and pattern")
	case isSeq:
		return e.AddForbiddenSequence(guard.SequenceRule{
			ID:        r.ID,
			Tokens:    r.Sequence,
			MaxGap:    r.maxGap(action),
			StopWords: r.StopWords,
			MaxEdits:  r.Fuzzy,
			Action:    action,
		})
	case isPattern:
		kind := pattern.Custom
		if r.Pattern != "" {
			if kind, err = pattern.ParseKind(r.Pattern); err != nil {
				return err
			}
		}
		return e.AddPatternRule(guard.PatternRule{
			ID:     r.ID,
			Kind:   kind,
			Expr:   r.Expr,
			Action: action,
		})
	default:
		return fmt.Errorf("rule needs a sequence or a pattern")
	}
}

func (r Rule) action(d Defaults) (guard.Action, error) {
	a := guard.Action{Reason: r.Reason, Weight: r.Weight}
	switch Action(strings.ToLower(string(r.Action))) {
	case "":
		a.Kind = guard.ActionBlock
		if r.Weight != 0 {
			a.Kind = guard.ActionScore
		}
	case ActionBlock:
		a.Kind = guard.ActionBlock
	case ActionScore:
		a.Kind = guard.ActionScore
	case ActionRewrite:
		a.Kind = guard.ActionRewrite
		a.Replacement = r.Replacement
		if a.Replacement == "" {
			a.Replacement = d.Replacement
		}
	default:
		return a, fmt.Errorf("unknown action %q", r.Action)
	}
	return a, nil
}

func (r Rule) maxGap(a guard.Action) int {
	if r.MaxGap != nil {
		return *r.MaxGap
	}
	if a.Kind == guard.ActionScore {
		return guard.DefaultMaxGap
	}
	return 0
}
