// Package pattern recognizes structured sensitive data (email addresses,
// URLs, IPv4 addresses, payment card numbers and user-supplied regular
// expressions) in a text window. Matchers are stateless and safe for
// concurrent use.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind identifies a recognizer.
type Kind int

const (
	Email Kind = iota + 1
	EmailStrict
	URL
	IPv4
	CreditCard
	Custom
)

var kindNames = map[Kind]string{
	Email:       "email",
	EmailStrict: "email_strict",
	URL:         "url",
	IPv4:        "ipv4",
	CreditCard:  "credit_card",
	Custom:      "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a policy name such as "email" or "credit-card" to a Kind.
func ParseKind(name string) (Kind, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	switch n {
	case "creditcard", "card":
		n = "credit_card"
	case "ip":
		n = "ipv4"
	}
	for k, v := range kindNames {
		if v == n {
			return k, nil
		}
	}
	if n == "" {
		return 0, errors.New("empty pattern kind")
	}
	return 0, fmt.Errorf("unknown pattern kind %q", name)
}

// Maximum match length per kind. The engine keeps at least this much
// trailing text so a match split across chunks can still be seen whole.
const (
	emailSpan  = 254
	urlSpan    = 2048
	ipv4Span   = 15
	cardSpan   = 40
	customSpan = 256
)

// Match is a half-open byte range [Start, End) in the scanned text.
type Match struct {
	Start int
	End   int
}

// Len returns the byte length of the match.
func (m Match) Len() int { return m.End - m.Start }

// Matcher finds one kind of structure in text.
type Matcher struct {
	kind  Kind
	re    *regexp.Regexp
	check func(text string, m Match) (Match, bool)
	span  int
	desc  string
}

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)
	// The strict local part allows the full RFC 5322 atext set.
	emailStrictRe = regexp.MustCompile("[A-Za-z0-9.!#$%&'*+/=?^_`{|}~\\-]+@[A-Za-z0-9\\-]+(?:\\.[A-Za-z0-9\\-]+)*\\.[A-Za-z]{2,}")
	urlRe         = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"']+`)
	ipv4Re        = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	cardRe        = regexp.MustCompile(`\d(?:[ \-]?\d){12,18}`)
)

// New returns the built-in matcher for kind. Custom matchers come from Compile.
func New(kind Kind) (*Matcher, error) {
	switch kind {
	case Email:
		return &Matcher{kind: kind, re: emailRe, check: checkEmail, span: emailSpan, desc: "email address"}, nil
	case EmailStrict:
		return &Matcher{kind: kind, re: emailStrictRe, check: checkEmailStrict, span: emailSpan, desc: "email address (strict)"}, nil
	case URL:
		return &Matcher{kind: kind, re: urlRe, check: checkURL, span: urlSpan, desc: "URL"}, nil
	case IPv4:
		return &Matcher{kind: kind, re: ipv4Re, check: checkIPv4, span: ipv4Span, desc: "IPv4 address"}, nil
	case CreditCard:
		return &Matcher{kind: kind, re: cardRe, check: checkCard, span: cardSpan, desc: "credit card number"}, nil
	case Custom:
		return nil, errors.New("custom pattern needs an expression")
	}
	return nil, fmt.Errorf("unknown pattern kind %d", int(kind))
}

// Compile builds a Custom matcher from a Go regular expression. Expressions
// that match the empty string are rejected since every position would match.
func Compile(expr string) (*Matcher, error) {
	if expr == "" {
		return nil, errors.New("empty expression")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", expr, err)
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("expression %q matches empty text", expr)
	}
	return &Matcher{kind: Custom, re: re, span: customSpan, desc: "custom pattern " + expr}, nil
}

// MustNew is New for kinds known to be built in. It panics otherwise.
func MustNew(kind Kind) *Matcher {
	m, err := New(kind)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Matcher) Kind() Kind { return m.kind }

// Span is the longest text a single match can cover.
func (m *Matcher) Span() int { return m.span }

func (m *Matcher) Description() string { return m.desc }

// FindAll returns every non-overlapping match, left to right. Candidates
// that fail validation are retried one rune further on, so a rejected
// prefix never hides a valid match behind it.
func (m *Matcher) FindAll(text string) []Match {
	var out []Match
	pos := 0
	for pos < len(text) {
		loc := m.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		cand := Match{Start: pos + loc[0], End: pos + loc[1]}
		if cand.Len() > 0 {
			got, ok := cand, true
			if m.check != nil {
				got, ok = m.check(text, cand)
			}
			if ok && got.Len() > 0 {
				out = append(out, got)
				pos = got.End
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(text[cand.Start:])
		if size < 1 {
			size = 1
		}
		pos = cand.Start + size
	}
	return out
}
