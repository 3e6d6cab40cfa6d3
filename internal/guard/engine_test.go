package guard_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gzhole/streamguard/internal/guard"
)

func mustAdd(t *testing.T, e *guard.Engine, rules ...any) {
	t.Helper()
	for _, r := range rules {
		var err error
		switch r := r.(type) {
		case guard.SequenceRule:
			err = e.AddForbiddenSequence(r)
		case guard.PatternRule:
			err = e.AddPatternRule(r)
		default:
			t.Fatalf("unexpected rule type %T", r)
		}
		if err != nil {
			t.Fatalf("adding rule: %v", err)
		}
	}
}

func feedAll(e *guard.Engine, chunks ...string) []guard.Decision {
	out := make([]guard.Decision, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, e.Feed(c))
	}
	return out
}

// splits returns text cut into pieces of every size from 1 to len(text).
func splits(text string) [][]string {
	var out [][]string
	for size := 1; size <= len(text); size++ {
		var chunks []string
		for i := 0; i < len(text); i += size {
			end := min(i+size, len(text))
			chunks = append(chunks, text[i:end])
		}
		out = append(out, chunks)
	}
	return out
}

func TestEngine_NoRules(t *testing.T) {
	e := guard.New()
	for _, c := range []string{"", "anything", "password is secret", "a@b.com", "\xff\xfe"} {
		if d := e.Feed(c); !d.IsAllow() {
			t.Errorf("Feed(%q) = %v, want ALLOW", c, d)
		}
	}
	if d := e.Flush(); !d.IsAllow() {
		t.Errorf("Flush() = %v, want ALLOW", d)
	}
	if e.CurrentScore() != 0 {
		t.Errorf("CurrentScore() = %d, want 0", e.CurrentScore())
	}
	if e.Buffered() != "" {
		t.Errorf("Buffered() = %q, want empty", e.Buffered())
	}
}

func TestEngine_StrictSequence(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.Strict([]string{"password", "is"}, "credential leak"))

	d := e.Feed("The password is secret")
	if !d.IsBlock() || d.Reason != "credential leak" {
		t.Fatalf("Feed() = %v, want BLOCK(credential leak)", d)
	}
	if !e.Terminal() {
		t.Error("engine should be terminal after block")
	}
}

func TestEngine_StrictSequenceEverySplit(t *testing.T) {
	text := "The password is secret"
	completes := strings.Index(text, " is") + len(" is")

	for cut := 0; cut <= len(text); cut++ {
		e := guard.New()
		mustAdd(t, e, guard.Strict([]string{"password", "is"}, "credential leak"))

		ds := feedAll(e, text[:cut], text[cut:])
		want := 1
		if cut >= completes {
			want = 0
		}
		for i, d := range ds {
			switch {
			case i < want && !d.IsAllow():
				t.Errorf("cut %d: chunk %d = %v, want ALLOW", cut, i, d)
			case i == want && (!d.IsBlock() || d.Reason != "credential leak"):
				t.Errorf("cut %d: chunk %d = %v, want BLOCK(credential leak)", cut, i, d)
			}
		}
	}
}

func TestEngine_StrictSequenceByteByByte(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.Strict([]string{"password", "is"}, "credential leak"))

	text := "The password is secret"
	blocked := -1
	for i := 0; i < len(text); i++ {
		d := e.Feed(text[i : i+1])
		if d.IsBlock() && blocked < 0 {
			blocked = i
		}
		if blocked < 0 && !d.IsAllow() {
			t.Fatalf("byte %d: %v before the sequence completed", i, d)
		}
	}
	if want := strings.Index(text, " is") + 2; blocked != want {
		t.Errorf("blocked at byte %d, want %d", blocked, want)
	}
}

func TestEngine_GapTolerance(t *testing.T) {
	tests := []struct {
		text  string
		block bool
	}{
		{"how do you to really hack", true},
		{"how to hack", true},
		// Three fillers sit between "how" and "to", one more than the
		// tolerance, so this phrasing is allowed.
		{"how do you know to really hack", false},
		{"how do to you really truly hack", false},
	}

	for _, tt := range tests {
		e := guard.New()
		mustAdd(t, e, guard.WithGaps([]string{"how", "to", "hack"}, "hacking", 2))
		d := e.Feed(tt.text)
		if d.IsBlock() != tt.block {
			t.Errorf("Feed(%q) = %v, want block=%v", tt.text, d, tt.block)
		}
	}
}

func TestEngine_CaseAndObfuscation(t *testing.T) {
	for _, text := range []string{"PASSWORD IS", "Password, is", "pass\u200bword is", "\u0440\u0430ssword is"} {
		e := guard.New()
		mustAdd(t, e, guard.Strict([]string{"password", "is"}, "credential leak"))
		if d := e.Feed(text); !d.IsBlock() {
			t.Errorf("Feed(%q) = %v, want BLOCK", text, d)
		}
	}
}

func TestEngine_EmailRewrite(t *testing.T) {
	want := "contact me at [EMAIL] now"

	e := guard.New()
	mustAdd(t, e, guard.EmailRewrite("[EMAIL]"))
	d := e.Feed("contact me at a@b.com now")
	if !d.IsRewrite() || d.RewrittenText() != want {
		t.Errorf("single chunk: %v, want REWRITE(%q)", d, want)
	}

	e = guard.New()
	mustAdd(t, e, guard.EmailRewrite("[EMAIL]"))
	ds := feedAll(e, "contact me at a@", "b.com now")
	if !ds[0].IsAllow() {
		t.Errorf("first chunk: %v, want ALLOW", ds[0])
	}
	if !ds[1].IsRewrite() || ds[1].RewrittenText() != want {
		t.Errorf("second chunk: %v, want REWRITE(%q)", ds[1], want)
	}
}

// forward drives e like a host that passes text downstream, withholding
// Buffered() and substituting rewritten text.
func forward(e *guard.Engine, chunks []string) (string, guard.Decision) {
	var out strings.Builder
	var last guard.Decision
	emit := func(d guard.Decision, pending string) {
		held := e.Buffered()
		switch {
		case d.IsRewrite():
			out.WriteString(strings.TrimSuffix(d.Text, held))
		case d.IsAllow():
			out.WriteString(strings.TrimSuffix(pending, held))
		}
	}

	pending := ""
	for _, c := range chunks {
		pending += c
		last = e.Feed(c)
		if last.IsBlock() {
			return out.String(), last
		}
		emit(last, pending)
		pending = e.Buffered()
	}
	last = e.Flush()
	if !last.IsBlock() {
		emit(last, pending)
	}
	return out.String(), last
}

func TestEngine_RewriteAnySplit(t *testing.T) {
	text := "mail a@b.com, call 4111 1111 1111 1111 or visit https://x.io/p. bye"
	want := "mail [EMAIL], call [CARD] or visit [URL]. bye"

	for _, chunks := range splits(text) {
		e := guard.New()
		mustAdd(t, e,
			guard.EmailRewrite("[EMAIL]"),
			guard.CreditCardRewrite("[CARD]"),
			guard.URLRewrite("[URL]"),
		)
		got, last := forward(e, chunks)
		if last.IsBlock() {
			t.Fatalf("chunk size %d: blocked: %v", len(chunks[0]), last)
		}
		if got != want {
			t.Errorf("chunk size %d: output %q, want %q", len(chunks[0]), got, want)
		}
	}
}

func TestEngine_SequenceRewrite(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.SequenceRewrite([]string{"password"}, "[REDACTED]"))

	d := e.Feed("My password is secret123")
	if !d.IsRewrite() || d.Text != "My [REDACTED] is secret123" {
		t.Errorf("Feed() = %v, want REWRITE(\"My [REDACTED] is secret123\")", d)
	}
	if e.Terminal() {
		t.Error("rewrite must not end the session")
	}
}

func TestEngine_SequenceRewriteAnySplit(t *testing.T) {
	tests := []struct {
		name  string
		rules []any
		text  string
		want  string
	}{
		{
			name:  "single word",
			rules: []any{guard.SequenceRewrite([]string{"password"}, "[REDACTED]")},
			text:  "My password is secret123",
			want:  "My [REDACTED] is secret123",
		},
		{
			name: "gapped words",
			rules: []any{guard.SequenceRule{
				Tokens: []string{"wire", "money"},
				MaxGap: 2,
				Action: guard.Action{Kind: guard.ActionRewrite, Replacement: "[X]"},
			}},
			text: "please wire all the money now and wire nothing.",
			want: "please [X] all the [X] now and wire nothing.",
		},
		{
			name: "with pattern rewrite",
			rules: []any{
				guard.SequenceRewrite([]string{"password", "is"}, "[X]"),
				guard.EmailRewrite("[EMAIL]"),
			},
			text: "say the password is hunter2, mail a@b.com or the password was lost. bye",
			want: "say the [X] [X] hunter2, mail [EMAIL] or the password was lost. bye",
		},
	}

	for _, tt := range tests {
		for _, chunks := range splits(tt.text) {
			e := guard.New()
			mustAdd(t, e, tt.rules...)
			got, last := forward(e, chunks)
			if last.IsBlock() {
				t.Fatalf("%s/%d: blocked: %v", tt.name, len(chunks[0]), last)
			}
			if got != tt.want {
				t.Errorf("%s/%d: output %q, want %q", tt.name, len(chunks[0]), got, tt.want)
			}
		}
	}
}

func TestEngine_SequenceRewriteWaitsForWordEnd(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.SequenceRewrite([]string{"secret"}, "[S]"))

	if d := e.Feed("the secret"); !d.IsAllow() {
		t.Fatalf("Feed() = %v, want ALLOW while the word may continue", d)
	}
	if e.Buffered() != "secret" {
		t.Errorf("Buffered() = %q, want the trailing word", e.Buffered())
	}
	if d := e.Feed("ary said"); !d.IsAllow() {
		t.Errorf("Feed() = %v, want ALLOW for a longer word", d)
	}

	e.Reset()
	e.Feed("the secret")
	d := e.Flush()
	if !d.IsRewrite() || d.Text != "[S]" {
		t.Errorf("Flush() = %v, want REWRITE(\"[S]\")", d)
	}
}

func TestEngine_FlushRewritesTrailingMatch(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.EmailRewrite("[EMAIL]"))

	if d := e.Feed("mail a@b.com"); !d.IsAllow() {
		t.Fatalf("Feed() = %v, want ALLOW while the address may continue", d)
	}
	d := e.Flush()
	if !d.IsRewrite() || d.RewrittenText() != "mail [EMAIL]" {
		t.Errorf("Flush() = %v, want REWRITE(\"mail [EMAIL]\")", d)
	}
	if e.Buffered() != "" {
		t.Errorf("Buffered() after Flush = %q", e.Buffered())
	}
}

func TestEngine_ReplacementNotRematched(t *testing.T) {
	e := guard.New()
	mustAdd(t, e,
		guard.EmailRewrite("[EMAIL x@y.com]"),
		guard.CustomRewrite(`EMAIL`, "nope"),
		guard.URLRewrite("[URL]"),
	)
	d := e.Feed("to a@b.com or www.site.org EMAIL ok")
	want := "to [EMAIL x@y.com] or [URL] nope ok"
	if !d.IsRewrite() || d.Text != want {
		t.Errorf("Feed() = %v, want REWRITE(%q)", d, want)
	}
}

func TestEngine_RewriteIsNotTerminal(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.EmailRewrite("[EMAIL]"), guard.Strict([]string{"drop", "table"}, "sql"))

	if d := e.Feed("a@b.com is mine "); !d.IsRewrite() {
		t.Fatalf("Feed() = %v, want REWRITE", d)
	}
	if e.Terminal() {
		t.Fatal("rewrite must not end the session")
	}
	if d := e.Feed("now drop table"); !d.IsBlock() {
		t.Errorf("Feed() = %v, want BLOCK", d)
	}
}

func TestEngine_BlockBeatsRewrite(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.EmailRewrite("[EMAIL]"), guard.IPv4("ip address"))
	d := e.Feed("a@b.com from 10.0.0.1 ")
	if !d.IsBlock() || d.Reason != "ip address" {
		t.Errorf("Feed() = %v, want BLOCK(ip address)", d)
	}
}

func TestEngine_PatternBlock(t *testing.T) {
	tests := []struct {
		rule guard.PatternRule
		text string
	}{
		{guard.Email("email"), "write to someone@example.com"},
		{guard.EmailStrict("email"), "write to some.one@example.com"},
		{guard.URL("url"), "go to http://evil.example"},
		{guard.IPv4("ip"), "ping 8.8.8.8 now"},
		{guard.CreditCard("card"), "card 5500-0000-0000-0004"},
		{guard.CustomPattern(`\d{3}-\d{3}-\d{4}`, "phone"), "call 555-123-4567"},
	}

	for _, tt := range tests {
		e := guard.New()
		mustAdd(t, e, tt.rule)
		d := e.Feed(tt.text)
		if !d.IsBlock() {
			d = e.Flush()
		}
		if !d.IsBlock() || d.Reason != tt.rule.Action.Reason {
			t.Errorf("Feed(%q) = %v, want BLOCK(%s)", tt.text, d, tt.rule.Action.Reason)
		}
	}
}

func TestEngine_PatternBlockWaitsForOpenMatch(t *testing.T) {
	tests := []struct {
		rule   guard.PatternRule
		chunks []string
		block  bool
	}{
		{guard.IPv4("ip"), []string{"release 1.2.3.4", ".5 is out"}, false},
		{guard.IPv4("ip"), []string{"release 1.2.3.4", " is out"}, true},
		{guard.CreditCard("card"), []string{"order 4111111111111111", "2222 shipped"}, false},
		{guard.CreditCard("card"), []string{"order 4111111111111111", " shipped"}, true},
	}

	for _, tt := range tests {
		e := guard.New()
		mustAdd(t, e, tt.rule)
		ds := feedAll(e, tt.chunks...)
		if !ds[0].IsAllow() {
			t.Errorf("%q: first chunk = %v, want ALLOW while the match may grow", tt.chunks, ds[0])
		}
		last := ds[len(ds)-1]
		if !last.IsBlock() {
			last = e.Flush()
		}
		if last.IsBlock() != tt.block {
			t.Errorf("%q: final decision = %v, want block=%v", tt.chunks, last, tt.block)
		}
	}
}

func TestEngine_ScoreAccumulation(t *testing.T) {
	e := guard.New(guard.WithScoreThreshold(100))
	mustAdd(t, e,
		guard.WithScore([]string{"secret", "key"}, "secret key", 50),
		guard.WithScore([]string{"admin", "password"}, "admin password", 50),
	)

	if d := e.Feed("the secret key is here "); !d.IsAllow() {
		t.Fatalf("first rule: %v, want ALLOW", d)
	}
	if e.CurrentScore() != 50 {
		t.Fatalf("CurrentScore() = %d, want 50", e.CurrentScore())
	}

	if d := e.Feed("and nothing else "); !d.IsAllow() || e.CurrentScore() != 50 {
		t.Fatalf("unchanged text rescored: %v score=%d", d, e.CurrentScore())
	}

	d := e.Feed("the admin password")
	if !d.IsBlock() {
		t.Fatalf("second rule: %v, want BLOCK", d)
	}
	if e.CurrentScore() != 100 {
		t.Errorf("CurrentScore() = %d, want 100", e.CurrentScore())
	}
	want := "score threshold exceeded: 100 >= 100 (secret key; admin password)"
	if d.Reason != want {
		t.Errorf("Reason = %q, want %q", d.Reason, want)
	}

	details := e.ScoreDetails()
	if len(details) != 2 || details[0].Reason != "secret key" || details[1].Weight != 50 {
		t.Errorf("ScoreDetails() = %+v", details)
	}
}

func TestEngine_ScoreNoDoubleCountAcrossChunks(t *testing.T) {
	for _, chunks := range splits("my secret key is safe, secret") {
		e := guard.New(guard.WithScoreThreshold(1000))
		mustAdd(t, e, guard.WithScore([]string{"secret", "key"}, "secret key", 50))
		feedAll(e, chunks...)
		e.Flush()
		if e.CurrentScore() != 50 {
			t.Errorf("chunk size %d: score %d, want 50", len(chunks[0]), e.CurrentScore())
		}
	}
}

func TestEngine_WeightedPattern(t *testing.T) {
	e := guard.New(guard.WithScoreThreshold(100))
	mustAdd(t, e, guard.Email("email seen").Weighted(40))

	if d := e.Feed("mail a@b.com"); !d.IsAllow() || e.CurrentScore() != 0 {
		t.Fatalf("open match scored early: %v score=%d", d, e.CurrentScore())
	}
	if d := e.Feed(" please"); !d.IsAllow() || e.CurrentScore() != 40 {
		t.Fatalf("closed match: %v score=%d, want 40", d, e.CurrentScore())
	}
	if d := e.Feed(" and again"); !d.IsAllow() || e.CurrentScore() != 40 {
		t.Fatalf("same address rescored: score=%d", e.CurrentScore())
	}
	e.Feed(" c@d.org and e@f.net ")
	if !e.Terminal() || e.CurrentScore() != 120 {
		t.Errorf("Terminal() = %v score = %d, want true/120", e.Terminal(), e.CurrentScore())
	}
}

func TestEngine_RewrittenTextIsNotScored(t *testing.T) {
	e := guard.New(guard.WithScoreThreshold(10))
	mustAdd(t, e, guard.EmailRewrite("[EMAIL]"), guard.Email("email").Weighted(10))

	d := e.Feed("to a@b.com today")
	if !d.IsRewrite() {
		t.Fatalf("Feed() = %v, want REWRITE", d)
	}
	if e.CurrentScore() != 0 {
		t.Errorf("CurrentScore() = %d, want 0", e.CurrentScore())
	}
}

func TestEngine_StopWords(t *testing.T) {
	e := guard.New(guard.WithScoreThreshold(10))
	mustAdd(t, e, guard.WithScore([]string{"secret", "key"}, "secret key", 10).WithStopWords("not"))

	if d := e.Feed("secret is not the key "); !d.IsAllow() {
		t.Errorf("Feed() = %v, want ALLOW", d)
	}
	if d := e.Feed("secret box key"); !d.IsBlock() {
		t.Errorf("Feed() = %v, want BLOCK", d)
	}
}

func TestEngine_Fuzzy(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.Strict([]string{"exploit", "kernel"}, "exploit").WithFuzzy(1))
	if d := e.Feed("explot kernal"); !d.IsBlock() {
		t.Errorf("Feed() = %v, want BLOCK", d)
	}
}

func TestEngine_Reset(t *testing.T) {
	e := guard.New(guard.WithScoreThreshold(100))
	mustAdd(t, e,
		guard.Strict([]string{"password", "is"}, "credential leak"),
		guard.WithScore([]string{"secret"}, "secret", 60),
		guard.EmailRewrite("[EMAIL]"),
	)

	e.Feed("my secret ")
	e.Feed("x@y.com, password")
	if d := e.Feed(" is"); !d.IsBlock() {
		t.Fatalf("Feed() = %v, want BLOCK", d)
	}
	if d := e.Feed("more"); !d.IsBlock() || d.Reason != "stream already blocked" {
		t.Errorf("terminal Feed() = %v", d)
	}
	if d := e.Flush(); !d.IsBlock() {
		t.Errorf("terminal Flush() = %v", d)
	}

	e.Reset()
	e.Reset()
	if e.Terminal() || e.CurrentScore() != 0 || e.Buffered() != "" || len(e.ScoreDetails()) != 0 {
		t.Fatal("Reset() left state behind")
	}
	if e.RuleCount() != 3 {
		t.Errorf("RuleCount() = %d, want 3", e.RuleCount())
	}
	if d := e.Feed(" is"); !d.IsAllow() {
		t.Errorf("Feed() after Reset = %v, want ALLOW", d)
	}
	if d := e.Feed(" the password is"); !d.IsBlock() {
		t.Errorf("rules must survive Reset: %v", d)
	}
}

func TestEngine_RuleAddedMidStream(t *testing.T) {
	e := guard.New()
	mustAdd(t, e, guard.IPv4Rewrite("[IP]"))

	e.Feed("write to a@b.com")
	mustAdd(t, e, guard.Email("email"))
	if d := e.Feed(" thanks "); !d.IsAllow() {
		t.Fatalf("buffered text matched a later rule: %v", d)
	}
	if d := e.Feed("or c@d.org "); !d.IsBlock() {
		t.Errorf("new text: %v, want BLOCK", d)
	}

	e = guard.New()
	e.Feed("the password ")
	mustAdd(t, e, guard.Strict([]string{"password", "is"}, "leak"))
	if d := e.Feed("is"); !d.IsAllow() {
		t.Errorf("sequence began before the rule: %v", d)
	}
}

func TestEngine_SafeTextAnySplit(t *testing.T) {
	text := "The weather is lovely today and the park is open until nine o'clock. " +
		"Order 41111111111111112222 shipped with release 1.2.3.4.5 today."
	for _, chunks := range splits(text) {
		e := guard.New(guard.WithScoreThreshold(100))
		mustAdd(t, e,
			guard.Strict([]string{"password", "is"}, "leak"),
			guard.WithGaps([]string{"how", "to", "hack"}, "hack", 2),
			guard.WithScore([]string{"secret"}, "secret", 50),
			guard.EmailRewrite("[EMAIL]"),
			guard.CreditCard("card"),
			guard.URL("url"),
			guard.IPv4("ip"),
			guard.SequenceRewrite([]string{"project", "falcon"}, "[X]"),
		)
		for i, d := range feedAll(e, chunks...) {
			if !d.IsAllow() {
				t.Fatalf("chunk size %d, chunk %d: %v", len(chunks[0]), i, d)
			}
		}
		if d := e.Flush(); !d.IsAllow() {
			t.Fatalf("chunk size %d: Flush() = %v", len(chunks[0]), d)
		}
	}
}

func TestEngine_Deterministic(t *testing.T) {
	build := func() *guard.Engine {
		e := guard.New(guard.WithScoreThreshold(90))
		mustAdd(t, e,
			guard.WithScore([]string{"secret"}, "secret", 30),
			guard.EmailRewrite("[EMAIL]"),
			guard.WithGaps([]string{"drop", "table"}, "sql", 1),
		)
		return e
	}
	chunks := []string{"a secret ", "to a@b", ".com and ", "secret", "s secret ", "drop the table"}

	a, b := build(), build()
	for _, c := range chunks {
		da, db := a.Feed(c), b.Feed(c)
		if da != db {
			t.Fatalf("Feed(%q): %v vs %v", c, da, db)
		}
		if a.CurrentScore() != b.CurrentScore() {
			t.Fatalf("scores diverged: %d vs %d", a.CurrentScore(), b.CurrentScore())
		}
	}
}

func TestEngine_BufferBounded(t *testing.T) {
	e := guard.New(guard.WithMaxBuffer(64))
	mustAdd(t, e, guard.URLRewrite("[URL]"))

	for i := 0; i < 200; i++ {
		e.Feed("lorem ipsum dolor sit amet ")
		if n := len(e.Buffered()); n > 64 {
			t.Fatalf("buffer grew to %d bytes", n)
		}
	}
	e.Feed(strings.Repeat("x", 500))
	if n := len(e.Buffered()); n > 64 {
		t.Errorf("buffer after long chunk = %d bytes", n)
	}

	e = guard.New(guard.WithMaxBuffer(64))
	mustAdd(t, e, guard.SequenceRule{
		Tokens: []string{"begin", "end"},
		MaxGap: 1000,
		Action: guard.Action{Kind: guard.ActionRewrite, Replacement: "[X]"},
	})
	e.Feed("begin ")
	for i := 0; i < 100; i++ {
		e.Feed("word ")
		if n := len(e.Buffered()); n > 64 {
			t.Fatalf("held sequence grew the buffer to %d bytes", n)
		}
	}
	if e.Buffered() == "" {
		t.Error("words of an open sequence attempt were released")
	}

	e = guard.New()
	mustAdd(t, e, guard.IPv4Rewrite("[IP]"))
	e.Feed(strings.Repeat("word ", 100))
	if n := len(e.Buffered()); n > 30 {
		t.Errorf("buffer = %d bytes, want at most two IPv4 spans", n)
	}
	if b := e.Buffered(); b != "" && !strings.HasPrefix(b, "word") {
		t.Errorf("buffer %q should start at a word boundary", b)
	}
}

func TestEngine_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		rule any
	}{
		{"empty tokens", guard.Strict(nil, "r")},
		{"blank token", guard.Strict([]string{"a", " "}, "r")},
		{"negative gap", guard.WithGaps([]string{"a", "b"}, "r", -1)},
		{"zero weight", guard.WithScore([]string{"a"}, "r", 0)},
		{"negative weight", guard.Strict([]string{"a"}, "r").Weighted(-4)},
		{"sequence rewrite without replacement", guard.SequenceRewrite([]string{"a"}, "")},
		{"weighted sequence rewrite", guard.SequenceRewrite([]string{"a"}, "x").Weighted(5)},
		{"empty kind", guard.PatternRule{}},
		{"empty replacement", guard.EmailRewrite("")},
		{"bad regex", guard.CustomPattern("(", "r")},
		{"empty regex", guard.CustomRewrite("", "x")},
		{"weighted rewrite", guard.URLRewrite("[URL]").Weighted(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := guard.New()
			var err error
			switch r := tt.rule.(type) {
			case guard.SequenceRule:
				err = e.AddForbiddenSequence(r)
			case guard.PatternRule:
				err = e.AddPatternRule(r)
			}
			if !errors.Is(err, guard.ErrInvalidRule) {
				t.Fatalf("error = %v, want ErrInvalidRule", err)
			}
			var ce *guard.ConfigError
			if !errors.As(err, &ce) || ce.Problem == "" {
				t.Errorf("error %v is not a *ConfigError with a problem", err)
			}
			if e.RuleCount() != 0 {
				t.Errorf("rejected rule was registered")
			}
		})
	}
}

func TestEngine_RuleIDInError(t *testing.T) {
	e := guard.New()
	err := e.AddForbiddenSequence(guard.Strict(nil, "r").WithID("creds"))
	if err == nil || !strings.Contains(err.Error(), `"creds"`) {
		t.Errorf("error = %v, want rule id in message", err)
	}
}

func TestDecision(t *testing.T) {
	if d := guard.Allowed(); !d.IsAllow() || d.String() != "ALLOW" {
		t.Errorf("Allowed() = %v", d)
	}
	if d := guard.Blocked("r"); !d.IsBlock() || d.Reason != "r" || d.String() != "BLOCK(r)" {
		t.Errorf("Blocked() = %v", d)
	}
	d := guard.Rewritten("x")
	if !d.IsRewrite() || d.RewrittenText() != "x" {
		t.Errorf("Rewritten() = %v", d)
	}
	if guard.Blocked("r").RewrittenText() != "" {
		t.Error("RewrittenText() of a block should be empty")
	}
}
