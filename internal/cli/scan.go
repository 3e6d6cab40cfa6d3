package cli

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gzhole/streamguard/internal/config"
	"github.com/gzhole/streamguard/internal/guard"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Self-test — verify StreamGuard blocks and redacts known-bad text",
	Long: `Run a quick diagnostic that streams a set of known-bad and known-safe
samples through the active policy, one small chunk at a time, and checks the
decision for each.

  streamguard scan`,
	RunE: scanCommand,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

type selfTestCase struct {
	label string
	text  string
	want  guard.Verdict
	// wantText is the filtered output expected for rewrite cases.
	wantText string
}

type selfTestResult struct {
	pass    bool
	verdict guard.Verdict
	output  string
}

// selfTestChunk is small enough that every sample spans several chunks.
const selfTestChunk = 3

var selfTestCases = []selfTestCase{
	{label: "Credential disclosure", text: "my password is hunter2", want: guard.Block},
	{label: "Shouted sequence", text: "MY PASSWORD IS hunter2", want: guard.Block},
	{label: "Zero-width obfuscation", text: "my pass\u200bword is hunter2", want: guard.Block},
	{label: "Gapped sequence", text: "how to really hack the wifi", want: guard.Block},
	{label: "Score threshold", text: "the secret key and the api token", want: guard.Block},
	{label: "Email redaction", text: "contact bob@example.com now", want: guard.Rewrite, wantText: "contact [EMAIL] now"},
	{label: "Card redaction", text: "card 4111 1111 1111 1111 ok", want: guard.Rewrite, wantText: "card [CARD] ok"},
	{label: "Stop word cancels", text: "secret not key", want: guard.Allow},
	{label: "Safe text", text: "the weather is nice today", want: guard.Allow},
}

func scanCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(policyPath, logPath, mode)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  StreamGuard Self-Test")
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()

	// Build once to surface policy errors before running the cases.
	check, _, err := loadEngine(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("  Policy: %s (%d rules)\n\n", cfg.PolicyPath, check.RuleCount())

	fmt.Println("─── Streaming Decisions ───────────────────────────────")

	engineFor := func() (*guard.Engine, error) {
		e, _, err := loadEngine(cfg)
		return e, err
	}

	passed := 0
	for _, tc := range selfTestCases {
		res := runSelfTestCase(engineFor, tc)
		icon := "\xe2\x9c\x85" // ✅
		if res.pass {
			passed++
		} else {
			icon = "\xe2\x9d\x8c" // ❌
		}
		fmt.Printf("  %s  %-24s  %s\n", icon, tc.label, res.verdict)
		if !res.pass && res.output != "" {
			fmt.Printf("       output: %q\n", res.output)
		}
	}

	total := len(selfTestCases)
	failed := total - passed

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════")
	if failed == 0 {
		fmt.Printf("  ✅ All %d tests passed — StreamGuard is working correctly\n", total)
	} else {
		fmt.Printf("  ⚠  %d/%d tests passed, %d failed\n", passed, total, failed)
		fmt.Println("  Review your policy configuration.")
	}
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()

	return nil
}

func runSelfTestCase(engineFor func() (*guard.Engine, error), tc selfTestCase) selfTestResult {
	engine, err := engineFor()
	if err != nil {
		return selfTestResult{}
	}

	var out bytes.Buffer
	f := &streamFilter{engine: engine, out: &out, mode: config.ModeEnforce}
	res, err := f.run(strings.NewReader(tc.text), selfTestChunk)
	if err != nil {
		return selfTestResult{}
	}

	got := selfTestResult{verdict: guard.Allow, output: out.String()}
	switch {
	case res.Stopped:
		got.verdict = guard.Block
	case res.Rewrites > 0:
		got.verdict = guard.Rewrite
	}

	got.pass = got.verdict == tc.want
	if tc.want == guard.Rewrite {
		got.pass = got.pass && got.output == tc.wantText
	}
	return got
}
