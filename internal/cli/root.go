package cli

import (
	"github.com/spf13/cobra"
)

var (
	policyPath string
	logPath    string
	mode       string
)

var rootCmd = &cobra.Command{
	Use:   "streamguard",
	Short: "StreamGuard - Streaming content-safety guard",
	Long: `StreamGuard inspects text as it streams, chunk by chunk, and decides
whether each piece may pass unchanged, must be rewritten (for example to
redact an email address), or must stop the stream entirely.

Rules are deterministic: forbidden word sequences with gap tolerance, and
pattern rules for emails, URLs, IPv4 addresses, card numbers, or custom
expressions. Weighted rules add to a per-stream score that blocks once it
reaches the policy threshold.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Path to policy YAML file (default: ~/.streamguard/policy.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to audit log file (default: ~/.streamguard/audit.jsonl)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "enforce", "Execution mode: enforce or audit")
}

func Execute() error {
	return rootCmd.Execute()
}
