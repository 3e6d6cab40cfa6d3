package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gzhole/streamguard/internal/config"
	"github.com/gzhole/streamguard/internal/logger"
	"github.com/spf13/cobra"
)

var (
	logFilterDecision string
	logFilterSession  string
	logLast           int
	logSummary        bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the audit log",
	Long: `View the StreamGuard audit log with filtering and summary options.

Examples:
  streamguard log                        # Show all entries
  streamguard log --last 20              # Show last 20 entries
  streamguard log --decision BLOCK       # Show only blocked streams
  streamguard log --session 3f2a...      # Show one stream's decisions
  streamguard log --summary              # Show summary stats`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterDecision, "decision", "", "Filter by decision (REWRITE, BLOCK)")
	logCmd.Flags().StringVar(&logFilterSession, "session", "", "Filter by session id (prefix match)")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(policyPath, logPath, mode)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	events, err := readAuditLog(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No audit log entries found.")
		return nil
	}

	// Apply filters
	filtered := filterEvents(events)

	// Apply --last
	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if logSummary {
		printSummary(events, filtered)
		return nil
	}

	printEvents(filtered)
	return nil
}

func readAuditLog(path string) ([]logger.AuditEvent, error) {
	events, err := logger.ReadEvents(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return events, err
}

func filterEvents(events []logger.AuditEvent) []logger.AuditEvent {
	if logFilterDecision == "" && logFilterSession == "" {
		return events
	}

	var filtered []logger.AuditEvent
	for _, e := range events {
		if logFilterDecision != "" && !strings.EqualFold(e.Decision, logFilterDecision) {
			continue
		}
		if logFilterSession != "" && !strings.HasPrefix(e.Session, logFilterSession) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func printEvents(events []logger.AuditEvent) {
	for _, e := range events {
		ts := formatTimestamp(e.Timestamp)
		icon := decisionIcon(e.Decision)

		fmt.Printf("%s %s %s [%s]\n", icon, ts, e.Decision, e.Mode)

		if e.Reason != "" {
			fmt.Printf("     Reason: %s\n", e.Reason)
		}
		if len(e.Rules) > 0 {
			fmt.Printf("     Rules: %s (score %d)\n", strings.Join(e.Rules, ", "), e.Score)
		}
		if e.Chunk != "" {
			fmt.Printf("     Chunk: %q\n", e.Chunk)
		}
		if e.Error != "" {
			fmt.Printf("     Error: %s\n", e.Error)
		}
		fmt.Printf("     Session: %s\n", e.Session)
		fmt.Println()
	}
}

func printSummary(all []logger.AuditEvent, filtered []logger.AuditEvent) {
	totalAll := len(all)
	counts := map[string]int{}
	sessions := map[string]bool{}
	errorCount := 0

	for _, e := range all {
		counts[e.Decision]++
		sessions[e.Session] = true
		if e.Error != "" {
			errorCount++
		}
	}

	fmt.Println("═══════════════════════════════════════════")
	fmt.Println("  StreamGuard Audit Summary")
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  Total events:    %d\n", totalAll)
	fmt.Printf("  Sessions:        %d\n", len(sessions))
	fmt.Printf("  REWRITE:         %d\n", counts["REWRITE"])
	fmt.Printf("  BLOCK:           %d\n", counts["BLOCK"])
	fmt.Printf("  Errors:          %d\n", errorCount)
	fmt.Println("═══════════════════════════════════════════")

	if len(all) > 0 {
		fmt.Printf("  First event:     %s\n", formatTimestamp(all[0].Timestamp))
		fmt.Printf("  Last event:      %s\n", formatTimestamp(all[len(all)-1].Timestamp))
	}

	// Show blocked streams
	blocked := []logger.AuditEvent{}
	for _, e := range all {
		if e.Decision == "BLOCK" {
			blocked = append(blocked, e)
		}
	}
	if len(blocked) > 0 {
		fmt.Println()
		fmt.Println("  Blocked streams:")
		limit := len(blocked)
		if limit > 10 {
			limit = 10
		}
		for _, e := range blocked[len(blocked)-limit:] {
			fmt.Printf("    %s %s\n", formatTimestamp(e.Timestamp), e.Reason)
		}
	}

	fmt.Println()
}

func decisionIcon(decision string) string {
	switch decision {
	case "BLOCK":
		return "\xf0\x9f\x9b\x91" // shield
	case "REWRITE":
		return "\xe2\x9c\x8f" // pencil
	case "ALLOW":
		return "\xe2\x9c\x85"     // check mark
	default:
		return "\xe2\x9d\x93"     // question mark
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
