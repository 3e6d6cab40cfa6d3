package cli

import (
	"fmt"
	"os"

	"github.com/gzhole/streamguard/internal/config"
	"github.com/gzhole/streamguard/internal/policy"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show StreamGuard status — policy, packs, engine limits, audit log",
	Long: `Check how StreamGuard is configured: which policy file and packs are
active, the engine limits that apply, and where the audit log lives.

  streamguard status`,
	RunE: statusCommand,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusCommand(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load(policyPath, logPath, mode)

	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  StreamGuard Status")
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()

	// 1. Binary
	binPath, err := os.Executable()
	if err != nil {
		binPath = "unknown"
	}
	fmt.Printf("  Binary:    %s (%s)\n", binPath, Version)

	// 2. Config directory
	configDir := "~/.streamguard"
	if cfg != nil {
		configDir = cfg.ConfigDir
		fmt.Printf("  Mode:      %s\n", cfg.Mode)
	}
	fmt.Printf("  Config:    %s\n", configDir)
	fmt.Println()

	// 3. Policy
	fmt.Println("─── Policy ────────────────────────────────────────────")
	checkPolicyFile("Policy", policyPathOrDefault(cfg))

	// Policy packs
	if cfg != nil {
		_, infos, err := policy.LoadPacks(cfg.PacksDir, policy.DefaultPolicy())
		if err == nil && len(infos) > 0 {
			enabled, broken := 0, 0
			for _, info := range infos {
				if info.Err != nil {
					broken++
				} else if info.Enabled {
					enabled++
				}
			}
			fmt.Printf("  ✅ Policy packs: %d installed, %d enabled\n", len(infos), enabled)
			if broken > 0 {
				fmt.Printf("  ⚠  %d pack(s) failed to parse\n", broken)
			}
		} else {
			fmt.Println("  ⬚  No policy packs installed")
		}
	}
	fmt.Println()

	// 4. Engine
	fmt.Println("─── Engine ────────────────────────────────────────────")
	if cfg != nil {
		engine, pol, err := loadEngine(cfg)
		if err != nil {
			fmt.Printf("  ❌ %v\n", err)
		} else {
			fmt.Printf("  ✅ %d rules compiled\n", engine.RuleCount())
			fmt.Printf("     Score threshold: %d\n", pol.Defaults.ScoreThreshold)
			maxBuffer := pol.Defaults.MaxBuffer
			if maxBuffer == 0 {
				maxBuffer = cfg.Engine.MaxBuffer
			}
			fmt.Printf("     Max buffer:      %d bytes\n", maxBuffer)
			fmt.Printf("     Log redaction:   %v\n", pol.Defaults.Redacts())
		}
	}
	fmt.Println()

	// 5. Audit log
	fmt.Println("─── Audit Log ─────────────────────────────────────────")
	auditPath := ""
	if cfg != nil {
		auditPath = cfg.LogPath
	}
	checkAuditLog(auditPath)
	fmt.Println()

	return nil
}

func checkPolicyFile(name, path string) {
	if path == "" {
		fmt.Printf("  ⬚  %s: using built-in defaults\n", name)
		return
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  ✅ %s: %s\n", name, path)
	} else {
		fmt.Printf("  ⬚  %s: using built-in defaults (no custom file)\n", name)
	}
}

func checkAuditLog(path string) {
	if path == "" {
		fmt.Println("  ⬚  No audit log path configured")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("  ⬚  %s (not yet created — will start on first event)\n", path)
		return
	}

	sizeKB := info.Size() / 1024
	if sizeKB == 0 {
		fmt.Printf("  ✅ %s (<1 KB)\n", path)
	} else {
		fmt.Printf("  ✅ %s (%d KB)\n", path, sizeKB)
	}
}

func policyPathOrDefault(cfg *config.Config) string {
	if cfg != nil {
		return cfg.PolicyPath
	}
	return ""
}
