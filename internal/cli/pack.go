package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/gzhole/streamguard/internal/config"
	"github.com/gzhole/streamguard/internal/policy"
	"github.com/spf13/cobra"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage policy packs",
	Long: `Manage StreamGuard policy packs.

Policy packs are YAML rule files that target specific content domains
(credentials, PII, abuse). Packs are stored in ~/.streamguard/packs/ and merged
with your base policy at runtime. A pack whose file name starts with an
underscore is installed but disabled.

Examples:
  streamguard pack list                # List installed packs
  streamguard pack enable pii          # Enable a pack
  streamguard pack disable credentials # Disable a pack
  streamguard pack show pii            # Show pack details`,
}

var packListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed policy packs",
	RunE:  packList,
}

var packEnableCmd = &cobra.Command{
	Use:   "enable <pack-name>",
	Short: "Enable a disabled policy pack",
	Args:  cobra.ExactArgs(1),
	RunE:  packEnable,
}

var packDisableCmd = &cobra.Command{
	Use:   "disable <pack-name>",
	Short: "Disable a policy pack (prefix with underscore)",
	Args:  cobra.ExactArgs(1),
	RunE:  packDisable,
}

var packShowCmd = &cobra.Command{
	Use:   "show <pack-name>",
	Short: "Show details of a policy pack",
	Args:  cobra.ExactArgs(1),
	RunE:  packShow,
}

func init() {
	packCmd.AddCommand(packListCmd)
	packCmd.AddCommand(packEnableCmd)
	packCmd.AddCommand(packDisableCmd)
	packCmd.AddCommand(packShowCmd)
	rootCmd.AddCommand(packCmd)
}

func packsDir() (string, error) {
	cfg, err := config.Load(policyPath, logPath, mode)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.PacksDir, 0700); err != nil {
		return "", err
	}
	return cfg.PacksDir, nil
}

func packList(cmd *cobra.Command, args []string) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}

	base := policy.DefaultPolicy()
	_, infos, err := policy.LoadPacks(dir, base)
	if err != nil {
		return fmt.Errorf("failed to load packs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No policy packs installed.")
		fmt.Printf("\nTo install packs, copy YAML files to: %s\n", dir)
		return nil
	}

	fmt.Println("Installed Policy Packs:")
	fmt.Println(strings.Repeat("─", 60))
	for _, info := range infos {
		status := "\xe2\x9c\x85" // check mark
		if !info.Enabled {
			status = "\xe2\x9d\x8c" // cross mark
		}
		fmt.Printf("  %s  %-25s %s\n", status, info.Name, info.Description)
		if info.Err != nil {
			fmt.Printf("       \xe2\x9a\xa0  %v\n", info.Err)
			continue
		}
		if info.Version != "" {
			fmt.Printf("       v%s by %s  (%d rules)\n", info.Version, info.Author, info.RuleCount)
		}
	}
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("\nPacks directory: %s\n", dir)
	return nil
}

func packEnable(cmd *cobra.Command, args []string) error {
	return setPack(args[0], true)
}

func packDisable(cmd *cobra.Command, args []string) error {
	return setPack(args[0], false)
}

func setPack(name string, enable bool) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}

	changed, err := policy.SetPackEnabled(dir, name, enable)
	if err != nil {
		return err
	}

	switch {
	case !changed && enable:
		fmt.Printf("Pack '%s' is already enabled.\n", name)
	case !changed:
		fmt.Printf("Pack '%s' is already disabled.\n", name)
	case enable:
		fmt.Printf("\xe2\x9c\x85 Pack '%s' enabled.\n", name)
	default:
		fmt.Printf("\xe2\x9d\x8c Pack '%s' disabled.\n", name)
	}
	return nil
}

func packShow(cmd *cobra.Command, args []string) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}

	path, _, err := policy.PackPath(dir, args[0])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}
