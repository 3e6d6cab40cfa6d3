package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultConfigDir  = ".streamguard"
	DefaultPolicyFile = "policy.yaml"
	DefaultPacksDir   = "packs"
	DefaultLogFile    = "audit.jsonl"
)

// Modes decide what the filter does with a Block.
const (
	// ModeEnforce stops output at the first Block and substitutes rewrites.
	ModeEnforce = "enforce"
	// ModeAudit records decisions but passes the text through unchanged.
	ModeAudit = "audit"
)

type Config struct {
	PolicyPath string
	PacksDir   string
	LogPath    string
	Mode       string
	ConfigDir  string
	Engine     EngineConfig
}

// EngineConfig holds engine limits that are not part of a policy.
type EngineConfig struct {
	// ScoreThreshold overrides the policy threshold when positive.
	ScoreThreshold int
	// MaxBuffer caps the bytes an engine holds back. Default: 4096.
	MaxBuffer int
	// ChunkSize is the read size of the filter command. Default: 256.
	ChunkSize int
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxBuffer: 4096,
		ChunkSize: 256,
	}
}

func Load(policyPath, logPath, mode string) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)

	if err := ensureDir(configDir); err != nil {
		return nil, err
	}

	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigDir: configDir,
		PacksDir:  filepath.Join(configDir, DefaultPacksDir),
		Mode:      m,
		Engine:    DefaultEngineConfig(),
	}

	if policyPath != "" {
		cfg.PolicyPath = policyPath
	} else {
		cfg.PolicyPath = filepath.Join(configDir, DefaultPolicyFile)
	}

	if logPath != "" {
		cfg.LogPath = logPath
	} else {
		cfg.LogPath = filepath.Join(configDir, DefaultLogFile)
	}

	return cfg, nil
}

// ParseMode normalizes a mode flag. Empty means enforce.
func ParseMode(mode string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(mode)); m {
	case "":
		return ModeEnforce, nil
	case ModeEnforce, ModeAudit:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q: want %s or %s", mode, ModeEnforce, ModeAudit)
	}
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
