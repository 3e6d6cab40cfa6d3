package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack extends Policy with metadata for rule packs.
// We avoid yaml:",inline" because Policy also has a `version` field.
type Pack struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	PackVersion string   `yaml:"version"`
	Author      string   `yaml:"author"`
	Defaults    Defaults `yaml:"defaults"`
	Rules       []Rule   `yaml:"rules"`
}

// PackInfo is a summary of a pack for listing.
type PackInfo struct {
	Name        string
	Description string
	Version     string
	Author      string
	Enabled     bool
	Path        string
	RuleCount   int
	Err         error
}

// LoadPacks reads all .yaml files from the packs directory and merges them
// into the base policy. Rules from packs are appended after the base rules.
// The lowest score threshold wins; log redaction stays on if anyone asks.
func LoadPacks(packsDir string, base *Policy) (*Policy, []PackInfo, error) {
	var infos []PackInfo

	entries, err := os.ReadDir(packsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil, nil
		}
		return nil, nil, err
	}

	result := clonePolicy(base)

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		path := filepath.Join(packsDir, entry.Name())

		// Check if pack is disabled (prefixed with underscore)
		baseName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		enabled := !strings.HasPrefix(baseName, "_")

		pack, err := loadPack(path)
		if err != nil {
			infos = append(infos, PackInfo{
				Name:    baseName,
				Enabled: enabled,
				Path:    path,
				Err:     err,
			})
			continue
		}

		info := PackInfo{
			Name:        pack.Name,
			Description: pack.Description,
			Version:     pack.PackVersion,
			Author:      pack.Author,
			Enabled:     enabled,
			Path:        path,
			RuleCount:   len(pack.Rules),
		}
		if info.Name == "" {
			info.Name = baseName
		}
		infos = append(infos, info)

		if !enabled {
			continue
		}

		mergePackInto(result, pack)
	}

	return result, infos, nil
}

func loadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s: %w", path, err)
	}

	return &pack, nil
}

// mergePackInto merges a pack's rules and defaults into the target policy.
func mergePackInto(target *Policy, pack *Pack) {
	target.Rules = append(target.Rules, pack.Rules...)

	d := pack.Defaults
	if d.ScoreThreshold > 0 && (target.Defaults.ScoreThreshold == 0 || d.ScoreThreshold < target.Defaults.ScoreThreshold) {
		target.Defaults.ScoreThreshold = d.ScoreThreshold
	}
	if d.MaxBuffer > target.Defaults.MaxBuffer {
		target.Defaults.MaxBuffer = d.MaxBuffer
	}
	if target.Defaults.Replacement == "" {
		target.Defaults.Replacement = d.Replacement
	}
	// A pack can turn redaction on but never off.
	if d.LogRedaction != nil && *d.LogRedaction {
		target.Defaults.LogRedaction = boolPtr(true)
	}
}

func clonePolicy(p *Policy) *Policy {
	clone := &Policy{
		Version:  p.Version,
		Defaults: p.Defaults,
	}

	clone.Rules = make([]Rule, len(p.Rules))
	for i, r := range p.Rules {
		r.Sequence = append(StringOrList(nil), r.Sequence...)
		r.StopWords = append([]string(nil), r.StopWords...)
		if r.MaxGap != nil {
			r.MaxGap = intPtr(*r.MaxGap)
		}
		clone.Rules[i] = r
	}

	return clone
}

// PackPath returns the file of the named pack and whether it is enabled.
func PackPath(packsDir, name string) (string, bool, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		enabled := filepath.Join(packsDir, name+ext)
		if _, err := os.Stat(enabled); err == nil {
			return enabled, true, nil
		}
		disabled := filepath.Join(packsDir, "_"+name+ext)
		if _, err := os.Stat(disabled); err == nil {
			return disabled, false, nil
		}
	}
	return "", false, fmt.Errorf("pack '%s' not found in %s", name, packsDir)
}

// SetPackEnabled renames a pack file to add or drop the underscore prefix.
// It reports whether anything changed.
func SetPackEnabled(packsDir, name string, enable bool) (bool, error) {
	path, enabled, err := PackPath(packsDir, name)
	if err != nil {
		return false, err
	}
	if enabled == enable {
		return false, nil
	}

	dir, file := filepath.Split(path)
	target := filepath.Join(dir, "_"+file)
	if enable {
		target = filepath.Join(dir, strings.TrimPrefix(file, "_"))
	}
	if err := os.Rename(path, target); err != nil {
		return false, fmt.Errorf("failed to rename pack: %w", err)
	}
	return true, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
