package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return nil, err
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy %s: %w", path, err)
	}

	if policy.Version == "" {
		policy.Version = "0.1"
	}
	if policy.Defaults.ScoreThreshold == 0 {
		policy.Defaults.ScoreThreshold = defaultScoreThreshold
	}

	return &policy, nil
}

const defaultScoreThreshold = 100

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

func DefaultPolicy() *Policy {
	return &Policy{
		Version: "0.1",
		Defaults: Defaults{
			ScoreThreshold: defaultScoreThreshold,
			Replacement:    "[REDACTED]",
			LogRedaction:   boolPtr(true),
		},
		Rules: []Rule{
			{
				ID:       "credential-disclosure",
				Sequence: StringOrList{"password", "is"},
				Reason:   "Possible credential disclosure.",
			},
			{
				ID:       "hacking-instructions",
				Sequence: StringOrList{"how", "to", "hack"},
				MaxGap:   intPtr(2),
				Reason:   "Request for hacking instructions.",
			},
			{
				ID:        "secret-key-mention",
				Sequence:  StringOrList{"secret", "key"},
				StopWords: []string{"not", "no", "never"},
				Weight:    50,
				Reason:    "Secret key mentioned.",
			},
			{
				ID:       "api-token-mention",
				Sequence: StringOrList{"api", "token"},
				Weight:   50,
				Reason:   "API token mentioned.",
			},
			{
				ID:          "redact-email",
				Pattern:     "email",
				Action:      ActionRewrite,
				Replacement: "[EMAIL]",
			},
			{
				ID:          "redact-card",
				Pattern:     "credit_card",
				Action:      ActionRewrite,
				Replacement: "[CARD]",
			},
			{
				ID:      "internal-address",
				Pattern: "ipv4",
				Weight:  25,
				Reason:  "IP address in output.",
			},
		},
	}
}
