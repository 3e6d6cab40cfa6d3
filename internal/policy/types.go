package policy

// Action names what a rule does when it triggers.
type Action string

const (
	ActionBlock   Action = "block"
	ActionRewrite Action = "rewrite"
	ActionScore   Action = "score"
)

type Policy struct {
	Version  string   `yaml:"version"`
	Defaults Defaults `yaml:"defaults"`
	Rules    []Rule   `yaml:"rules"`
}

type Defaults struct {
	// ScoreThreshold is the ledger total that blocks a stream. Zero means 1.
	ScoreThreshold int `yaml:"score_threshold,omitempty"`
	// MaxBuffer caps the bytes an engine holds back. Zero keeps the engine default.
	MaxBuffer int `yaml:"max_buffer,omitempty"`
	// Replacement is used by rewrite rules that do not name their own.
	Replacement string `yaml:"replacement,omitempty"`
	// LogRedaction controls redaction of audit log chunks. Unset means on.
	LogRedaction *bool `yaml:"log_redaction,omitempty"`
}

// Redacts reports whether audit log chunks are redacted.
func (d Defaults) Redacts() bool {
	return d.LogRedaction == nil || *d.LogRedaction
}

// Rule is either a sequence rule or a pattern rule.
type Rule struct {
	ID     string `yaml:"id"`
	Reason string `yaml:"reason,omitempty"`
	Action Action `yaml:"action,omitempty"`

	// Sequence rules
	Sequence  StringOrList `yaml:"sequence,omitempty"`
	MaxGap    *int         `yaml:"max_gap,omitempty"`
	StopWords []string     `yaml:"stop_words,omitempty"`
	Fuzzy     int          `yaml:"fuzzy,omitempty"`

	// Pattern rules
	Pattern     string `yaml:"pattern,omitempty"`
	Expr        string `yaml:"expr,omitempty"`
	Replacement string `yaml:"replacement,omitempty"`

	// Weight makes the rule score-only.
	Weight int `yaml:"weight,omitempty"`
}

// StringOrList allows YAML fields to accept either a single string or a list.
// "password is" → ["password is"], ["password", "is"] → ["password", "is"]
type StringOrList []string

func (s *StringOrList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}
	var list []string
	if err := unmarshal(&list); err != nil {
		return err
	}
	*s = list
	return nil
}
