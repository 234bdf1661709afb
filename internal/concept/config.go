package concept

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

// ConfigVersion is the only concept configuration version understood.
const ConfigVersion = 1

//go:embed concepts.yaml
var defaultConfig []byte

// Config is a versioned, ordered list of weather dimensions.
type Config struct {
	Version    int         `yaml:"version"`
	Dimensions []Dimension `yaml:"dimensions"`
}

// Dimension names one output column and the seed senses that define it.
type Dimension struct {
	Name  string `yaml:"name"`
	Seeds Seeds  `yaml:"seeds"`
}

// Seeds are sense keys grouped by the grammatical role they apply to.
type Seeds struct {
	Noun      []string `yaml:"noun"`
	Verb      []string `yaml:"verb"`
	Adjective []string `yaml:"adjective"`
	Adverb    []string `yaml:"adverb"`
}

// ForRole returns the seeds listed under role.
func (s Seeds) ForRole(role domain.Role) []string {
	switch role {
	case domain.RoleNoun:
		return s.Noun
	case domain.RoleVerb:
		return s.Verb
	case domain.RoleAdjective:
		return s.Adjective
	case domain.RoleAdverb:
		return s.Adverb
	default:
		return nil
	}
}

// All returns every seed in role order.
func (s Seeds) All() []string {
	var out []string
	for _, r := range domain.ScoredRoles {
		out = append(out, s.ForRole(r)...)
	}
	return out
}

// Names returns the dimension names in configured order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		names[i] = d.Name
	}
	return names
}

// DefaultConfig returns the built-in weather dimensions.
func DefaultConfig() (*Config, error) {
	cfg, err := parseConfig(bytes.NewReader(defaultConfig))
	if err != nil {
		return nil, fmt.Errorf("embedded concepts: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and validates a concept configuration file. An empty path
// selects the built-in configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := parseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // unknown role keys are errors

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty configuration")
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the version and that dimension names are unique and non-empty.
func (c *Config) Validate() error {
	if c.Version != ConfigVersion {
		return fmt.Errorf("unsupported concept configuration version %d (want %d)", c.Version, ConfigVersion)
	}
	if len(c.Dimensions) == 0 {
		return errors.New("at least one dimension is required")
	}
	seen := make(map[string]bool, len(c.Dimensions))
	for i, d := range c.Dimensions {
		if d.Name == "" {
			return fmt.Errorf("dimension %d: name is required", i+1)
		}
		if seen[d.Name] {
			return fmt.Errorf("dimension %d: duplicate name %q", i+1, d.Name)
		}
		seen[d.Name] = true
		if len(d.Seeds.All()) == 0 {
			return fmt.Errorf("dimension %s: at least one seed is required", d.Name)
		}
	}
	return nil
}
