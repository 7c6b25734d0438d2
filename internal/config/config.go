package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/stockflow/internal/sd"
)

const (
	DefaultDataDir   = ".stockflow"
	DefaultModelsDir = "models"
)

// Config is a run configuration file. Everything is optional; absent
// time fields fall back to the model's defaults, and CLI flags override
// the file.
type Config struct {
	Model      string             `yaml:"model"`
	Scenario   string             `yaml:"scenario,omitempty"`
	Time       TimeOverrides      `yaml:"time,omitempty"`
	Parameters map[string]float64 `yaml:"parameters,omitempty"`
	DataDir    string             `yaml:"data,omitempty"`
}

type TimeOverrides struct {
	Start *float64 `yaml:"start,omitempty"`
	Stop  *float64 `yaml:"stop,omitempty"`
	Dt    *float64 `yaml:"dt,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:    DefaultDataDir,
		Parameters: map[string]float64{},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve merges the config against a loaded model: scenario overrides
// first, then explicit parameter overrides, then time overrides over the
// model's default horizon. Unknown parameter or scenario names are
// configuration errors.
func (c *Config) Resolve(m *sd.Model) (map[string]float64, sd.TimeConfig, error) {
	params := map[string]float64{}

	if c.Scenario != "" {
		sc := m.Scenario(c.Scenario)
		if sc == nil {
			return nil, sd.TimeConfig{}, fmt.Errorf("%w: %s", sd.ErrUnknownScenario, c.Scenario)
		}
		for name, v := range sc.Overrides {
			params[name] = v
		}
	}

	for name, v := range c.Parameters {
		if m.Parameter(name) == nil {
			return nil, sd.TimeConfig{}, fmt.Errorf("%w: %s", sd.ErrUnknownParameter, name)
		}
		params[name] = v
	}

	tc := m.Time
	if c.Time.Start != nil {
		tc.Start = *c.Time.Start
	}
	if c.Time.Stop != nil {
		tc.Stop = *c.Time.Stop
	}
	if c.Time.Dt != nil {
		tc.Dt = *c.Time.Dt
	}
	if err := tc.Validate(); err != nil {
		return nil, sd.TimeConfig{}, err
	}

	return params, tc, nil
}
