package henkan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// SourceConfig describes one dictionary source in the configuration
// file. Order matters: earlier sources win insertion-order ties.
type SourceConfig struct {
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding" env-default:"utf-8"`
	Format   string `yaml:"format" env-default:"skk"`
	Role     string `yaml:"role" env-default:"primary"` // primary | single-term
	Priority int    `yaml:"priority"`
	Name     string `yaml:"name"`
}

// Descriptor converts the configuration entry to a loader descriptor.
func (c SourceConfig) Descriptor() SourceDescriptor {
	role := RolePrimary
	if c.Role == "single-term" {
		role = RoleSingleTerm
	}
	return SourceDescriptor{
		Path:     c.Path,
		Encoding: c.Encoding,
		Format:   Format(c.Format),
		Role:     role,
		Priority: c.Priority,
		Name:     c.Name,
	}
}

// Config is the engine configuration, loaded from a YAML file with
// environment-variable overrides.
type Config struct {
	Sources []SourceConfig `yaml:"sources"`

	UnigramLM string `yaml:"unigram_lm" env:"HENKAN_UNIGRAM_LM"`
	BigramLM  string `yaml:"bigram_lm" env:"HENKAN_BIGRAM_LM"`

	// UserModelPath is the SQLite file holding learned counts.
	// Defaults under the user's home directory.
	UserModelPath string `yaml:"user_model" env:"HENKAN_USER_MODEL"`

	InputMode string `yaml:"input_mode" env:"HENKAN_INPUT_MODE" env-default:"romaji"`
	BeamWidth int    `yaml:"beam_width" env:"HENKAN_BEAM_WIDTH" env-default:"20"`

	// DisableDateSource turns off the dynamic date single-term source,
	// which is on by default.
	DisableDateSource  bool `yaml:"disable_date_source" env:"HENKAN_DISABLE_DATE_SOURCE"`
	DateSourcePriority int  `yaml:"date_source_priority" env:"HENKAN_DATE_SOURCE_PRIORITY" env-default:"1000"`
}

// LoadConfig reads the configuration file at path (when non-empty) and
// applies environment overrides.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read config from environment: %w", err)
		}
	}
	if cfg.UserModelPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.UserModelPath = filepath.Join(home, ".henkan", "user-model.db")
		}
	}
	if cfg.BeamWidth <= 0 {
		cfg.BeamWidth = DefaultBeamWidth
	}
	return cfg, nil
}
