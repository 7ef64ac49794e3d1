package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
)

// DefaultFile is the configuration file picked up from the working directory
// when no --config flag is given.
const DefaultFile = "simplistis.yaml"

// Config represents the application configuration
type Config struct {
	Site        SiteConfig        `yaml:"site"`
	Layout      LayoutConfig      `yaml:"layout"`
	FrontMatter FrontMatterConfig `yaml:"front_matter"`
	Markdown    MarkdownConfig    `yaml:"markdown"`
	Render      RenderConfig      `yaml:"render"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`

	warnings []string
}

// SiteConfig carries site-wide values exposed to every template as .site
type SiteConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url" validate:"omitempty,uri"`
}

// LayoutConfig names the reserved files of the directory layout contract.
type LayoutConfig struct {
	IndexFile         string   `yaml:"index_file" validate:"required,excludesall=/\\"`
	PageTemplate      string   `yaml:"page_template" validate:"required,excludesall=/\\."`
	ContentTemplate   string   `yaml:"content_template" validate:"required,excludesall=/\\.,nefield=PageTemplate"`
	ContentExtensions []string `yaml:"content_extensions" validate:"required,min=1,dive,startswith=.,excludesall=/\\"`
}

// FrontMatterConfig selects the structured format of the leading metadata block.
type FrontMatterConfig struct {
	Format FrontMatterFormat `yaml:"format" validate:"oneof=toml yaml"`
}

// MarkdownConfig controls the goldmark converter.
type MarkdownConfig struct {
	Features  []string `yaml:"features" validate:"dive,oneof=gfm footnote typographer definition_list heading_ids"`
	HardWraps bool     `yaml:"hard_wraps"`
	Unsafe    bool     `yaml:"unsafe"` // pass raw HTML through
}

// RenderConfig controls the page renderer.
type RenderConfig struct {
	Workers int         `yaml:"workers" validate:"gte=0"` // 0 = runtime.NumCPU()
	OnError ErrorPolicy `yaml:"on_error" validate:"oneof=continue abort"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Clean bool `yaml:"clean"` // Remove the output directory before building
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level" validate:"oneof=debug info warn error"`
	Format LogFormat `yaml:"format" validate:"oneof=text json"`
}

// Load reads the configuration file at configPath.
//
// An empty configPath looks for DefaultFile in the working directory and falls
// back to Default() when it is absent; an explicit path that does not exist is
// a configuration error. Environment variables from .env files are loaded
// first and ${VAR} references in the YAML are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultFile
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return nil, serrors.ConfigNotFound(configPath)
			}
			return Default(), nil
		}
		return nil, serrors.ConfigInvalid(configPath, fmt.Errorf("read config file: %w", err))
	}

	return Parse(configPath, data)
}

// Parse decodes YAML configuration on top of Default(), normalizes and validates it.
func Parse(source string, data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, serrors.ConfigInvalid(source, fmt.Errorf("unmarshal config: %w", err))
	}

	res := Normalize(cfg)
	cfg.warnings = res.Warnings

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Warnings lists the adjustments made while normalizing the loaded file.
func (c *Config) Warnings() []string {
	return c.warnings
}
