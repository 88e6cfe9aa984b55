package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Converter kinds understood by the server and CLI.
const (
	ConverterSoffice  = "soffice"
	ConverterChromedp = "chromedp"
)

// Config is the process configuration, loaded once at startup.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Layouts   LayoutsConfig   `mapstructure:"layouts"`
	Converter ConverterConfig `mapstructure:"converter"`
	Matcher   MatcherConfig   `mapstructure:"matcher"`
	Survey    SurveyConfig    `mapstructure:"survey"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	BodyLimitMB int    `mapstructure:"body_limit_mb"`
}

type PathsConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
	ResourcesDir string `mapstructure:"resources_dir"`
}

// LayoutsConfig points at an optional YAML file overriding the embedded
// page layouts for the template variants.
type LayoutsConfig struct {
	File string `mapstructure:"file"`
}

type ConverterConfig struct {
	Kind        string        `mapstructure:"kind"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Attempts    int           `mapstructure:"attempts"`
	ChromePath  string        `mapstructure:"chrome_path"`
	PaperWidth  float64       `mapstructure:"paper_width"`
	PaperHeight float64       `mapstructure:"paper_height"`
}

type MatcherConfig struct {
	Threshold int  `mapstructure:"threshold"`
	Normalize bool `mapstructure:"normalize"`
}

type SurveyConfig struct {
	Marker    string `mapstructure:"marker"`
	Slots     int    `mapstructure:"slots"`
	CacheSize int    `mapstructure:"cache_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// PORT is the conventional name on most hosts
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.body_limit_mb", 64)

	v.SetDefault("paths.output_dir", "output")
	v.SetDefault("paths.templates_dir", "templates")
	v.SetDefault("paths.resources_dir", "resources")

	v.SetDefault("layouts.file", "")

	v.SetDefault("converter.kind", ConverterSoffice)
	v.SetDefault("converter.timeout", 120*time.Second)
	v.SetDefault("converter.attempts", 3)
	v.SetDefault("converter.chrome_path", "")
	v.SetDefault("converter.paper_width", 8.5)
	v.SetDefault("converter.paper_height", 11.0)

	v.SetDefault("matcher.threshold", 80)
	v.SetDefault("matcher.normalize", false)

	v.SetDefault("survey.marker", "VIA Character Strengths Profile")
	v.SetDefault("survey.slots", 24)
	v.SetDefault("survey.cache_size", 128)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks value ranges that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Matcher.Threshold < 0 || c.Matcher.Threshold > 100 {
		return fmt.Errorf("matcher.threshold must be within 0..100, got %d", c.Matcher.Threshold)
	}
	if c.Survey.Slots <= 0 {
		return fmt.Errorf("survey.slots must be positive, got %d", c.Survey.Slots)
	}
	if strings.TrimSpace(c.Survey.Marker) == "" {
		return errors.New("survey.marker is required")
	}
	if c.Converter.Attempts < 1 {
		return fmt.Errorf("converter.attempts must be at least 1, got %d", c.Converter.Attempts)
	}
	switch c.Converter.Kind {
	case ConverterSoffice, ConverterChromedp:
	default:
		return fmt.Errorf("unknown converter.kind %q", c.Converter.Kind)
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir is required")
	}
	return nil
}

// loadEnvFile loads the first .env found in the working directory or the
// module root. A missing file is not an error.
func loadEnvFile() {
	candidates := []string{".env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
