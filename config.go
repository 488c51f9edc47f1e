package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aktagon/newsletter-wrapper/internal/enrich"
	"github.com/aktagon/newsletter-wrapper/internal/links"
	"github.com/aktagon/newsletter-wrapper/internal/logger"
	"github.com/aktagon/newsletter-wrapper/internal/store"
	"github.com/aktagon/newsletter-wrapper/internal/wrapper"
)

const defaultConfigDir = ".newsletter-wrapper/"

//go:embed config/settings.yaml
var defaultSettings string

// ConfigOverrides holds file path overrides for embedded configurations
type ConfigOverrides struct {
	TemplatePath *string
	SettingsPath *string
}

// Settings represents the YAML configuration structure
type Settings struct {
	OutputDirectory string   `yaml:"output_directory"`
	IndexPath       string   `yaml:"index_path"`
	SeedSender      string   `yaml:"seed_sender"`
	AllowedSenders  []string `yaml:"allowed_senders"`
	Summarizer      string   `yaml:"summarizer"`
	Perplexity      struct {
		Model string `yaml:"model"`
	} `yaml:"perplexity"`
	Claude struct {
		Model string `yaml:"model"`
	} `yaml:"claude"`
	Enrichment EnrichmentSettings `yaml:"enrichment"`
	Classifier struct {
		SkipDomains      []string `yaml:"skip_domains"`
		TrackingDomains  []string `yaml:"tracking_domains"`
		PaywalledDomains []string `yaml:"paywalled_domains"`
	} `yaml:"classifier"`
	Logging logger.Config `yaml:"logging"`
}

// EnrichmentSettings tunes the link enrichment fan-out
type EnrichmentSettings struct {
	Workers           int           `yaml:"workers"`
	SummaryLimit      int           `yaml:"summary_limit"`
	RequestsPerWorker int           `yaml:"requests_per_worker"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	CoverImageSamples int           `yaml:"cover_image_samples"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	MaxHops           int           `yaml:"max_hops"`
}

// loadCredentials reads API keys from the environment, after loading .env if present
func loadCredentials() wrapper.Credentials {
	_ = godotenv.Load()
	return wrapper.Credentials{
		PerplexityAPIKey: os.Getenv("PERPLEXITY_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
	}
}

// defaultSettingsValue returns the embedded settings, used when no settings file exists
func defaultSettingsValue() *Settings {
	var settings Settings
	if err := yaml.Unmarshal([]byte(defaultSettings), &settings); err != nil {
		panic(fmt.Sprintf("embedded settings.yaml is invalid: %v", err))
	}
	return &settings
}

// loadSettings loads settings from YAML file with fallback to defaults
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return defaultSettingsValue(), nil
	}

	settings := defaultSettingsValue()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", settingsPath, err)
	}
	return settings, nil
}

// loadSettingsRequired loads settings from YAML file, failing if file doesn't exist
func loadSettingsRequired(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, err
	}

	settings := defaultSettingsValue()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", settingsPath, err)
	}
	return settings, nil
}

// ensureConfigExists creates config directory and writes settings.yaml if needed
func ensureConfigExists(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write settings.yaml - this should be customized by users
	settingsFile := filepath.Join(configDir, "settings.yaml")
	if _, err := os.Stat(settingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(settingsFile, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("writing settings.yaml: %w", err)
		}
	}
	return nil
}

// resolveSettings loads the overridden settings file, or the default one under configDir
func resolveSettings(configDir string, overrides *ConfigOverrides) (*Settings, error) {
	if overrides != nil && overrides.SettingsPath != nil {
		// Explicit settings file must exist
		settings, err := loadSettingsRequired(*overrides.SettingsPath)
		if err != nil {
			return nil, fmt.Errorf("settings file %s: %w", *overrides.SettingsPath, err)
		}
		return settings, nil
	}

	if err := ensureConfigExists(configDir); err != nil {
		return nil, fmt.Errorf("ensuring config files exist: %w", err)
	}
	return loadSettings(filepath.Join(configDir, "settings.yaml"))
}

// loadTemplate returns the page template (from override file or embedded)
func loadTemplate(overrides *ConfigOverrides) (string, error) {
	if overrides != nil && overrides.TemplatePath != nil {
		data, err := os.ReadFile(*overrides.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("template file %s: %w", *overrides.TemplatePath, err)
		}
		return string(data), nil
	}
	return store.DefaultTemplate, nil
}

// EnrichOptions converts the enrichment settings
func (s *Settings) EnrichOptions() enrich.Options {
	e := s.Enrichment
	return enrich.Options{
		Workers:           e.Workers,
		SummaryLimit:      e.SummaryLimit,
		RequestsPerWorker: e.RequestsPerWorker,
		RequestsPerSecond: e.RequestsPerSecond,
		CoverImageSamples: e.CoverImageSamples,
		HTTPTimeout:       e.HTTPTimeout,
		MaxHops:           e.MaxHops,
	}
}

// LinkClassifier returns the default classifier extended with the configured domains
func (s *Settings) LinkClassifier() *links.Classifier {
	c := links.DefaultClassifier()
	c.SkipDomains = append(c.SkipDomains, s.Classifier.SkipDomains...)
	c.TrackingDomains = append(c.TrackingDomains, s.Classifier.TrackingDomains...)
	c.PaywalledDomains = append(c.PaywalledDomains, s.Classifier.PaywalledDomains...)
	return c
}
