package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the conversion settings. All fields have working defaults so a
// missing config file is not an error; CLI flags override file values.
type Config struct {
	// Input is a screenshot file, a directory of screenshots, or a
	// gs://bucket/prefix URI.
	Input string `yaml:"input"`

	// Output is the ledger CSV path, rewritten in full on every run.
	Output string `yaml:"output"`

	// Year completes the partial dates shown in the app ("Wed, Sep 3").
	Year int `yaml:"year"`

	// Timezone is the IANA zone the screenshot times are displayed in.
	Timezone string `yaml:"timezone"`

	OCR struct {
		// Model is the Gemini model used for token recognition.
		Model string `yaml:"model"`

		// MinConfidence drops recognized tokens below this confidence
		// before line grouping; they are almost always noise.
		MinConfidence float64 `yaml:"min_confidence"`

		// MinMerchantConfidence is the floor for merchant-name tokens.
		// Lower than usual so partially garbled but readable names survive.
		MinMerchantConfidence float64 `yaml:"min_merchant_confidence"`

		// MinTimeConfidence is the floor for time tokens. Slightly below
		// 0.2 to absorb floating-point wobble in reported confidences.
		MinTimeConfidence float64 `yaml:"min_time_confidence"`
	} `yaml:"ocr"`
}

// Default returns a Config populated with the defaults used when no config
// file is supplied.
func Default() *Config {
	cfg := &Config{
		Input:    "data",
		Output:   "redotpay.csv",
		Year:     2025,
		Timezone: "Asia/Jerusalem",
	}
	cfg.OCR.Model = "gemini-2.5-flash"
	cfg.OCR.MinConfidence = 0.10
	cfg.OCR.MinMerchantConfidence = 0.15
	cfg.OCR.MinTimeConfidence = 0.19
	return cfg
}

// Load reads a YAML config file and merges it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: reading config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("Load: parsing config %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields a run cannot proceed without.
func (c *Config) Validate() error {
	if c.Year < 2000 || c.Year > 2200 {
		return fmt.Errorf("invalid year %d", c.Year)
	}
	if c.Timezone == "" {
		return fmt.Errorf("timezone must not be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.OCR.Model == "" {
		return fmt.Errorf("ocr.model must not be empty")
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence >= 1 {
		return fmt.Errorf("ocr.min_confidence %v out of range [0,1)", c.OCR.MinConfidence)
	}
	return nil
}

// Location resolves the configured timezone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
