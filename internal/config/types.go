// Package config loads color picker settings from a YAML, TOML or JSON
// file and from COLOR_PICKER_* environment variables, and merges them over
// the built-in defaults.
//
// Each source produces a Config whose nil fields mean "not set"; Merge
// applies them in order so later sources win.
package config

import (
	"time"

	"github.com/ironsheep/color-picker-mcp/internal/imaging"
)

type ViewportConfig struct {
	Width  *int `yaml:"width" toml:"width" json:"width"`
	Height *int `yaml:"height" toml:"height" json:"height"`
}

type ImagesConfig struct {
	LoadTimeout    *time.Duration `yaml:"load_timeout" toml:"load_timeout" json:"load_timeout"`
	DenyHosts      *[]string      `yaml:"deny_hosts" toml:"deny_hosts" json:"deny_hosts"`
	TrustedOrigins *[]string      `yaml:"trusted_origins" toml:"trusted_origins" json:"trusted_origins"`
	Concurrency    *int           `yaml:"concurrency" toml:"concurrency" json:"concurrency"`
}

type SamplingConfig struct {
	BackgroundImages *bool `yaml:"background_images" toml:"background_images" json:"background_images"`
	Native           *bool `yaml:"native" toml:"native" json:"native"`
}

type BrowserConfig struct {
	ExecPath *string `yaml:"exec_path" toml:"exec_path" json:"exec_path"`
	Headless *bool   `yaml:"headless" toml:"headless" json:"headless"`
}

// Config is one layer of settings. Nil fields are unset.
type Config struct {
	Viewport ViewportConfig `yaml:"viewport" toml:"viewport" json:"viewport"`
	Images   ImagesConfig   `yaml:"images" toml:"images" json:"images"`
	Sampling SamplingConfig `yaml:"sampling" toml:"sampling" json:"sampling"`
	Browser  BrowserConfig  `yaml:"browser" toml:"browser" json:"browser"`
}

// Settings is the effective configuration.
type Settings struct {
	ViewportWidth  int
	ViewportHeight int

	LoadTimeout    time.Duration
	DenyHosts      []string
	TrustedOrigins []string
	Concurrency    int

	BackgroundImages bool
	Native           bool

	BrowserExecPath string
	Headless        bool
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		ViewportWidth:    1280,
		ViewportHeight:   800,
		LoadTimeout:      imaging.DefaultLoadTimeout,
		DenyHosts:        append([]string(nil), imaging.DefaultDenyHosts...),
		Concurrency:      4,
		BackgroundImages: true,
		Native:           true,
		Headless:         true,
	}
}

// Policy returns the image source policy described by s.
func (s Settings) Policy() imaging.SourcePolicy {
	return imaging.SourcePolicy{
		DenyHosts:      append([]string(nil), s.DenyHosts...),
		TrustedOrigins: append([]string(nil), s.TrustedOrigins...),
	}
}
