package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Environment variables read by FromEnv.
const (
	EnvConfig           = "COLOR_PICKER_CONFIG"
	EnvLogLevel         = "COLOR_PICKER_LOG_LEVEL"
	EnvLoadTimeout      = "COLOR_PICKER_LOAD_TIMEOUT"
	EnvHeadless         = "COLOR_PICKER_HEADLESS"
	EnvNative           = "COLOR_PICKER_NATIVE"
	EnvBackgroundImages = "COLOR_PICKER_BACKGROUND_IMAGES"
	EnvBrowser          = "COLOR_PICKER_BROWSER"
	EnvViewport         = "COLOR_PICKER_VIEWPORT"
)

// FromEnv builds a Config layer from environment variables. getenv is
// usually os.Getenv. Every malformed variable is reported.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	var cfg Config
	var errs []error

	setBool := func(target **bool, key string) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		v, err := parseBool(raw, key)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*target = &v
	}

	if raw := strings.TrimSpace(getenv(EnvLoadTimeout)); raw != "" {
		d, err := parseDuration(raw, EnvLoadTimeout)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Images.LoadTimeout = &d
		}
	}
	if raw := strings.TrimSpace(getenv(EnvViewport)); raw != "" {
		w, h, err := parseViewport(raw)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Viewport.Width, cfg.Viewport.Height = &w, &h
		}
	}
	if raw := strings.TrimSpace(getenv(EnvBrowser)); raw != "" {
		cfg.Browser.ExecPath = &raw
	}
	setBool(&cfg.Browser.Headless, EnvHeadless)
	setBool(&cfg.Sampling.Native, EnvNative)
	setBool(&cfg.Sampling.BackgroundImages, EnvBackgroundImages)

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}

// parseViewport reads "WIDTHxHEIGHT".
func parseViewport(raw string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(raw), "x")
	if ok {
		w, werr := strconv.Atoi(strings.TrimSpace(ws))
		h, herr := strconv.Atoi(strings.TrimSpace(hs))
		if werr == nil && herr == nil {
			return w, h, nil
		}
	}
	return 0, 0, fmt.Errorf("invalid viewport for %s: %q (want WIDTHxHEIGHT)", EnvViewport, raw)
}
