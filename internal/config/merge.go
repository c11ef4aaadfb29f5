package config

import (
	"errors"
	"fmt"
	"os"
)

// Merge applies layers over base in order; later layers win.
func Merge(base Settings, layers ...Config) Settings {
	out := base
	for _, l := range layers {
		if l.Viewport.Width != nil {
			out.ViewportWidth = *l.Viewport.Width
		}
		if l.Viewport.Height != nil {
			out.ViewportHeight = *l.Viewport.Height
		}
		if l.Images.LoadTimeout != nil {
			out.LoadTimeout = *l.Images.LoadTimeout
		}
		if l.Images.DenyHosts != nil {
			out.DenyHosts = append([]string(nil), *l.Images.DenyHosts...)
		}
		if l.Images.TrustedOrigins != nil {
			out.TrustedOrigins = append([]string(nil), *l.Images.TrustedOrigins...)
		}
		if l.Images.Concurrency != nil {
			out.Concurrency = *l.Images.Concurrency
		}
		if l.Sampling.BackgroundImages != nil {
			out.BackgroundImages = *l.Sampling.BackgroundImages
		}
		if l.Sampling.Native != nil {
			out.Native = *l.Sampling.Native
		}
		if l.Browser.ExecPath != nil {
			out.BrowserExecPath = *l.Browser.ExecPath
		}
		if l.Browser.Headless != nil {
			out.Headless = *l.Browser.Headless
		}
	}
	return out
}

// Validate reports every setting out of range.
func Validate(s Settings) error {
	var errs []error
	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		errs = append(errs, fmt.Errorf("viewport must be positive, got %dx%d", s.ViewportWidth, s.ViewportHeight))
	}
	if s.LoadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("images.load_timeout must be positive, got %s", s.LoadTimeout))
	}
	if s.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("images.concurrency cannot be negative, got %d", s.Concurrency))
	}
	return errors.Join(errs...)
}

// Resolve produces the effective settings: defaults, then the config file
// (explicitPath, COLOR_PICKER_CONFIG or the user config directory), then
// the environment. It returns the file used, if any.
func Resolve(explicitPath string, getenv func(string) string) (Settings, string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if explicitPath == "" {
		explicitPath = getenv(EnvConfig)
	}
	path, err := Find(explicitPath, getenv("XDG_CONFIG_HOME"), getenv("HOME"))
	if err != nil {
		return Settings{}, "", err
	}
	fileCfg, err := Load(path)
	if err != nil {
		return Settings{}, path, err
	}
	envCfg, err := FromEnv(getenv)
	if err != nil {
		return Settings{}, path, err
	}
	s := Merge(Defaults(), fileCfg, envCfg)
	if err := Validate(s); err != nil {
		return Settings{}, path, err
	}
	return s, path, nil
}
