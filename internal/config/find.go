package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var configFilenames = []string{
	"config.yaml",
	"config.yml",
	"config.toml",
	"config.json",
}

// Find locates the config file: explicitPath if set, otherwise the first
// config.{yaml,yml,toml,json} under $XDG_CONFIG_HOME/color-picker-mcp
// (or ~/.config/color-picker-mcp). It returns "" when there is none.
func Find(explicitPath, xdgHome, home string) (string, error) {
	if explicit := strings.TrimSpace(explicitPath); explicit != "" {
		candidate, err := filepath.Abs(explicit)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(candidate)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", fmt.Errorf("config path %q points to a directory", candidate)
		}
		return candidate, nil
	}

	root := strings.TrimSpace(xdgHome)
	if root == "" {
		homeDir := strings.TrimSpace(home)
		if homeDir == "" {
			if h, err := os.UserHomeDir(); err == nil {
				homeDir = h
			}
		}
		if homeDir == "" {
			return "", nil
		}
		root = filepath.Join(homeDir, ".config")
	}
	for _, name := range configFilenames {
		candidate := filepath.Join(root, "color-picker-mcp", name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}
