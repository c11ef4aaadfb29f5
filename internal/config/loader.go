package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// sections lists the keys accepted in each table, with their aliases.
var sections = map[string]map[string]string{
	"viewport": {
		"width":  "width",
		"height": "height",
	},
	"images": {
		"load_timeout":    "load_timeout",
		"timeout":         "load_timeout",
		"deny_hosts":      "deny_hosts",
		"deny":            "deny_hosts",
		"trusted_origins": "trusted_origins",
		"concurrency":     "concurrency",
		"jobs":            "concurrency",
	},
	"sampling": {
		"background_images": "background_images",
		"backgrounds":       "background_images",
		"native":            "native",
	},
	"browser": {
		"exec_path": "exec_path",
		"path":      "exec_path",
		"headless":  "headless",
	},
}

// Load reads a config file. The format follows the extension: .yaml/.yml,
// .toml or .json. An empty path yields an empty Config.
func Load(path string) (Config, error) {
	var cfg Config
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var raw map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if decodeErr := yaml.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".toml":
		if decodeErr := toml.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".json":
		if decodeErr := json.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if raw == nil {
		return cfg, nil
	}
	decoded, err := decodeConfigMap(raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return decoded, nil
}

func decodeConfigMap(raw map[string]any) (Config, error) {
	var cfg Config
	for key, block := range raw {
		name := normalizeKey(key)
		allowed, ok := sections[name]
		if !ok {
			return cfg, fmt.Errorf("unknown config key: %s", key)
		}
		sub, err := toStringKeyMap(block)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", name, err)
		}
		for k, value := range sub {
			canonical, ok := allowed[normalizeKey(k)]
			if !ok {
				return cfg, fmt.Errorf("unknown %s key: %s", name, k)
			}
			if err := assign(&cfg, name, canonical, value); err != nil {
				return cfg, fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return cfg, nil
}

func assign(cfg *Config, section, key string, value any) error {
	switch section + "." + key {
	case "viewport.width":
		return setInt(&cfg.Viewport.Width, value, key)
	case "viewport.height":
		return setInt(&cfg.Viewport.Height, value, key)
	case "images.load_timeout":
		d, err := expectDuration(value, key)
		if err != nil {
			return err
		}
		cfg.Images.LoadTimeout = &d
	case "images.deny_hosts":
		return setList(&cfg.Images.DenyHosts, value, key)
	case "images.trusted_origins":
		return setList(&cfg.Images.TrustedOrigins, value, key)
	case "images.concurrency":
		return setInt(&cfg.Images.Concurrency, value, key)
	case "sampling.background_images":
		return setBool(&cfg.Sampling.BackgroundImages, value, key)
	case "sampling.native":
		return setBool(&cfg.Sampling.Native, value, key)
	case "browser.exec_path":
		s, err := expectString(value, key)
		if err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		cfg.Browser.ExecPath = &s
	case "browser.headless":
		return setBool(&cfg.Browser.Headless, value, key)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setInt(dst **int, value any, field string) error {
	n, err := expectInt(value, field)
	if err != nil {
		return err
	}
	*dst = &n
	return nil
}

func setBool(dst **bool, value any, field string) error {
	b, err := expectBool(value, field)
	if err != nil {
		return err
	}
	*dst = &b
	return nil
}

func setList(dst **[]string, value any, field string) error {
	list, err := expectStringList(value, field)
	if err != nil {
		return err
	}
	*dst = &list
	return nil
}

func expectString(value any, field string) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%s cannot be null", field)
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string for %s, got %T", field, value)
}

func expectBool(value any, field string) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return parseBool(v, field)
	default:
		return false, fmt.Errorf("expected bool for %s, got %T", field, value)
	}
}

func expectInt(value any, field string) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected integer for %s, got %v", field, value)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s: %q", field, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer for %s, got %T", field, value)
	}
}

// expectDuration accepts a Go duration string or a number of milliseconds.
func expectDuration(value any, field string) (time.Duration, error) {
	if s, ok := value.(string); ok {
		return parseDuration(s, field)
	}
	ms, err := expectInt(value, field)
	if err != nil {
		return 0, fmt.Errorf("expected duration for %s, got %T", field, value)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func expectStringList(value any, field string) ([]string, error) {
	switch v := value.(type) {
	case string:
		return normalizeList(strings.Split(v, ",")), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, err := expectString(item, field)
			if err != nil {
				return nil, err
			}
			out = append(out, str)
		}
		return normalizeList(out), nil
	case []string:
		return normalizeList(v), nil
	default:
		return nil, fmt.Errorf("expected string or list for %s, got %T", field, value)
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func toStringKeyMap(v any) (map[string]any, error) {
	switch typed := v.(type) {
	case map[string]any:
		return typed, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, value := range typed {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key: %v", k)
			}
			out[key] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected table, got %T", v)
	}
}

func normalizeKey(key string) string {
	norm := strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(norm, "-", "_")
}

func parseBool(raw, field string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value for %s: %q", field, raw)
}

func parseDuration(raw, field string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if ms, err := strconv.Atoi(trimmed); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %q", field, raw)
	}
	return d, nil
}
