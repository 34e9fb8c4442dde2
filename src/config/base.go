package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is a named-settings lookup such as the settings table or a file.
type Source interface {
	Lookup(name string) (string, bool)
}

// Settings resolves a value from its sources in order, then the
// environment, then a default. Empty values count as unset.
type Settings struct {
	sources []Source
}

// NewSettings layers sources; earlier sources win.
func NewSettings(sources ...Source) *Settings {
	out := &Settings{}
	for _, s := range sources {
		if s != nil {
			out.sources = append(out.sources, s)
		}
	}
	return out
}

// GetSetting retrieves a setting with env fallback.
func (s *Settings) GetSetting(name, envKey, defaultValue string) string {
	if val := s.lookup(name); val != "" {
		return val
	}
	if envKey != "" {
		if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
			return val
		}
	}
	return defaultValue
}

func (s *Settings) lookup(name string) string {
	if s == nil {
		return ""
	}
	for _, src := range s.sources {
		if v, ok := src.Lookup(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func (s *Settings) getBoolSetting(name, envKey string, defaultValue bool) bool {
	return parseBoolDefault(s.GetSetting(name, envKey, ""), defaultValue)
}

func (s *Settings) getIntSetting(name, envKey string, defaultValue int) int {
	v := s.GetSetting(name, envKey, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// FileSource is a flat YAML mapping of setting names to scalar values.
type FileSource map[string]string

// LoadFile reads a FileSource from path.
func LoadFile(path string) (FileSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(raw)
}

// ParseFile decodes YAML settings. Nested mappings are rejected.
func ParseFile(raw []byte) (FileSource, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parse settings file: %w", err)
	}
	out := make(FileSource, len(doc))
	for k, v := range doc {
		switch tv := v.(type) {
		case nil:
			continue
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("config: setting %q must be a scalar", k)
		default:
			out[k] = fmt.Sprint(tv)
		}
	}
	return out, nil
}

func (f FileSource) Lookup(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}
