package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override, e.g. BURROW_SPLIT_VIEW.
const EnvPrefix = "BURROW_"

// Load reads the config at path over the defaults and applies
// environment overrides. An empty path means DefaultPath; a missing file
// just yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	env, err := EnvOverrides(os.Environ())
	if err != nil {
		return nil, err
	}
	cfg, err := Merge(Default(), file, env)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ReadFile decodes the file at path by its extension. A missing file
// returns nil, nil.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Decode(path, data)
}

// Decode parses data as YAML or TOML, chosen by path's extension.
func Decode(path string, data []byte) (map[string]any, error) {
	out := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	case ".toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			perr := &ParseError{Path: path, Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, _ = derr.Position()
			}
			return nil, perr
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return out, nil
}

// EnvOverrides collects BURROW_* variables naming a setting. The value is
// converted to the setting's type; lists and maps are JSON.
func EnvOverrides(environ []string) (map[string]any, error) {
	kinds := settingKinds()
	out := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		setting := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		kind, known := kinds[setting]
		if !known {
			continue
		}
		v, err := parseValue(kind, value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[setting] = v
	}
	return out, nil
}

var durationType = reflect.TypeOf(Duration(0))

// settingKinds maps each top-level setting to its Go type.
func settingKinds() map[string]reflect.Type {
	t := reflect.TypeOf(Config{})
	out := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if tag, _, _ := strings.Cut(f.Tag.Get("yaml"), ","); tag != "" && tag != "-" {
			out[tag] = f.Type
		}
	}
	return out
}

func parseValue(t reflect.Type, s string) (any, error) {
	if t == durationType {
		return s, nil
	}
	switch t.Kind() {
	case reflect.String:
		return s, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		return b, err
	case reflect.Int, reflect.Int64:
		n, err := strconv.Atoi(s)
		return n, err
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("expected JSON: %w", err)
	}
	return v, nil
}

// Merge overlays layers, lowest first, onto base and decodes the result
// into a new Config. Maps merge key by key; any other value replaces the
// one below. Unknown settings are ignored.
func Merge(base *Config, layers ...map[string]any) (*Config, error) {
	data, err := yaml.Marshal(base)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any)
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for _, l := range layers {
		mergeInto(merged, l)
	}

	data, err = yaml.Marshal(merged)
	if err != nil {
		return nil, err
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		sm, srcIsMap := v.(map[string]any)
		dm, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeInto(dm, sm)
			continue
		}
		dst[k] = v
	}
}
