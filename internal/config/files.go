package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
)

// EnvPrefix is prepended to every key read from an env file.
const EnvPrefix = "AIDER_"

// LoadOptionsFile reads a YAML or JSON mapping of aider option names to values.
func LoadOptionsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError(path, err)
	}

	out := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	case ".json":
		err = json.Unmarshal(data, &out)
	default:
		return nil, core.ErrConfiguration(core.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported options file format %q (use .yaml, .yml or .json)", ext)).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, core.ErrConfiguration(core.CodeParseFailed,
			fmt.Sprintf("parsing options file %s", path)).WithCause(err)
	}
	return out, nil
}

// LoadEnvFile reads KEY=value lines and returns them as AIDER_KEY=value.
// A missing file yields an empty map.
func LoadEnvFile(path string) (map[string]string, error) {
	out := map[string]string{}
	if path == "" {
		return out, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, core.ErrConfiguration(core.CodeParseFailed,
			fmt.Sprintf("reading env file %s", path)).WithCause(err)
	}
	for _, key := range v.AllKeys() {
		out[EnvPrefix+strings.ToUpper(key)] = v.GetString(key)
	}
	return out, nil
}

// EnvList flattens an env map into sorted KEY=value entries.
func EnvList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

func fileError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return core.ErrFile(core.CodeFileNotFound, "file not found: "+path).WithCause(err)
	}
	return core.ErrFile(core.CodeFileAccess, "cannot read "+path).WithCause(err)
}
