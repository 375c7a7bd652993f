package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// File is an optional TOML file whose keys are flag names. Flags set on the
// command line or through environment variables take precedence.
type File struct {
	path string
}

// Flags returns CLI flags for configuration file loading
func (f *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a TOML configuration file",
			Sources:     cli.EnvVars("ECHO_NOTES_CONFIG"),
			Destination: &f.path,
		},
	}
}

// Path returns the configured file path
func (f *File) Path() string {
	return f.path
}

// LoadFile reads a TOML file into flag values. Nested tables are flattened with
// "-" so that [whisper] local-model = "small" maps to --whisper-local-model.
func LoadFile(path string) (map[string]string, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()))
	}

	values := make(map[string]string)
	flatten("", raw, values)
	return values, nil
}

func flatten(prefix string, raw map[string]any, out map[string]string) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "-" + k
		}

		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any:
			items := make([]string, len(val))
			for i, item := range val {
				items[i] = fmt.Sprint(item)
			}
			out[key] = strings.Join(items, ",")
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Apply loads the configured file, if any, into cmd for every flag not already set
func (f *File) Apply(cmd *cli.Command) error {
	if f.path == "" {
		return nil
	}

	values, err := LoadFile(f.path)
	if err != nil {
		return err
	}

	known := make(map[string]bool)
	for _, flag := range cmd.Flags {
		for _, name := range flag.Names() {
			known[name] = true
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !known[key] {
			return goerr.Wrap(ErrUnknownConfigKey, "config file has an unknown key",
				goerr.V(ConfigPathKey, f.path),
				goerr.V(ConfigKeyKey, key))
		}
		if cmd.IsSet(key) {
			continue
		}
		if err := cmd.Set(key, values[key]); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid config value",
				goerr.V(ConfigPathKey, f.path),
				goerr.V(ConfigKeyKey, key),
				goerr.V("cause", err.Error()))
		}
	}

	return nil
}
