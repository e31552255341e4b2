package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	DefaultFile = "ybus.toml"
	EnvPrefix   = "YBUS_"
)

// Config holds the settings of one ybus run.
type Config struct {
	Case      string `koanf:"case"`
	Format    string `koanf:"format"`
	Precision int    `koanf:"precision"`
	Verbosity string `koanf:"verbosity"`
	JSONLog   bool   `koanf:"json_log"`
	Serve     bool   `koanf:"serve"`
	Port      int    `koanf:"port"`
	Watch     bool   `koanf:"watch"`
}

// Flags registers the command-line flags Load understands.
func Flags(f *pflag.FlagSet) {
	f.String("config", DefaultFile, "configuration file")
	f.String("format", "table", "output format: table or json")
	f.Int("precision", 4, "decimals printed per matrix entry")
	f.StringP("verbosity", "v", "info", "log level: trace, debug, info, warn, error")
	f.Bool("json-log", false, "log as JSON")
	f.Bool("serve", false, "serve the admittance matrix over HTTP")
	f.Int("port", 8080, "HTTP port for --serve")
	f.Bool("watch", false, "rebuild when the case file changes")
}

// Load merges, lowest priority first: defaults, the TOML config file, YBUS_*
// environment variables and flags.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"case":      "",
		"format":    "table",
		"precision": 4,
		"verbosity": "info",
		"json_log":  false,
		"serve":     false,
		"port":      8080,
		"watch":     false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := DefaultFile
	if f != nil {
		if fl := f.Lookup("config"); fl != nil {
			path = fl.Value.String()
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// YBUS_PRECISION=6, YBUS_JSON_LOG=true
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		// flag names use dashes, keys use underscores
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			if fl.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(fl.Name, "-", "_"), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Format {
	case "table", "json":
	default:
		return fmt.Errorf("invalid format %q: want table or json", c.Format)
	}
	if c.Precision < 0 || c.Precision > 17 {
		return fmt.Errorf("invalid precision %d: want 0..17", c.Precision)
	}
	if c.Serve && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
