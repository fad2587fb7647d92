// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "MD2DOCX"

// Config holds the application configuration.
type Config struct {
	Output struct {
		Dir   string `mapstructure:"dir" json:"dir" yaml:"dir"`
		Color bool   `mapstructure:"color" json:"color" yaml:"color"`
	} `mapstructure:"output" json:"output" yaml:"output"`
	Watch struct {
		Debounce   int      `mapstructure:"debounce" json:"debounce" yaml:"debounce"`
		Recursive  bool     `mapstructure:"recursive" json:"recursive" yaml:"recursive"`
		Extensions []string `mapstructure:"extensions" json:"extensions" yaml:"extensions"`
	} `mapstructure:"watch" json:"watch" yaml:"watch"`
}

// Issue is a validation finding.
type Issue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

var configFile string

// SetFile makes Load read an explicit config file instead of
// ~/.md2docx/config.yaml.
func SetFile(path string) {
	configFile = path
}

// Load reads the configuration from ~/.md2docx/config.yaml and environment
// variables. A missing file is not an error.
func Load() (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(Dir())
	}

	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("could not read config %s: %w", ConfigPath(), err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Kind is the value type of a setting.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	default:
		return "string"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Key describes one setting.
type Key struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Default any    `json:"default"`
	Usage   string `json:"usage"`
}

var keys = []Key{
	{"output.dir", KindString, "", "Directory for converted files; empty writes beside the input"},
	{"output.color", KindBool, true, "Colorize terminal output"},
	{"watch.debounce", KindInt, 500, "Milliseconds a file must be quiet before it is converted"},
	{"watch.recursive", KindBool, false, "Watch subdirectories"},
	{"watch.extensions", KindList, []string{".md", ".markdown"}, "Extensions the watcher converts"},
}

// Keys returns every known setting in display order.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

func lookup(name string) (Key, bool) {
	for _, k := range keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

func setDefaults() {
	for _, k := range keys {
		viper.SetDefault(k.Name, k.Default)
	}
}

// Dir returns the directory holding the config file and watcher state.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".md2docx"
	}
	return filepath.Join(home, ".md2docx")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Set parses value according to the key's kind, stores it and saves the
// config file. Unknown keys are rejected.
func Set(name, value string) error {
	k, ok := lookup(name)
	if !ok {
		return fmt.Errorf("unknown config key %q", name)
	}

	var v any
	switch k.Kind {
	case KindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects a bool, got %q", name, value)
		}
		v = b
	case KindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s expects an integer, got %q", name, value)
		}
		v = n
	case KindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		v = items
	default:
		v = value
	}

	viper.Set(name, v)
	return SaveConfig()
}

// Get returns a setting formatted for display. Lists are comma-joined.
func Get(name string) string {
	if k, ok := lookup(name); ok && k.Kind == KindList {
		return strings.Join(viper.GetStringSlice(name), ",")
	}
	return viper.GetString(name)
}

// Settings returns every known setting as a nested map.
func Settings() map[string]any {
	return viper.AllSettings()
}

// SaveConfig writes the current config to ConfigPath.
func SaveConfig() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	os.Chmod(path, 0600)
	return nil
}

// ResetConfig deletes the config file and restores the defaults.
func ResetConfig() error {
	if err := os.Remove(ConfigPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for _, k := range keys {
		viper.Set(k.Name, k.Default)
	}
	return nil
}

// Validate checks the loaded settings for values the converter cannot use.
func Validate() []Issue {
	var issues []Issue

	if dir := viper.GetString("output.dir"); dir != "" {
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			issues = append(issues, Issue{
				Key:      "output.dir",
				Severity: "warning",
				Message:  fmt.Sprintf("output directory %s does not exist", dir),
				Fix:      "mkdir -p " + dir,
			})
		case !info.IsDir():
			issues = append(issues, Issue{
				Key:      "output.dir",
				Severity: "error",
				Message:  fmt.Sprintf("output.dir %s is not a directory", dir),
				Fix:      "md2docx config set output.dir <directory>",
			})
		}
	}

	if viper.GetInt("watch.debounce") <= 0 {
		issues = append(issues, Issue{
			Key:      "watch.debounce",
			Severity: "error",
			Message:  "watch.debounce must be a positive number of milliseconds",
			Fix:      "md2docx config set watch.debounce 500",
		})
	}

	for _, ext := range viper.GetStringSlice("watch.extensions") {
		if !strings.HasPrefix(ext, ".") {
			issues = append(issues, Issue{
				Key:      "watch.extensions",
				Severity: "info",
				Message:  fmt.Sprintf("extension %q has no leading dot; it is matched as %q", ext, "."+ext),
			})
		}
	}

	return issues
}

// ToEnv returns the known settings as MD2DOCX_* environment variables.
func ToEnv() map[string]string {
	env := make(map[string]string, len(keys))
	for _, k := range keys {
		name := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(k.Name, ".", "_"))
		env[name] = Get(k.Name)
	}
	return env
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sb.WriteString("Output\n")
	dir := viper.GetString("output.dir")
	if dir == "" {
		dir = "(beside input)"
	}
	sb.WriteString(fmt.Sprintf("  dir:        %s\n", dir))
	sb.WriteString(fmt.Sprintf("  color:      %v\n", viper.GetBool("output.color")))
	sb.WriteString("\n")

	sb.WriteString("Watch\n")
	sb.WriteString(fmt.Sprintf("  debounce:   %dms\n", viper.GetInt("watch.debounce")))
	sb.WriteString(fmt.Sprintf("  recursive:  %v\n", viper.GetBool("watch.recursive")))
	exts := viper.GetStringSlice("watch.extensions")
	sort.Strings(exts)
	sb.WriteString(fmt.Sprintf("  extensions: %s\n", strings.Join(exts, ", ")))

	return sb.String()
}
