// Package config loads and saves the pwctl settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the settings file inside the home directory.
const FileName = "config.yaml"

// EnvHome overrides the home directory.
const EnvHome = "PWCTL_HOME"

// DefaultHomeDir is the home directory name under the user's home.
const DefaultHomeDir = ".pwctl"

// Backends
const (
	BackendSevenZip = "7z"
	BackendVault    = "vault"
)

// Defaults
const (
	DefaultSevenZip               = "7z"
	DefaultLoggingLevel           = "WARNING"
	DefaultPvaultDir              = "pvault"
	DefaultHiddenColourVisibility = 0.6
	DefaultSelection              = "clipboard"
	DefaultGeneratedLength        = 15
	DefaultTimeout                = 5 * time.Second
)

// Errors
var (
	ErrInsecure       = errors.New("config: settings file is writable by other users")
	ErrSymlink        = errors.New("config: settings file is a symlink")
	ErrNotOwnedByUser = errors.New("config: settings file not owned by current user")
	ErrInvalidValue   = errors.New("config: invalid value")
	ErrNoArchive      = errors.New("config: no archive configured, run 'pwctl set-archive <name>' or 'pwctl new-archive <name>'")
)

// Switch is a boolean accepting on/off as well as true/false.
type Switch bool

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Switch) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected on or off", ErrInvalidValue, node.Line)
	}
	switch strings.ToLower(node.Value) {
	case "on", "true", "yes":
		*s = true
	case "off", "false", "no":
		*s = false
	default:
		return fmt.Errorf("%w: line %d: %q is not on or off", ErrInvalidValue, node.Line, node.Value)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Switch) MarshalYAML() (interface{}, error) {
	if s {
		return "on", nil
	}
	return "off", nil
}

// Config holds the settings.
type Config struct {
	ArchiveName             string        `yaml:"archive_name"`
	Backend                 string        `yaml:"backend"`
	SevenZip                string        `yaml:"7z_application"`
	AlwaysPrint             Switch        `yaml:"always_print"`
	CopyToSelection         Switch        `yaml:"copy_to_selection"`
	LoggingLevel            string        `yaml:"logging_level"`
	PvaultDir               string        `yaml:"pvault_dir"`
	HiddenColourVisibility  float64       `yaml:"hidden_colour_visibility"`
	Selection               string        `yaml:"selection"`
	GeneratedPasswordLength int           `yaml:"generated_password_length"`
	CheckNewPassword        Switch        `yaml:"check_new_password"`
	Timeout                 time.Duration `yaml:"timeout"`

	home string
}

// Default returns the default settings rooted at home.
func Default(home string) *Config {
	return &Config{
		Backend:                 BackendSevenZip,
		SevenZip:                DefaultSevenZip,
		AlwaysPrint:             false,
		CopyToSelection:         true,
		LoggingLevel:            DefaultLoggingLevel,
		PvaultDir:               DefaultPvaultDir,
		HiddenColourVisibility:  DefaultHiddenColourVisibility,
		Selection:               DefaultSelection,
		GeneratedPasswordLength: DefaultGeneratedLength,
		CheckNewPassword:        true,
		Timeout:                 DefaultTimeout,
		home:                    home,
	}
}

// ResolveHome picks the home directory: flag, then $PWCTL_HOME, then
// ~/.pwctl.
func ResolveHome(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(EnvHome); env != "" {
		return env, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: failed to get home directory: %w", err)
	}
	return filepath.Join(userHome, DefaultHomeDir), nil
}

// Path returns the settings file path for home.
func Path(home string) string {
	return filepath.Join(home, FileName)
}

// Load reads the settings file in home. A missing file yields the defaults;
// keys absent from the file keep their default values.
func Load(home string) (*Config, error) {
	cfg := Default(home)
	path := Path(home)

	// 1. Open without following symlinks
	f, err := openConfigFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// 2. Check permissions and ownership on the open descriptor
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("config: failed to stat settings file: %w", err)
	}
	if err := checkFilePermissions(path, info); err != nil {
		return nil, err
	}

	// 3. Parse
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no command could work with. Soft problems such
// as an unknown selection or logging level are left to their consumers,
// which warn and fall back.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSevenZip, BackendVault:
	default:
		return fmt.Errorf("%w: backend %q (want %s or %s)", ErrInvalidValue, c.Backend, BackendSevenZip, BackendVault)
	}
	if strings.ContainsAny(c.ArchiveName, `/\`) {
		return fmt.Errorf("%w: archive_name %q must be a plain file name", ErrInvalidValue, c.ArchiveName)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout %s is negative", ErrInvalidValue, c.Timeout)
	}
	return nil
}

// Save writes the settings file atomically with mode 0600.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.home, 0700); err != nil {
		return fmt.Errorf("config: failed to create home directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: failed to encode settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: failed to encode settings: %w", err)
	}

	path := Path(c.home)
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("config: failed to set permissions on %s: %w", path, err)
	}
	return nil
}

// Home returns the home directory the settings belong to.
func (c *Config) Home() string {
	return c.home
}

// VaultDir returns the directory holding the containers.
func (c *Config) VaultDir() string {
	if filepath.IsAbs(c.PvaultDir) {
		return c.PvaultDir
	}
	return filepath.Join(c.home, c.PvaultDir)
}

// ArchivePath returns the path of the configured container.
func (c *Config) ArchivePath() (string, error) {
	if c.ArchiveName == "" {
		return "", ErrNoArchive
	}
	return c.ContainerPath(c.ArchiveName), nil
}

// ContainerPath returns the path of the container called name.
func (c *Config) ContainerPath(name string) string {
	return filepath.Join(c.VaultDir(), name)
}
