// Package config loads and validates the optional .stevedore YAML file.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/deixis/stevedore/internal/engine"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPort is used for remote targets that do not set one.
const DefaultPort = 22

var validate = validator.New()

func init() {
	// Registration only fails on a bad rule name, which is programmer error.
	if err := validate.RegisterValidation("targetname", validateTargetName); err != nil {
		panic(err)
	}
}

var targetNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateTargetName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name == "" || targetNameRe.MatchString(name)
}

// Config holds the parsed .stevedore configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version       int                     `yaml:"version"`
	DefaultTarget string                  `yaml:"default_target" validate:"targetname"`
	Targets       map[string]TargetConfig `yaml:"targets" validate:"dive"`
	Recipes       map[string][]string     `yaml:"recipes" validate:"dive,min=1,dive,required"`
	RawMaxOutput  int                     `yaml:"max_output" validate:"omitempty,min=1"` // bytes
}

// TargetConfig describes one named target. An empty host means the
// local machine; a set host selects a remote reached through ssh.
type TargetConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// Target converts the entry to an engine target, defaulting the port
// for remotes that leave it unset.
func (tc TargetConfig) Target() engine.Target {
	if tc.Host == "" {
		return engine.Target{}
	}
	port := tc.Port
	if port == 0 {
		port = DefaultPort
	}
	return engine.Target{Host: tc.Host, Port: port}
}

// MaxOutputBytes returns the configured output cap or the engine default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return engine.DefaultMaxOutput
}

// Resolve maps a target name to an engine target. The empty name
// resolves to the configured default target (or local when none is
// configured); "local" always resolves to the local machine; any other
// name must be configured, or be a literal "host:port".
func (c *Config) Resolve(name string) (engine.Target, error) {
	if name == "" {
		if c.DefaultTarget == "" {
			return engine.Target{}, nil
		}
		name = c.DefaultTarget
	}
	if name == "local" {
		return engine.Target{}, nil
	}
	if tc, ok := c.Targets[name]; ok {
		return tc.Target(), nil
	}
	if host, portText, err := net.SplitHostPort(name); err == nil {
		port, err := strconv.Atoi(portText)
		if err != nil || port < 1 || port > 65535 {
			return engine.Target{}, fmt.Errorf("invalid port in target %q", name)
		}
		return engine.Target{Host: host, Port: port}, nil
	}
	return engine.Target{}, fmt.Errorf("unknown target %q", name)
}

// Recipe returns the named command sequence.
func (c *Config) Recipe(name string) ([]string, error) {
	steps, ok := c.Recipes[name]
	if !ok {
		return nil, fmt.Errorf("unknown recipe %q", name)
	}
	return steps, nil
}

// Validate checks the configuration's structural constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// LoadResult holds the parsed config and the directory it was found in.
type LoadResult struct {
	Config *Config
	Root   string // directory containing .stevedore; falls back to workspace
}

// Load reads the .stevedore file, discovered by walking upward from
// workspace. A missing file yields a default configuration.
func Load(workspace string) (*LoadResult, error) {
	root, err := findConfigRoot(workspace)
	if err != nil {
		// No .stevedore found anywhere; defaults from the workspace.
		return &LoadResult{Config: &Config{}, Root: workspace}, nil
	}

	data, err := os.ReadFile(filepath.Join(root, ".stevedore"))
	if err != nil {
		return nil, fmt.Errorf("reading .stevedore: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing .stevedore: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid .stevedore: %w", err)
	}
	return &LoadResult{Config: cfg, Root: root}, nil
}

// findConfigRoot walks upward from dir looking for a directory
// containing a .stevedore file.
func findConfigRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".stevedore")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf(".stevedore not found")
		}
		dir = parent
	}
}
