package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	defaultRuntimeImage = "stackify/runtime:latest"
	defaultStopTimeout  = 10 * time.Second
	fileName            = "config.yaml"
)

type Config struct {
	// Home is the stackify data directory.
	Home         string
	DBPath       string
	BinDir       string
	AssetsDir    string
	DockerHost   string
	RuntimeImage string
	StopTimeout  time.Duration
	SentryDSN    string
	Debug        bool
}

// fileConfig is the on-disk shape of $STACKIFY_HOME/config.yaml.
type fileConfig struct {
	DockerHost   string `yaml:"docker_host"`
	RuntimeImage string `yaml:"runtime_image"`
	StopTimeout  string `yaml:"stop_timeout"`
	BinDir       string `yaml:"bin_dir"`
	AssetsDir    string `yaml:"assets_dir"`
	SentryDSN    string `yaml:"sentry_dsn"`
	Debug        bool   `yaml:"debug"`
}

// Load reads the configuration from the OS environment and filesystem.
func Load() (*Config, error) {
	return LoadFrom(afero.NewOsFs(), os.Getenv)
}

// LoadFrom resolves the configuration: STACKIFY_* variables win over the
// config file, which wins over defaults.
func LoadFrom(fs afero.Fs, getenv func(string) string) (*Config, error) {
	home := getenv("STACKIFY_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		home = filepath.Join(userHome, ".stackify")
	}

	cfg := &Config{
		Home:         home,
		DBPath:       filepath.Join(home, "stackify.db"),
		BinDir:       filepath.Join(home, "bin"),
		AssetsDir:    filepath.Join(home, "assets"),
		RuntimeImage: defaultRuntimeImage,
		StopTimeout:  defaultStopTimeout,
	}

	if err := cfg.applyFile(fs, filepath.Join(home, fileName)); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if fc.StopTimeout != "" {
		d, err := time.ParseDuration(fc.StopTimeout)
		if err != nil {
			return fmt.Errorf("parse %s: stop_timeout: %w", path, err)
		}
		c.StopTimeout = d
	}
	setIfNotEmpty(&c.DockerHost, fc.DockerHost)
	setIfNotEmpty(&c.RuntimeImage, fc.RuntimeImage)
	setIfNotEmpty(&c.BinDir, fc.BinDir)
	setIfNotEmpty(&c.AssetsDir, fc.AssetsDir)
	setIfNotEmpty(&c.SentryDSN, fc.SentryDSN)
	c.Debug = c.Debug || fc.Debug
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setIfNotEmpty(&c.DBPath, getenv("STACKIFY_DB"))
	setIfNotEmpty(&c.BinDir, getenv("STACKIFY_BIN_DIR"))
	setIfNotEmpty(&c.AssetsDir, getenv("STACKIFY_ASSETS_DIR"))
	setIfNotEmpty(&c.RuntimeImage, getenv("STACKIFY_RUNTIME_IMAGE"))
	setIfNotEmpty(&c.SentryDSN, getenv("STACKIFY_SENTRY_DSN"))
	setIfNotEmpty(&c.DockerHost, getenv("DOCKER_HOST"))
	setIfNotEmpty(&c.DockerHost, getenv("STACKIFY_DOCKER_HOST"))

	if v := getenv("STACKIFY_STOP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STACKIFY_STOP_TIMEOUT: %w", err)
		}
		c.StopTimeout = d
	}
	if v := getenv("STACKIFY_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STACKIFY_DEBUG: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
