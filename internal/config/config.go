// Package config handles input from etc/main.toml and the JSON environment override.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigJSON names the environment variable holding a JSON config override.
	EnvConfigJSON = "SEQVAULT_CONFIG_JSON"

	mainConfigFile = "main.toml"
	maskedValue    = "********"

	defaultShutDownTime       = 5
	defaultFilePath           = "./database/files"
	defaultPrincipalCacheSize = 1024
	defaultPrincipalCacheTTL  = time.Minute
	defaultSessionExpiry      = 24 * time.Hour
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var c Config

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, mainConfigFile))
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	if override := os.Getenv(EnvConfigJSON); override != "" {
		var err error
		if c, err = decodeAndMergeConfig(c, override); err != nil {
			return c, err
		}
	}

	if err := validate(&c); err != nil {
		return c, err
	}

	return c, nil
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfigJSON config as JSON String. Secrets are masked.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(masked(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigYAML config as YAML String. Secrets are masked.
func DumpConfigYAML(c *Config) (string, error) {
	out, err := yaml.Marshal(masked(c))
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return string(out), nil
}

func masked(c *Config) Config {
	out := *c
	if out.DB.Password != "" {
		out.DB.Password = maskedValue
	}

	if out.Security.IDSecret != "" {
		out.Security.IDSecret = maskedValue
	}

	return out
}

// validate checks the config and fills in defaults.
func validate(c *Config) error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	if c.DB.GormEngine == "" {
		c.DB.GormEngine = EngineSQLite
	}

	if c.DB.Name == "" {
		return errors.Wrap(ErrEmptyDBName, ErrInvalidConfig.Error())
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Dataset.FilePath == "" {
		c.Dataset.FilePath = defaultFilePath
	}

	if c.Dataset.PrincipalCacheSize <= 0 {
		c.Dataset.PrincipalCacheSize = defaultPrincipalCacheSize
	}

	if c.Dataset.PrincipalCacheTTL <= 0 {
		c.Dataset.PrincipalCacheTTL = defaultPrincipalCacheTTL
	}

	return nil
}
