package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yakwilikk/go-yamlls"
)

// configNames are looked up in the working directory, in order.
var configNames = []string{"yamlls.yaml", ".yamlls.yaml"}

type config struct {
	LogLevel slog.Level
	Settings yamlls.Settings
	File     string // config file read, if any
}

// newViper returns a viper instance with every default set, reading
// YAMLLS_* environment overrides ("yaml.validate" is YAMLLS_YAML_VALIDATE).
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("YAMLLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := yamlls.DefaultSettings()
	v.SetDefault("log.level", "info")
	v.SetDefault("yaml.validate", d.Validate)
	v.SetDefault("yaml.hover", d.Hover)
	v.SetDefault("yaml.completion", d.Completion)
	v.SetDefault("yaml.indentation", d.Indentation)
	v.SetDefault("yaml.kubernetes", []string{})
	v.SetDefault("yaml.workspaceRoot", "")
	return v
}

// loadConfig reads path, or the first config file found in the working
// directory. A missing default file is not an error.
func loadConfig(v *viper.Viper, path string) (*config, error) {
	if path == "" {
		for _, name := range configNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	settings, err := decodeSettings(v)
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	return &config{LogLevel: level, Settings: settings, File: path}, nil
}

// decodeSettings extracts the "yaml" section.
func decodeSettings(v *viper.Viper) (yamlls.Settings, error) {
	s := yamlls.Settings{
		Validate:      v.GetBool("yaml.validate"),
		Hover:         v.GetBool("yaml.hover"),
		Completion:    v.GetBool("yaml.completion"),
		Indentation:   v.GetString("yaml.indentation"),
		Kubernetes:    v.GetStringSlice("yaml.kubernetes"),
		WorkspaceRoot: v.GetString("yaml.workspaceRoot"),
	}
	if err := v.UnmarshalKey("yaml.schemas", &s.Schemas); err != nil {
		return s, fmt.Errorf("yaml.schemas: %w", err)
	}
	if s.WorkspaceRoot == "" {
		if wd, err := os.Getwd(); err == nil {
			s.WorkspaceRoot = wd
		}
	} else if !strings.Contains(s.WorkspaceRoot, "://") {
		if abs, err := filepath.Abs(s.WorkspaceRoot); err == nil {
			s.WorkspaceRoot = abs
		}
	}
	if err := s.Check(); err != nil {
		return s, err
	}
	return s, nil
}

// settingsFromClient decodes the settings object of a
// workspace/didChangeConfiguration notification.
func settingsFromClient(raw any, workspaceRoot string) (yamlls.Settings, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return yamlls.Settings{}, errors.New("settings: expected an object")
	}
	v := newViper()
	if err := v.MergeConfigMap(m); err != nil {
		return yamlls.Settings{}, fmt.Errorf("settings: %w", err)
	}
	if v.GetString("yaml.workspaceRoot") == "" && workspaceRoot != "" {
		v.Set("yaml.workspaceRoot", workspaceRoot)
	}
	return decodeSettings(v)
}
