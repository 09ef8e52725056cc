package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/donothing/internal/app"
	"github.com/YoshitsuguKoike/donothing/internal/app/config"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// RawSettings represents the structure of setting.yaml.
// Pointer fields distinguish "unset" from zero values.
type RawSettings struct {
	// Logging
	ConsoleLevel *string `yaml:"console_level"`
	FileLevel    *string `yaml:"file_level"`

	// Console pacing
	PrintPauseMs *int `yaml:"print_pause_ms"`
	WarnPauseMs  *int `yaml:"warn_pause_ms"`
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// LoadSettings loads configuration from <baseDir>/setting.yaml.
// Priority: setting.yaml > defaults. A missing file is not an error.
func LoadSettings(fs afero.Fs, baseDir string) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	yamlPath := app.PathsFor(baseDir).Setting
	data, err := afero.ReadFile(fs, yamlPath)
	switch {
	case err == nil:
		if err := decodeStrict(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", yamlPath, err)
		}
		configSource = "yaml"
		settingPath = yamlPath
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", yamlPath, err)
	}

	applyDefaults(settings)

	if err := validate(settings); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", yamlPath, err)
	}

	return buildAppConfig(baseDir, settings, configSource, settingPath), nil
}

// decodeStrict rejects unknown keys so typos are not silently ignored
func decodeStrict(data []byte, settings *RawSettings) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(settings); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(settings *RawSettings) {
	if settings.ConsoleLevel == nil {
		v := "info"
		settings.ConsoleLevel = &v
	}
	if settings.FileLevel == nil {
		v := "debug"
		settings.FileLevel = &v
	}
	if settings.PrintPauseMs == nil {
		v := 1000
		settings.PrintPauseMs = &v
	}
	if settings.WarnPauseMs == nil {
		v := 500
		settings.WarnPauseMs = &v
	}
}

func validate(settings *RawSettings) error {
	if !validLevels[strings.ToLower(*settings.ConsoleLevel)] {
		return fmt.Errorf("console_level %q is not one of debug, info, warn, error", *settings.ConsoleLevel)
	}
	if !validLevels[strings.ToLower(*settings.FileLevel)] {
		return fmt.Errorf("file_level %q is not one of debug, info, warn, error", *settings.FileLevel)
	}
	if *settings.PrintPauseMs < 0 {
		return fmt.Errorf("print_pause_ms must not be negative")
	}
	if *settings.WarnPauseMs < 0 {
		return fmt.Errorf("warn_pause_ms must not be negative")
	}
	return nil
}

// buildAppConfig converts RawSettings to AppConfig
func buildAppConfig(home string, settings *RawSettings, configSource, settingPath string) *config.AppConfig {
	return config.NewAppConfig(
		home,
		strings.ToLower(*settings.ConsoleLevel),
		strings.ToLower(*settings.FileLevel),
		time.Duration(*settings.PrintPauseMs)*time.Millisecond,
		time.Duration(*settings.WarnPauseMs)*time.Millisecond,
		configSource,
		settingPath,
	)
}
