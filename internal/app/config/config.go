package config

import "time"

// Config provides read-only access to application configuration.
// The app layer depends on this interface, never on the settings file format.
type Config interface {
	Home() string // Checkpoint directory (NOTHING_HOME)

	// Logging
	ConsoleLevel() string // Minimum level echoed to stdout
	FileLevel() string    // Minimum level written to the run log file

	// Console pacing
	PrintPause() time.Duration
	WarnPause() time.Duration

	// Metadata
	ConfigSource() string // "yaml" or "default"
	SettingPath() string  // Path to setting.yaml if loaded from file
}

// AppConfig is the concrete implementation of Config
type AppConfig struct {
	home string

	consoleLevel string
	fileLevel    string

	printPause time.Duration
	warnPause  time.Duration

	configSource string
	settingPath  string
}

func (c *AppConfig) Home() string {
	return c.home
}

func (c *AppConfig) ConsoleLevel() string {
	return c.consoleLevel
}

func (c *AppConfig) FileLevel() string {
	return c.fileLevel
}

// PrintPause is the pause after each printed message
func (c *AppConfig) PrintPause() time.Duration {
	return c.printPause
}

// WarnPause is the pause after each reported problem
func (c *AppConfig) WarnPause() time.Duration {
	return c.warnPause
}

func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

func (c *AppConfig) SettingPath() string {
	return c.settingPath
}

// NewAppConfig creates a new AppConfig with the given values.
// This is typically called by the infrastructure layer after loading settings.
func NewAppConfig(
	home string,
	consoleLevel, fileLevel string,
	printPause, warnPause time.Duration,
	configSource, settingPath string,
) *AppConfig {
	return &AppConfig{
		home:         home,
		consoleLevel: consoleLevel,
		fileLevel:    fileLevel,
		printPause:   printPause,
		warnPause:    warnPause,
		configSource: configSource,
		settingPath:  settingPath,
	}
}
