package cmd

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// appState is the modifiable state of the application.
type appState struct {
	// Log is the root logger of the application.
	// Consumers are expected to store and use local copies of the logger
	// after modifying with the .With method.
	Log *zap.Logger

	Viper *viper.Viper

	HomePath string
	Debug    bool
	Config   *Config
}

func (a *appState) configPath() string {
	return path.Join(a.HomePath, cfgDir, cfgFile)
}

// loadConfigFile reads the config file under the home directory into a.Config.
// A missing file leaves the default configuration in place.
func (a *appState) loadConfigFile() error {
	a.Config = defaultConfig()

	cfgPath := a.configPath()
	if _, err := os.Stat(cfgPath); err != nil {
		// don't want to return error if config doesn't exist
		return nil
	}

	file, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("error parsing config %s: %w", cfgPath, err)
	}

	a.Config = cfg
	return nil
}

// logFormat prefers the --log-format flag over the config file.
func (a *appState) logFormat() string {
	if f := a.Viper.GetString(flagLogFormat); f != "" {
		return f
	}
	return a.Config.Global.LogFormat
}

func (a *appState) logLevel() string {
	if a.Viper.GetBool(flagDebug) {
		return "debug"
	}
	return a.Config.Global.LogLevel
}

// maxParallel prefers the --max-parallel flag over the config file.
func (a *appState) maxParallel() int {
	if a.Viper.IsSet(flagMaxParallel) {
		if n := a.Viper.GetInt(flagMaxParallel); n > 0 {
			return n
		}
	}
	return a.Config.Global.MaxParallel
}
