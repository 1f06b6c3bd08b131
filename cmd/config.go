/*
Package cmd includes connverify commands
Copyright © 2020 Jack Zampolin jack.zampolin@gmail.com

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	cfgDir  = "config"
	cfgFile = "config.yaml"

	defaultLogFormat   = "auto"
	defaultLogLevel    = "info"
	defaultMaxParallel = 4
)

func configCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage configuration file",
	}

	cmd.AddCommand(
		configShowCmd(a),
		configInitCmd(a),
	)

	return cmd
}

// Command for printing current configuration
func configShowCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s", "list", "l"},
		Short:   "Prints current configuration",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config show --home %s
$ %s cfg list`, appName, defaultHome, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := a.configPath()
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if _, err := os.Stat(a.HomePath); os.IsNotExist(err) {
					return fmt.Errorf("home path does not exist: %s", a.HomePath)
				}
				return fmt.Errorf("config does not exist: %s", cfgPath)
			}

			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			yml, err := cmd.Flags().GetBool(flagYAML)
			if err != nil {
				return err
			}
			switch {
			case yml && jsn:
				return errMultipleOutputFlags
			case jsn:
				out, err := json.Marshal(a.Config)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			default:
				out, err := yaml.Marshal(a.Config)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
		},
	}

	return yamlFlag(a, jsonFlag(a, cmd))
}

// Command for inititalizing an empty config at the --home location
func configInitCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Creates a default home directory at path defined by --home",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config init --home %s
$ %s cfg i`, appName, defaultHome, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := a.configPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}

			if err := os.MkdirAll(path.Join(a.HomePath, cfgDir), os.ModePerm); err != nil {
				return err
			}

			out, err := yaml.Marshal(defaultConfig())
			if err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, out, 0600); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "config initialized at %s\n", cfgPath)
			return nil
		},
	}
	return cmd
}

// Config represents the config file for connverify
type Config struct {
	Global GlobalConfig `yaml:"global" json:"global"`
}

// GlobalConfig describes settings shared by every command
type GlobalConfig struct {
	LogLevel    string `yaml:"log-level" json:"log-level"`
	LogFormat   string `yaml:"log-format" json:"log-format"`
	MaxParallel int    `yaml:"max-parallel" json:"max-parallel"`
}

func defaultConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			LogLevel:    defaultLogLevel,
			LogFormat:   defaultLogFormat,
			MaxParallel: defaultMaxParallel,
		},
	}
}

func (c *Config) validate() error {
	var err error

	var lvl zapcore.Level
	if lerr := lvl.UnmarshalText([]byte(c.Global.LogLevel)); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("invalid log-level %q", c.Global.LogLevel))
	}

	switch c.Global.LogFormat {
	case "auto", "logfmt", "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("invalid log-format %q", c.Global.LogFormat))
	}

	if c.Global.MaxParallel < 1 {
		err = multierr.Append(err, errors.New("max-parallel must be at least 1"))
	}

	return err
}
