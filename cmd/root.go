package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talenthium/patchtree/internal/config"
	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/tracing"
)

// localConfigPath is checked before the user config directory.
const localConfigPath = ".patchtree/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config

	traceProvider = tracing.Noop()
	logCleanup    func()
)

var rootCmd = &cobra.Command{
	Use:   "patchtree",
	Short: "Turn commit diffs into file trees and side-by-side text",
	Long: `patchtree reads commit diffs from the project service, a local git
repository, or a JSON file and shows them as a nested file tree with
side-by-side before/after text for each file.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		teardown(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .patchtree/config.yaml, then ~/.config/patchtree/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs (also PATCHTREE_DEBUG=1; path from PATCHTREE_LOG)")
}

// setup runs before every command: logging, config, tracing.
func setup(cmd *cobra.Command, _ []string) error {
	if debugFlag || os.Getenv("PATCHTREE_DEBUG") != "" {
		logPath := os.Getenv("PATCHTREE_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatConfig, "patchtree starting", "version", version, "command", cmd.CommandPath())
	}

	loaded, err := loadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	traceProvider = provider
	return nil
}

func teardown(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := traceProvider.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "Failed to flush traces", err)
	}
	traceProvider = tracing.Noop()
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
		log.Reset()
	}
}

// loadConfig reads the config file into v and decodes it. When explicit is
// empty the lookup order is .patchtree/config.yaml, then the user config
// directory. A missing config file is created with commented defaults.
func loadConfig(v *viper.Viper, explicit string) (config.Config, error) {
	config.SetDefaults(v)
	v.SetEnvPrefix("PATCHTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := explicit
	if path == "" {
		path = userConfigPath()
		if _, err := os.Stat(localConfigPath); err == nil {
			path = localConfigPath
		}
	}

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := config.WriteDefaultConfig(path); err != nil {
				// continue with defaults
				log.ErrorErr(log.CatConfig, "Could not write default config", err, "path", path)
			}
		}
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return config.Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
			log.Debug(log.CatConfig, "Loaded config", "path", path)
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return loaded, nil
}

func userConfigPath() string {
	dir := config.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// configPathInUse is where config writes (login, theme) go.
func configPathInUse() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	if cfgFile != "" {
		return cfgFile
	}
	return userConfigPath()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
