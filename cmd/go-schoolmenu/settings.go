package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

// Settings mirrors config.yaml. Every key can be overridden from the
// environment, e.g. SCHOOLMENU_CARD_ENTITY or SCHOOLMENU_HOST_MODE.
type Settings struct {
	Card     engine.CardConfig `mapstructure:"card"`
	Host     HostSettings      `mapstructure:"host"`
	Server   ServerSettings    `mapstructure:"server"`
	Language string            `mapstructure:"language"`
}

// HostSettings selects where entity state comes from. The REST access token
// is never read from here; it lives in the OS keyring.
type HostSettings struct {
	Mode         string        `mapstructure:"mode"`
	URL          string        `mapstructure:"url"`
	StateFile    string        `mapstructure:"state_file"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type ServerSettings struct {
	Port string `mapstructure:"port"`
}

// defaultConfigDir is the user config directory for the application.
func defaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrConfigDir, err)
	}
	return filepath.Join(dir, config.ConfigDirName), nil
}

// loadSettings reads config.yaml from configDir (the user config directory
// when empty), writing a default file on first run.
func loadSettings(configDir string) (Settings, error) {
	if configDir == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return Settings{}, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, config.DirPermUserRWX); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return Settings{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(config.ConfigFileName)
	v.SetConfigType(config.ConfigFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("%s: %w", config.ErrConfigRead, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", config.ErrConfigRead, err)
	}

	slog.Debug(config.MsgConfigLoaded,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyFile, v.ConfigFileUsed(),
		config.LogKeyMode, s.Host.Mode)
	return s, nil
}

// setDefaults registers every key, which also makes them visible to
// AutomaticEnv during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault(config.CfgKeyEntity, "")
	v.SetDefault(config.CfgKeyTitle, config.DefaultTitle)
	v.SetDefault(config.CfgKeyCategories, []string{config.DefaultCategory})
	v.SetDefault(config.CfgKeyHostMode, config.HostModeDemo)
	v.SetDefault(config.CfgKeyHostURL, "")
	v.SetDefault(config.CfgKeyStateFile, "")
	v.SetDefault(config.CfgKeyPoll, time.Duration(config.DefaultPollSeconds)*time.Second)
	v.SetDefault(config.CfgKeyPort, config.DefaultPort)
	v.SetDefault(config.CfgKeyLanguage, config.DefaultLanguage)
}

// ensureDefaultConfigFile creates config.yaml when it does not exist yet.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, config.ConfigFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", config.ErrConfigRead, err)
	}

	if err := os.WriteFile(path, []byte(config.DefaultConfigYAML), config.FilePermConfig); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	slog.Info(config.MsgConfigCreated,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyFile, path)
	return nil
}
