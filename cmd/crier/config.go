package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/viant/crier"
	"gopkg.in/yaml.v3"
)

// envPrefix prefixes every environment override, e.g. CRIER_NOTIFIER_TOKEN.
const envPrefix = "CRIER"

// loadConfig layers defaults, the config file and the environment.
func loadConfig(path, dotenv string) (*crier.Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}
	defaults, err := yaml.Marshal(crier.DefaultConfig())
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to read defaults: %w", err)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("crier")
		v.AddConfigPath(".")
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &crier.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Judge.APIKey == "" {
		cfg.Judge.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Notifier.Token == "" {
		cfg.Notifier.Token = os.Getenv("DISCORD_BOT_TOKEN")
	}
	if cfg.Notifier.ChannelID == "" {
		cfg.Notifier.ChannelID = os.Getenv("DISCORD_CHANNEL_ID")
	}
	return cfg, cfg.Validate()
}
