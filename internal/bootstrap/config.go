package bootstrap

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       string `mapstructure:"SERVER_PORT"`
	RedisUrl         string `mapstructure:"REDIS_URL"`
	MongoUri         string `mapstructure:"MONGO_URI"`
	MongoDatabase    string `mapstructure:"MONGO_DATABASE"`
	HeartbeatSeconds int    `mapstructure:"HEARTBEAT_SECONDS"`
	HistoryLimit     int    `mapstructure:"HISTORY_LIMIT"`
	Debug            bool   `mapstructure:"DEBUG"`
}

var keys = []string{
	"SERVER_PORT", "REDIS_URL", "MONGO_URI", "MONGO_DATABASE",
	"HEARTBEAT_SECONDS", "HISTORY_LIMIT", "DEBUG",
}

// Setup reads cfgPath (when non-empty and present) and lets environment
// variables override every key.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("MONGO_DATABASE", "tictactoe")
	v.SetDefault("HEARTBEAT_SECONDS", 15)
	v.SetDefault("HISTORY_LIMIT", 100)
	v.SetDefault("DEBUG", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Addr() string {
	if strings.HasPrefix(c.ServerPort, ":") {
		return c.ServerPort
	}
	return ":" + c.ServerPort
}
