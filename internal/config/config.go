package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel   string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string   `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string   `yaml:"socket-port" env:"SOCKET_PORT" env-default:"3000"`
	Redis      Redis    `yaml:"redis" env-prefix:"REDIS_"`
	Postgres   Postgres `yaml:"postgres" env-prefix:"POSTGRES_"`
	Match      Match    `yaml:"match" env-prefix:"MATCH_"`
}

// Redis is the analytics stream; an empty host disables publishing.
type Redis struct {
	Host   string `yaml:"host" env:"HOST"`
	Port   string `yaml:"port" env:"PORT" env-default:"6379"`
	Stream string `yaml:"stream" env:"STREAM" env-default:"game-analytics"`
}

// Postgres keeps results and player stats; an empty DSN disables persistence.
type Postgres struct {
	DSN string `yaml:"dsn" env:"DSN"`
}

type Match struct {
	QueueTimeout     time.Duration `yaml:"queue-timeout" env:"QUEUE_TIMEOUT" env-default:"10s"`
	ReconnectTimeout time.Duration `yaml:"reconnect-timeout" env:"RECONNECT_TIMEOUT" env-default:"30s"`
	BotThinkDelay    time.Duration `yaml:"bot-think-delay" env:"BOT_THINK_DELAY" env-default:"1s"`
	SinkTimeout      time.Duration `yaml:"sink-timeout" env:"SINK_TIMEOUT" env-default:"5s"`
}

// MustLoad - loads .env, then config.yml when present, then the environment.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	config := &Config{}

	_, statErr := os.Stat(path)

	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", statErr)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
