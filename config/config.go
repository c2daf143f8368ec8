package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/kutuphane/library-service/internal/server"
	"github.com/kutuphane/library-service/pkg/kafka"
	"github.com/kutuphane/library-service/pkg/logger"
	"github.com/kutuphane/library-service/pkg/postgres"
)

type Config struct {
	Server       server.Config   `yaml:"server"`
	Database     postgres.Config `yaml:"database"`
	Kafka        kafka.Config    `yaml:"kafka"`
	Log          logger.Log      `yaml:"log"`
	KafkaEnabled bool            `yaml:"kafkaEnabled" envconfig:"KAFKA_ENABLED" default:"false"`
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = d
	}
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		for _, op := range ops {
			op(&config)
		}
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
