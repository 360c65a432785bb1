package main

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/mvc/pkg/cache"
	"github.com/dmitrymomot/mvc/pkg/db"
	"github.com/dmitrymomot/mvc/pkg/logger"
)

// Config is the blog configuration, read from the environment.
type Config struct {
	Address         string        `env:"ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	DefaultLanguage string        `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	ReloadViews     bool          `env:"RELOAD_VIEWS"`

	DB    db.Config
	Log   logger.Config
	Redis cache.RedisConfig
}

func loadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
