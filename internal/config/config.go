// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Addr      string `env:"ADDR,default=:8080"`
	DBPath    string `env:"DB_PATH,default=accountbooks.db"`
	JWTSecret string `env:"JWT_SECRET,required"`
	Env       string `env:"APP_ENV,default=dev"`
}

// Load reads .env if present, then decodes the environment. A missing
// JWT_SECRET is a hard error; everything else has a sane default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
