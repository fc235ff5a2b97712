package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	ServerURL string `env:"NOTES_SERVER_URL"`
	Token     string `env:"NOTES_TOKEN"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:8080"
	}

	return &cfg
}
