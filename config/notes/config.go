package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Port      int    `env:"PORT"`
	JWTSecret string `env:"JWT_SECRET"`
	OpenAI    OpenAIConfig
	Store     StoreConfig
	Blob      BlobConfig
}

type OpenAIConfig struct {
	APIKey          string `env:"OPENAI_API_KEY"`
	BaseURL         string `env:"OPENAI_BASE_URL"`
	TranscribeModel string `env:"OPENAI_TRANSCRIBE_MODEL"`
	ExtractModel    string `env:"OPENAI_EXTRACT_MODEL"`
}

type StoreConfig struct {
	DSN string `env:"DATABASE_URL"`
}

type BlobConfig struct {
	Region          string `env:"BLOB_REGION"`
	Bucket          string `env:"BLOB_BUCKET"`
	AccessKeyID     string `env:"BLOB_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"BLOB_ACCESS_KEY_SECRET"`
	PublicBaseURL   string `env:"BLOB_PUBLIC_BASE_URL"`
	KeyPrefix       string `env:"BLOB_KEY_PREFIX"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	return &cfg
}
