package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Legacy     LegacyConfig     `mapstructure:"legacy"`
	S3         S3Config         `mapstructure:"s3"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Generation GenerationConfig `mapstructure:"generation"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Client     ClientConfig     `mapstructure:"client"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// LegacyConfig points at the relational database that predates the document
// store. It is read for history merging and one-shot migration only; new
// programs are never written to it.
type LegacyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LLMConfig configures the hosted chat-completions API the program and
// analysis services call.
type LLMConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	FallbackModel string        `mapstructure:"fallback_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// GenerationConfig holds the business rules around program generation.
type GenerationConfig struct {
	// FreeTierLimit caps how many programs a free-tier user may have
	// generated in total before WORKOUT_LIMIT_EXCEEDED is returned.
	FreeTierLimit int64 `mapstructure:"free_tier_limit"`
	// IncludeDebug attaches the diagnostic payload to generation responses.
	IncludeDebug bool `mapstructure:"include_debug"`
}

// CatalogConfig points at the exercise catalog export that seeds the
// exercises collection on first start.
type CatalogConfig struct {
	File string `mapstructure:"file"`
}

// ClientConfig configures the client-side slice (the plangen CLI): which
// generation endpoint to call and where the local workout store lives.
type ClientConfig struct {
	EndpointURL string `mapstructure:"endpoint_url"`
	StoreDir    string `mapstructure:"store_dir"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	// Set the path to look for the config file in
	viper.AddConfigPath(path)
	// Set the name of the config file (without extension)
	viper.SetConfigName("config")
	// Set the type of the config file
	viper.SetConfigType("yaml")

	// --- Environment Variable Handling ---
	viper.AutomaticEnv()
	// Use replacer for nested keys e.g., server.address -> SERVER_ADDRESS
	// llm.api_key -> LLM_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// --- Set default values ---
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "strengthlab")
	viper.SetDefault("legacy.enabled", false)
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.model", "llama-3.3-70b-versatile")
	viper.SetDefault("llm.fallback_model", "llama4-scout-17b-16e-instruct")
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("generation.free_tier_limit", 3)
	viper.SetDefault("generation.include_debug", false)
	viper.SetDefault("catalog.file", "exercises.json")
	viper.SetDefault("client.endpoint_url", "http://localhost:8080")

	// --- Read Config File ---
	// If config file not found, continue (might rely solely on env vars).
	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	// --- Unmarshal Config ---
	// Viper parses duration strings ("60m", "1h") directly into the
	// time.Duration fields.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
