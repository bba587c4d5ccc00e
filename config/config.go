package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort         int      `mapstructure:"http_port"`
	LogLevel         string   `mapstructure:"log_level"`
	DatabaseURL      string   `mapstructure:"database_url"`
	JwtSecret        string   `mapstructure:"jwt_secret"`
	TokenExpiryHours int      `mapstructure:"token_expiry_hours"`
	PublicBaseURL    string   `mapstructure:"public_base_url"` // Used to build image URLs
	UploadDir        string   `mapstructure:"upload_dir"`
	CorsOrigins      []string `mapstructure:"cors_origins"`
	BcryptCost       int      `mapstructure:"bcrypt_cost"`
}

var AppConfig Config

func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable overrides
	viper.SetEnvPrefix("IMAGEHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("http_port", 3000)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("jwt_secret", "default-very-insecure-secret-key") // CHANGE THIS IN PRODUCTION
	viper.SetDefault("token_expiry_hours", 24)
	viper.SetDefault("public_base_url", "http://localhost:3000")
	viper.SetDefault("upload_dir", "./uploads")
	viper.SetDefault("cors_origins", []string{"http://localhost:4200"})
	viper.SetDefault("bcrypt_cost", 10)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		panic(fmt.Errorf("unable to decode config into struct: %w", err))
	}
}
