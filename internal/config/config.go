package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Settings struct {
	BackendURL     string
	BackendAnonKey string
	JWTSecret      string

	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	// StorageBucket is where video assets live, whichever resolver signs
	// the download URLs.
	StorageBucket string

	SignedURLTTL     time.Duration
	RefreshLead      time.Duration
	CreationTimeout  time.Duration
	ServerPort       int
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	if !viper.IsSet("BACKEND_URL") {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	if !viper.IsSet("BACKEND_ANON_KEY") {
		return nil, fmt.Errorf("BACKEND_ANON_KEY is required")
	}
	if !viper.IsSet("REDIS_ADDR") {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	if !viper.IsSet("SERVER_PORT") {
		return nil, fmt.Errorf("SERVER_PORT is required")
	}

	viper.SetDefault("SIGNED_URL_TTL", 3600)
	viper.SetDefault("SIGNED_URL_REFRESH_LEAD", 60)
	viper.SetDefault("CREATION_TIMEOUT", 30)
	viper.SetDefault("STORAGE_BUCKET", "videos")

	return &Settings{
		BackendURL:     viper.GetString("BACKEND_URL"),
		BackendAnonKey: viper.GetString("BACKEND_ANON_KEY"),
		JWTSecret:      viper.GetString("JWT_SECRET"),
		RedisAddr:      viper.GetString("REDIS_ADDR"),
		RedisPassword:  viper.GetString("REDIS_PASSWORD"),
		MinioEndpoint:  viper.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: viper.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: viper.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:    viper.GetBool("MINIO_USE_SSL"),
		StorageBucket:  viper.GetString("STORAGE_BUCKET"),

		SignedURLTTL:    time.Duration(viper.GetInt("SIGNED_URL_TTL")) * time.Second,
		RefreshLead:     time.Duration(viper.GetInt("SIGNED_URL_REFRESH_LEAD")) * time.Second,
		CreationTimeout: time.Duration(viper.GetInt("CREATION_TIMEOUT")) * time.Second,
		ServerPort:      viper.GetInt("SERVER_PORT"),
	}, nil
}
