package env

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	AWSRegion        = "AWS_REGION"
	DynamoDBEndpoint = "DYNAMODB_ENDPOINT"
	SessionSecretKey = "SESSION_SECRET"
	ListenAddr       = "LISTEN_ADDR"
	AllowedOrigins   = "ALLOWED_ORIGINS"
	LogLevel         = "LOG_LEVEL"
	LogFormat        = "LOG_FORMAT"

	BackendURL    = "DOCVIA_BACKEND_URL"
	AppKey        = "DOCVIA_APP_KEY"
	StoreKind     = "DOCVIA_STORE"
	StorePath     = "DOCVIA_STORE_PATH"
	StoreRedisURL = "DOCVIA_REDIS_URL"
)

// Server holds everything cmd/chatbot-server needs.
type Server struct {
	ListenAddr       string        `env:"LISTEN_ADDR" envDefault:":5000"`
	AWSRegion        string        `env:"AWS_REGION" envDefault:"eu-central-1"`
	AWSID            string        `env:"AWS_ID"`
	AWSSecret        string        `env:"AWS_SECRET"`
	AWSToken         string        `env:"AWS_TOKEN"`
	DynamoDBEndpoint string        `env:"DYNAMODB_ENDPOINT"`
	SessionSecret    string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"15m"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	QueueSize        int           `env:"QUEUE_SIZE" envDefault:"10"`
	Workers          int           `env:"QUEUE_WORKERS" envDefault:"10"`
	QueryRate        float64       `env:"QUERY_RATE" envDefault:"1"`
	QueryBurst       int           `env:"QUERY_BURST" envDefault:"5"`
	Log              Log
}

// Widget holds the settings of the terminal widget host.
type Widget struct {
	BackendURL  string        `env:"DOCVIA_BACKEND_URL" envDefault:"http://localhost:5000/api/v1"`
	AppKey      string        `env:"DOCVIA_APP_KEY"`
	Store       string        `env:"DOCVIA_STORE" envDefault:"file"`
	StorePath   string        `env:"DOCVIA_STORE_PATH"`
	RedisURL    string        `env:"DOCVIA_REDIS_URL" envDefault:"localhost:6379"`
	RedisPass   string        `env:"DOCVIA_REDIS_PASS"`
	HTTPTimeout time.Duration `env:"DOCVIA_HTTP_TIMEOUT" envDefault:"0s"`
	Log         Log
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

// LoadDotEnv reads .env when present. A missing file is not an error.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse server env: %w", err)
	}
	return cfg, nil
}

func LoadWidget() (Widget, error) {
	var cfg Widget
	if err := env.Parse(&cfg); err != nil {
		return Widget{}, fmt.Errorf("parse widget env: %w", err)
	}
	return cfg, nil
}
