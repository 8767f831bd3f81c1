// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/campus-market/internal/lib/jwt"
)

// Допустимые бэкенды хранилища изображений и ограничителя запросов.
const (
	ImageBackendGridFS = "gridfs"
	ImageBackendMinio  = "minio"

	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Config общая структура для хранения настроек.
// Значения читаются из YAML-файла CONFIG_PATH (если задан), переменные окружения всегда важнее.
type Config struct {
	Env             string        `yaml:"env" env:"ENV" env-default:"local"`
	FrontendURL     string        `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`
	MigrationsPath  string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"file://migrations"`
	BcryptRounds    int           `yaml:"bcrypt_rounds" env:"BCRYPT_ROUNDS" env-default:"10"`
	SchedulerTick   time.Duration `yaml:"scheduler_interval" env:"SCHEDULER_INTERVAL" env-default:"1h"`
	Mongo           `yaml:"mongo"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	RabbitMQ        `yaml:"rabbitmq"`
	SMTP            `yaml:"smtp"`
	Images          `yaml:"images"`
	RateLimit       `yaml:"rate_limit"`
}

// Mongo структура для подключения к MongoDB
type Mongo struct {
	MongoURI       string        `yaml:"uri" env:"MONGODB_URI" env-default:"mongodb://localhost:27017/?replicaSet=rs0"`
	DBName         string        `yaml:"db_name" env:"DB_NAME" env-default:"campus_market"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"MONGODB_CONNECT_TIMEOUT" env-default:"10s"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	Port        string        `yaml:"port" env:"PORT" env-default:"5000"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET" env-required:"true"`
	ExpiresIn    string `yaml:"expires_in" env:"JWT_EXPIRES_IN" env-default:"7d"`
}

// RabbitMQ структура для подключения к брокеру. Пустой URL отключает публикацию уведомлений.
type RabbitMQ struct {
	RabbitMQURL string `yaml:"url" env:"RABBITMQ_URL"`
}

// SMTP структура для отправки писем
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	SMTPPort int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// Images структура для выбора хранилища фотографий верификации
type Images struct {
	ImageBackend   string `yaml:"backend" env:"IMAGE_BACKEND" env-default:"gridfs"`
	MinioEndpoint  string `yaml:"minio_endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	MinioAccessKey string `yaml:"minio_access_key" env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `yaml:"minio_secret_key" env:"MINIO_SECRET_KEY"`
	MinioBucket    string `yaml:"minio_bucket" env:"MINIO_BUCKET" env-default:"verification"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

// RateLimit структура для настройки ограничителя запросов
type RateLimit struct {
	RateLimitBackend string  `yaml:"backend" env:"RATE_LIMIT_BACKEND" env-default:"memory"`
	RPS              float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst            int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

// Load читает .env (если есть), YAML-файл из CONFIG_PATH (если задан) и переменные окружения.
func Load() (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET is required")
	}
	if _, err := jwt.ParseTTL(c.ExpiresIn); err != nil {
		return err
	}
	switch c.ImageBackend {
	case ImageBackendGridFS, ImageBackendMinio:
	default:
		return fmt.Errorf("unknown IMAGE_BACKEND %q", c.ImageBackend)
	}
	switch c.RateLimitBackend {
	case RateLimitMemory, RateLimitRedis:
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	if c.SchedulerTick <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", c.SchedulerTick)
	}
	return nil
}

// TokenTTL возвращает время жизни токена из JWT_EXPIRES_IN.
func (c *Config) TokenTTL() time.Duration {
	ttl, err := jwt.ParseTTL(c.ExpiresIn)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return ttl
}

// Address возвращает адрес HTTP-сервера.
func (c *Config) Address() string {
	return ":" + c.Port
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"FrontendURL: %s\n"+
			"Mongo:\n"+
			"  DB: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Port: %s\n"+
			"  Timeout: %s\n"+
			"JWTToken:\n"+
			"  ExpiresIn: %s\n"+
			"Images:\n"+
			"  Backend: %s\n"+
			"RateLimit:\n"+
			"  Backend: %s\n"+
			"  RPS: %g\n"+
			"  Burst: %d\n",
		c.Env,
		c.FrontendURL,
		c.DBName,
		c.AddressRedis,
		c.DB,
		c.Port,
		c.TimeoutHTTP,
		c.ExpiresIn,
		c.ImageBackend,
		c.RateLimitBackend,
		c.RPS,
		c.Burst,
	)
}
