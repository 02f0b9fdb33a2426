package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"photobooth/internal/domain"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/retry"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV" env-default:"local"`
	Server   ServerConfig   `yaml:"server"`
	Camera   CameraConfig   `yaml:"camera"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Composer ComposerConfig `yaml:"composer"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Storage  StorageConfig  `yaml:"storage"`
	DB       DBConfig       `yaml:"db"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Gallery  GalleryConfig  `yaml:"gallery"`
	Retry    RetryConfig    `yaml:"retry"`
	Debug    DebugConfig    `yaml:"debug"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	APIKey          string        `yaml:"api_key" env:"SERVER_API_KEY"`
	StaticDir       string        `yaml:"static_dir" env:"SERVER_STATIC_DIR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"0s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type CameraConfig struct {
	Backend       string `yaml:"backend" env:"CAMERA_BACKEND" env-default:"digicamcontrol"`
	LiveFeedURL   string `yaml:"live_feed_url" env:"CAMERA_LIVE_FEED_URL" env-default:"http://localhost:5513/liveview.jpg"`
	CaptureURL    string `yaml:"capture_url" env:"CAMERA_CAPTURE_URL" env-default:"http://localhost:5513/?CMD=Capture"`
	StatusURL     string `yaml:"status_url" env:"CAMERA_STATUS_URL"`
	RefreshRate   int    `yaml:"refresh_rate" env:"CAMERA_REFRESH_RATE" env-default:"20"`
	Timeout       int    `yaml:"timeout_ms" env:"CAMERA_TIMEOUT_MS" env-default:"5000"`
	RetryAttempts int    `yaml:"retry_attempts" env:"CAMERA_RETRY_ATTEMPTS" env-default:"3"`
	SettingsFile  string `yaml:"settings_file" env:"CAMERA_SETTINGS_FILE" env-default:"data/camera.yaml"`
}

type WatcherConfig struct {
	Enabled         bool          `yaml:"enabled" env:"WATCHER_ENABLED" env-default:"true"`
	Dir             string        `yaml:"dir" env:"WATCHER_DIR" env-default:"data/captures"`
	OverlayPath     string        `yaml:"overlay_path" env:"WATCHER_OVERLAY_PATH" env-default:"data/overlay.png"`
	ProcessedPrefix string        `yaml:"processed_prefix" env:"WATCHER_PROCESSED_PREFIX" env-default:"overlay_"`
	SettleDelay     time.Duration `yaml:"settle_delay" env:"WATCHER_SETTLE_DELAY" env-default:"1s"`
}

type ComposerConfig struct {
	CanvasSize  int    `yaml:"canvas_size" env:"COMPOSER_CANVAS_SIZE" env-default:"1080"`
	PreviewSize int    `yaml:"preview_size" env:"COMPOSER_PREVIEW_SIZE" env-default:"450"`
	WrapWidth   int    `yaml:"wrap_width" env:"COMPOSER_WRAP_WIDTH" env-default:"700"`
	Quality     int    `yaml:"quality" env:"COMPOSER_QUALITY" env-default:"90"`
	AssetsDir   string `yaml:"assets_dir" env:"COMPOSER_ASSETS_DIR" env-default:"assets"`
	MaxText     int    `yaml:"max_text" env:"COMPOSER_MAX_TEXT" env-default:"80"`
}

type CatalogConfig struct {
	URL     string        `yaml:"url" env:"CATALOG_URL"`
	Timeout time.Duration `yaml:"timeout" env:"CATALOG_TIMEOUT" env-default:"5s"`
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"photobooth"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	PublicURL string `yaml:"public_url" env:"MINIO_PUBLIC_URL"`
	SpoolDir  string `yaml:"spool_dir" env:"STORAGE_SPOOL_DIR" env-default:"data/pending"`
}

type DBConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"photobooth"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"photobooth"`
	SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"true"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"photo-events"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"photobooth-gallery"`
}

type GalleryConfig struct {
	Addr           string        `yaml:"addr" env:"GALLERY_ADDR" env-default:"8081"`
	Size           int           `yaml:"size" env:"GALLERY_SIZE" env-default:"12"`
	RotateInterval time.Duration `yaml:"rotate_interval" env:"GALLERY_ROTATE_INTERVAL" env-default:"5s"`
	RefreshEvery   time.Duration `yaml:"refresh_every" env:"GALLERY_REFRESH_EVERY" env-default:"1m"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"500ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

type DebugConfig struct {
	LogBuffer int `yaml:"log_buffer" env:"DEBUG_LOG_BUFFER" env-default:"500"`
}

// MustLoad reads .env (if any), then the YAML file named by CONFIG_PATH, then the environment.
func MustLoad() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	return Load(path)
}

func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

// InitialCapture is the camera config used until a persisted settings file overrides it.
func (c *Config) InitialCapture() domain.CaptureConfig {
	return domain.CaptureConfig{
		Backend:       domain.CameraBackend(c.Camera.Backend),
		LiveFeedURL:   c.Camera.LiveFeedURL,
		CaptureURL:    c.Camera.CaptureURL,
		StatusURL:     c.Camera.StatusURL,
		RefreshRate:   c.Camera.RefreshRate,
		Timeout:       c.Camera.Timeout,
		RetryAttempts: c.Camera.RetryAttempts,
	}
}
