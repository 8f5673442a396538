// Package config loads runtime settings from .env, an optional config.yaml
// and environment variables, and holds the domain constants shared by the
// services.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Kakao     KakaoConfig     `mapstructure:"kakao"`
	Media     MediaConfig     `mapstructure:"media"`
	S3        S3Config        `mapstructure:"s3"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	Guide     GuideConfig     `mapstructure:"guide"`
	Report    ReportConfig    `mapstructure:"report"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxIdle     int    `mapstructure:"max_idle"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig configures the cross-instance event bus. An empty Addr
// disables it and events are delivered to local channels only.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type KakaoConfig struct {
	APIBase string        `mapstructure:"api_base"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MediaConfig selects where uploaded files and thumbnails are stored.
// Backend is "local" (served under PublicBase) or "s3".
type MediaConfig struct {
	Backend    string `mapstructure:"backend"`
	Dir        string `mapstructure:"dir"`
	PublicBase string `mapstructure:"public_base"`
}

type S3Config struct {
	Bucket     string `mapstructure:"bucket"`
	Region     string `mapstructure:"region"`
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	PublicBase string `mapstructure:"public_base"`
}

type ThumbnailConfig struct {
	FFmpeg string `mapstructure:"ffmpeg"`
}

type GuideConfig struct {
	AutoApprove bool `mapstructure:"auto_approve"`
}

// ReportConfig.HideThreshold is the weighted report score at which a story
// is hidden. Zero turns automatic hiding off.
type ReportConfig struct {
	HideThreshold int `mapstructure:"hide_threshold"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8005)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("database.dsn", "host=localhost user=storybook password=storybook dbname=storybook port=5432 sslmode=disable")
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "storybook:events")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", 30*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("kakao.api_base", "https://kapi.kakao.com")
	v.SetDefault("kakao.timeout", 5*time.Second)
	v.SetDefault("media.backend", "local")
	v.SetDefault("media.dir", "uploads")
	v.SetDefault("media.public_base", "/uploads")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "ap-northeast-2")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.public_base", "")
	v.SetDefault("thumbnail.ffmpeg", "ffmpeg")
	v.SetDefault("guide.auto_approve", true)
	v.SetDefault("report.hide_threshold", 0)
	v.SetDefault("cors.origins", []string{"*"})
}

// Load reads .env (if present), then config.yaml (if present), then the
// environment. Environment keys are the upper-cased dotted keys with dots
// replaced by underscores, e.g. JWT_SECRET or DATABASE_DSN.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt.secret (JWT_SECRET) must be set")
	}
	return &cfg, nil
}
