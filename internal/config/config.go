package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	JWTSecret         string
	TokenTTL          time.Duration
	GinMode           string
	Timezone          string
	RecentFoodsLimit  int
	HistoryDays       int
	BootstrapUserName string
	BootstrapPassword string
}

// fileConfig 对应可选的 TOML 配置文件，环境变量优先于文件。
type fileConfig struct {
	ListenAddr        string `toml:"listen_addr"`
	Port              string `toml:"port"`
	DatabasePath      string `toml:"database_path"`
	SessionSecret     string `toml:"session_secret"`
	JWTSecret         string `toml:"jwt_secret"`
	TokenTTL          string `toml:"token_ttl"`
	GinMode           string `toml:"gin_mode"`
	Timezone          string `toml:"timezone"`
	RecentFoodsLimit  int    `toml:"recent_foods_limit"`
	HistoryDays       int    `toml:"history_days"`
	BootstrapUserName string `toml:"bootstrap_user_name"`
	BootstrapPassword string `toml:"bootstrap_password"`
}

// Load 依次读取 .env、NUTRILOG_CONFIG 指向的 TOML 文件与环境变量，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFile(env("NUTRILOG_CONFIG"))
}

// LoadFile 以指定 TOML 文件为底，叠加环境变量；path 为空时只读取环境变量。
func LoadFile(path string) (AppConfig, error) {
	var file fileConfig
	if strings.TrimSpace(path) != "" {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	port := firstNonEmpty(env("PORT"), file.Port, "8080")
	listenAddr := firstNonEmpty(env("LISTEN_ADDR"), file.ListenAddr, fmt.Sprintf(":%s", port))

	ttl := DefaultTokenTTL
	if raw := firstNonEmpty(env("TOKEN_TTL"), file.TokenTTL); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return AppConfig{}, fmt.Errorf("invalid token ttl %q", raw)
		}
		ttl = parsed
	}

	recentLimit, err := intSetting("RECENT_FOODS_LIMIT", file.RecentFoodsLimit, 5)
	if err != nil {
		return AppConfig{}, err
	}
	historyDays, err := intSetting("HISTORY_DAYS", file.HistoryDays, 14)
	if err != nil {
		return AppConfig{}, err
	}

	cfg := AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      firstNonEmpty(env("DATABASE_PATH"), file.DatabasePath, "nutrilog.db"),
		SessionSecret:     firstNonEmpty(env("SESSION_SECRET"), file.SessionSecret, "nutrilog-dev-secret"),
		JWTSecret:         firstNonEmpty(env("JWT_SECRET"), file.JWTSecret, "nutrilog-dev-jwt-secret"),
		TokenTTL:          ttl,
		GinMode:           firstNonEmpty(env("GIN_MODE"), file.GinMode, "release"),
		Timezone:          firstNonEmpty(env("TIMEZONE"), file.Timezone),
		RecentFoodsLimit:  recentLimit,
		HistoryDays:       historyDays,
		BootstrapUserName: firstNonEmpty(env("BOOTSTRAP_USER_NAME"), file.BootstrapUserName),
		BootstrapPassword: firstNonEmpty(env("BOOTSTRAP_PASSWORD"), file.BootstrapPassword),
	}

	if _, err := cfg.Location(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// DefaultTokenTTL 是访问令牌的默认有效期
const DefaultTokenTTL = 7 * 24 * time.Hour

// Location 返回计算「今天」所用的时区，未配置时使用本地时区。
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func intSetting(key string, fromFile, fallback int) (int, error) {
	if raw := env(key); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			return 0, fmt.Errorf("invalid %s %q", strings.ToLower(key), raw)
		}
		return value, nil
	}
	if fromFile > 0 {
		return fromFile, nil
	}
	return fallback, nil
}
