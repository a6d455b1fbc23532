// Package config provides configuration loading and path management.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "mapcode"

	// CacheDirName is the cache directory name.
	CacheDirName = ".mapcode"

	// EnvPrefix is the prefix of configuration environment variables.
	EnvPrefix = "MAPCODE"

	// SnapshotsDirName is the snapshots subdirectory name.
	SnapshotsDirName = "snapshots"

	// LatestSymlink is the name of the latest snapshot symlink.
	LatestSymlink = "latest"

	// MetadataFileName is the metadata file name.
	MetadataFileName = "metadata.json"

	// TerritoriesFileName is the territory table file name.
	TerritoriesFileName = "territories.json"

	// ResultCacheFileName is the result cache file name.
	ResultCacheFileName = "results.json"

	// DefaultConcurrency is the default batch concurrency.
	DefaultConcurrency = 4

	// MaxConcurrency is the maximum allowed batch concurrency.
	MaxConcurrency = 8

	// DefaultCacheTTLDays is the default TTL for cached results.
	DefaultCacheTTLDays = 30

	// DefaultClientID is sent to the Mapcode API as the client parameter.
	DefaultClientID = "cli"
)

// Config holds all configuration.
type Config struct {
	API      APIConfig
	Geocoder GeocoderConfig
	Limits   LimitsConfig
	Cache    CacheConfig
	Log      LogConfig
	Server   ServerConfig
	Source   SourceConfig
}

// APIConfig configures the Mapcode REST API client.
type APIConfig struct {
	Host     string
	Client   string
	AllowLog bool
	Timeout  time.Duration
	Retries  int
}

// GeocoderConfig configures the Nominatim geocoder.
type GeocoderConfig struct {
	URL       string
	UserAgent string
	Country   string // user's country, decides the house number position
	Language  string
}

// LimitsConfig holds the rate limits of the interactive session.
type LimitsConfig struct {
	Geocode time.Duration
	Mapcode time.Duration
	Online  time.Duration
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Dir     string
	TTLDays int
	Redis   RedisConfig
}

// RedisConfig configures the optional Redis result cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// ServerConfig holds gateway configuration.
type ServerConfig struct {
	Port int
}

// SourceConfig selects the lookup source.
type SourceConfig struct {
	Mode string // auto, online, offline
}

// Load reads configuration from .env, a config file and environment
// variables. An empty configFile searches the default locations.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/" + CacheDirName)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir()
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "https://api.mapcode.com")
	v.SetDefault("api.client", DefaultClientID)
	v.SetDefault("api.allowlog", false)
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.retries", 2)

	v.SetDefault("geocoder.url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.useragent", AppName+"-cli/1.0")
	v.SetDefault("geocoder.country", "")
	v.SetDefault("geocoder.language", "")

	v.SetDefault("limits.geocode", time.Second)
	v.SetDefault("limits.mapcode", time.Second)
	v.SetDefault("limits.online", 30*time.Second)

	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttldays", DefaultCacheTTLDays)
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.port", 8080)

	v.SetDefault("source.mode", "auto")
}

// ServerAddr returns the gateway address in the format ":port".
func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// NewLogger creates a logger writing to stderr, so stdout stays free for
// command output.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stderr)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(c.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// DefaultCacheDir returns the default cache directory path.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory
		home = "."
	}
	return filepath.Join(home, CacheDirName, "cache")
}

// SnapshotsDir returns the snapshots directory path.
func SnapshotsDir(cacheDir string) string {
	return filepath.Join(cacheDir, SnapshotsDirName)
}

// SnapshotDir returns the path for a specific snapshot.
func SnapshotDir(cacheDir, date string) string {
	return filepath.Join(SnapshotsDir(cacheDir), date)
}

// LatestSnapshotPath returns the path to the latest symlink.
func LatestSnapshotPath(cacheDir string) string {
	return filepath.Join(SnapshotsDir(cacheDir), LatestSymlink)
}

// MetadataPath returns the metadata file path for a snapshot.
func MetadataPath(snapshotDir string) string {
	return filepath.Join(snapshotDir, MetadataFileName)
}

// TerritoriesPath returns the territory table path for a snapshot.
func TerritoriesPath(snapshotDir string) string {
	return filepath.Join(snapshotDir, TerritoriesFileName)
}

// ResultCachePath returns the result cache file path.
func ResultCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, ResultCacheFileName)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// IsWindows returns true if running on Windows.
func IsWindows() bool {
	return runtime.GOOS == "windows"
}
