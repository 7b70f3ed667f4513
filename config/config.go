package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DevJWTSecret is used when no signing secret is configured. Never deploy with it.
const DevJWTSecret = "dev-secret-key-change-me"

// AppConfig holds environment driven configuration values.
type AppConfig struct {
	AppPort string
	// Token signing
	JWTSecret                string
	JWTAlgorithm             string
	AccessTokenExpireMinutes int
	// Storage
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// HTTP
	RateLimitPerMinute int
	AllowedOrigins     []string
	PostsOpenToMembers bool
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for response caching
	RedisEnabled    bool
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisPassword   string
	CacheTTLSeconds int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// Load reads configuration from config/config.json, defaults and the environment.
func Load() AppConfig {
	cfg, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("invalid config file: %v", err)
	}
	if cfg.JWTSecret == DevJWTSecret {
		log.Println("warning: SECRET_KEY not set, using development signing secret")
	}
	return cfg
}

// LoadFrom applies the precedence config file -> defaults -> environment overrides.
// A missing file is not an error.
func LoadFrom(path string) (AppConfig, error) {
	var cfg AppConfig
	if err := loadJSONConfig(path, &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// fileConfig mirrors the grouped sections of config.json.
type fileConfig struct {
	App struct {
		AppPort            string
		RateLimitPerMinute int
		AllowedOrigins     []string
		PostsOpenToMembers bool
	} `json:"app"`
	Auth struct {
		SecretKey                string
		Algorithm                string
		AccessTokenExpireMinutes int
	} `json:"auth"`
	Gin struct {
		Mode    string
		LogPath string
	} `json:"gin"`
	Database struct {
		Driver      string
		DatabaseURI string
		DBHost      string
		DBPort      string
		DBUser      string
		DBPassword  string
		DBName      string
	} `json:"database"`
	Redis struct {
		Enabled         bool
		RedisHost       string
		RedisPort       int
		RedisDB         int
		RedisPassword   string
		CacheTTLSeconds int
	} `json:"redis"`
	Log struct {
		Level      string
		Path       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	} `json:"log"`
}

// loadJSONConfig reads path into out. A missing file leaves out untouched.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var fc fileConfig
	if err := json.NewDecoder(f).Decode(&fc); err != nil {
		return err
	}

	*out = AppConfig{
		AppPort:                  fc.App.AppPort,
		RateLimitPerMinute:       fc.App.RateLimitPerMinute,
		AllowedOrigins:           fc.App.AllowedOrigins,
		PostsOpenToMembers:       fc.App.PostsOpenToMembers,
		JWTSecret:                fc.Auth.SecretKey,
		JWTAlgorithm:             strings.ToUpper(fc.Auth.Algorithm),
		AccessTokenExpireMinutes: fc.Auth.AccessTokenExpireMinutes,
		GinMode:                  fc.Gin.Mode,
		GinPath:                  fc.Gin.LogPath,
		DBDriver:                 strings.ToLower(fc.Database.Driver),
		DatabaseURI:              fc.Database.DatabaseURI,
		DBHost:                   fc.Database.DBHost,
		DBPort:                   fc.Database.DBPort,
		DBUser:                   fc.Database.DBUser,
		DBPassword:               fc.Database.DBPassword,
		DBName:                   fc.Database.DBName,
		RedisEnabled:             fc.Redis.Enabled,
		RedisHost:                fc.Redis.RedisHost,
		RedisPort:                fc.Redis.RedisPort,
		RedisDB:                  fc.Redis.RedisDB,
		RedisPassword:            fc.Redis.RedisPassword,
		CacheTTLSeconds:          fc.Redis.CacheTTLSeconds,
		LogLevel:                 strings.ToLower(fc.Log.Level),
		LogPath:                  fc.Log.Path,
		LogMaxSizeMB:             fc.Log.MaxSizeMB,
		LogMaxBackups:            fc.Log.MaxBackups,
		LogMaxAgeDays:            fc.Log.MaxAgeDays,
		LogCompress:              fc.Log.Compress,
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8000"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = DevJWTSecret
	}
	if c.JWTAlgorithm == "" {
		c.JWTAlgorithm = "HS256"
	}
	if c.AccessTokenExpireMinutes == 0 {
		c.AccessTokenExpireMinutes = 60 * 24
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "labubananas"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 300
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
// Later entries win, so SECRET_KEY beats JWT_SECRET and DATABASE_URL beats DATABASE_URI.
func applyEnvOverrides(c *AppConfig) {
	strs := []struct {
		key string
		dst *string
	}{
		{"APP_PORT", &c.AppPort},
		{"JWT_SECRET", &c.JWTSecret},
		{"SECRET_KEY", &c.JWTSecret},
		{"GIN_MODE", &c.GinMode},
		{"GIN_PATH", &c.GinPath},
		{"DATABASE_URI", &c.DatabaseURI},
		{"DATABASE_URL", &c.DatabaseURI},
		{"DB_HOST", &c.DBHost},
		{"DB_PORT", &c.DBPort},
		{"DB_USER", &c.DBUser},
		{"DB_PASSWORD", &c.DBPassword},
		{"DB_NAME", &c.DBName},
		{"REDIS_HOST", &c.RedisHost},
		{"REDIS_PASSWORD", &c.RedisPassword},
		{"LOG_PATH", &c.LogPath},
	}
	for _, e := range strs {
		if v := os.Getenv(e.key); v != "" {
			*e.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ACCESS_TOKEN_EXPIRE_MINUTES", &c.AccessTokenExpireMinutes},
		{"RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute},
		{"REDIS_PORT", &c.RedisPort},
		{"REDIS_DB", &c.RedisDB},
		{"CACHE_TTL_SECONDS", &c.CacheTTLSeconds},
		{"LOG_MAX_SIZE_MB", &c.LogMaxSizeMB},
		{"LOG_MAX_BACKUPS", &c.LogMaxBackups},
		{"LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			*e.dst = mustParseInt(v)
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"POSTS_OPEN_TO_MEMBERS", &c.PostsOpenToMembers},
		{"REDIS_ENABLED", &c.RedisEnabled},
		{"LOG_COMPRESS", &c.LogCompress},
	}
	for _, e := range bools {
		if v := os.Getenv(e.key); v != "" {
			*e.dst = parseBool(v)
		}
	}

	if v := os.Getenv("ALGORITHM"); v != "" {
		c.JWTAlgorithm = strings.ToUpper(v)
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.DBDriver = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	c.AllowedOrigins = readListEnv("ALLOWED_ORIGINS", c.AllowedOrigins)
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func parseBool(val string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		log.Printf("invalid boolean value %q, treating as false", val)
		return false
	}
	return b
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
