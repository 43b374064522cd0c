package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort        = 3344
	defaultEnv         = "development"
	defaultDBHost      = "127.0.0.1"
	defaultDBPort      = 3306
	defaultDBUser      = "root"
	defaultDBPassword  = "password"
	defaultDBName      = "memloc"
	defaultDBCharset   = "utf8mb4"
	defaultRedisURL    = "redis://localhost:6379/0"
	defaultStaticDir   = "./static"
)

// AppConfig holds runtime startup configuration loaded from YAML, with
// MEMLOC_* environment variables as fallbacks.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	DSN            string         `yaml:"dsn"`
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	StaticDir      string         `yaml:"static_dir"`
	S3             S3Options      `yaml:"s3"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

// S3Options configures the optional asset mirror.
type S3Options struct {
	Enable          bool   `yaml:"enable"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	CustomDomain    string `yaml:"custom_domain"`
}

// Load reads the config file (if present), applies environment fallbacks and
// defaults, and assembles the MySQL DSN.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Env-only deployment is fine.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.DSN == "" {
		cfg.DSN = cfg.Database.buildDSN()
	}
	return cfg, nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("MEMLOC_PORT"); v != "" && c.Port == 0 {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("MEMLOC_ENV"); v != "" && c.Env == "" {
		c.Env = v
	}
	if v := os.Getenv("MEMLOC_DSN"); v != "" && c.DSN == "" {
		c.DSN = v
	}
	if v := os.Getenv("MEMLOC_REDIS_URL"); v != "" && c.RedisURL == "" {
		c.RedisURL = v
	}
	if v := os.Getenv("MEMLOC_JWT_SECRET"); v != "" && c.JWTSecret == "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("MEMLOC_STATIC_DIR"); v != "" && c.StaticDir == "" {
		c.StaticDir = v
	}
	if v := os.Getenv("MEMLOC_ALLOWED_ORIGINS"); v != "" && len(c.AllowedOrigins) == 0 {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.RedisURL == "" {
		c.RedisURL = defaultRedisURL
	}
	if c.StaticDir == "" {
		c.StaticDir = defaultStaticDir
	}
	c.Database.applyDefaults()
}

func (d *DatabaseConfig) applyDefaults() {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Password == "" {
		d.Password = defaultDBPassword
	}
	if d.Name == "" {
		d.Name = defaultDBName
	}
	if d.Charset == "" {
		d.Charset = defaultDBCharset
	}
}

func (d *DatabaseConfig) buildDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name, d.Charset)
}
