package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr            string
		ShutdownTimeout time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
	Database struct {
		Driver string
		Path   string
		DSN    string
	}
	Auth struct {
		JWTSecret     string
		TokenTTL      time.Duration
		Hasher        string
		BcryptCost    int
		SecureCookies bool
	}
	RateLimit struct {
		RPS   float64
		Burst int
	}
	Storage struct {
		Backend   string
		Dir       string
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// String omits the JWT secret.
func (c Config) String() string {
	return fmt.Sprintf("addr=%s db=%s storage=%s hasher=%s ttl=%s",
		c.Server.Addr, c.Database.Driver, c.Storage.Backend, c.Auth.Hasher, c.Auth.TokenTTL)
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth jwt secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth token ttl must be positive"))
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database path is required for sqlite"))
		}
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	switch c.Auth.Hasher {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("unknown password hasher %q", c.Auth.Hasher))
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage bucket is required for s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables and optional config files.
// path names an explicit config file; when empty a config.* file in the
// working directory is used if present. flags, when non-nil, override both.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("STUDENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8081")
	v.SetDefault("server.shutdowntimeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/students.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", time.Hour)
	v.SetDefault("auth.hasher", "bcrypt")
	v.SetDefault("auth.bcryptcost", bcrypt.DefaultCost)
	v.SetDefault("auth.securecookies", false)
	v.SetDefault("ratelimit.rps", 5)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "profile-pics")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	// Unprefixed names used by existing deployments.
	if err := v.BindEnv("auth.jwtsecret", "STUDENTS_AUTH_JWTSECRET", "JWT_SECRET_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	if flags != nil {
		if f := flags.Lookup("addr"); f != nil {
			if err := v.BindPFlag("server.addr", f); err != nil {
				return Config{}, fmt.Errorf("bind flag addr: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Auth.Hasher = strings.ToLower(strings.TrimSpace(cfg.Auth.Hasher))
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))

	return cfg, nil
}

func loadDotEnv(name string) {
	file, err := os.Open(name)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
