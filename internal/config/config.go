package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TICK_TASK_PORT.
const EnvPrefix = "TICK_TASK"

const databaseFile = "tick-task.db"

// Config keeps runtime settings for the service.
type Config struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"min=1024,max=65535"`
	Debug           bool          `mapstructure:"debug"`
	DatabaseURL     string        `mapstructure:"database_url"`
	DataDir         string        `mapstructure:"data_dir" validate:"required"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabasePath resolves the SQLite location from DatabaseURL, falling back to a
// file inside DataDir. SQLAlchemy-style sqlite:/// URLs are accepted.
func (c Config) DatabasePath() string {
	url := strings.TrimSpace(c.DatabaseURL)
	if url == "" {
		return filepath.Join(c.DataDir, databaseFile)
	}
	for _, prefix := range []string{"sqlite+aiosqlite://", "sqlite+pysqlite://", "sqlite://"} {
		if strings.HasPrefix(url, prefix) {
			path := strings.TrimPrefix(url, prefix)
			// sqlite:///./x.db is relative, sqlite:////abs/x.db is absolute.
			path = strings.TrimPrefix(path, "/")
			if path == "" {
				return filepath.Join(c.DataDir, databaseFile)
			}
			return path
		}
	}
	return url
}

// Load reads configuration from flags, environment variables, an optional .env
// file and an optional config file (--config), with sane defaults.
func Load(flags *pflag.FlagSet) (Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return Config{}, err
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func Validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", e.Field(), e.ActualTag(), e.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func setDefaults(v *viper.Viper) {
	dataDir := ".tick-task"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".tick-task")
	}

	v.SetDefault("config", "")
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 7000)
	v.SetDefault("debug", false)
	v.SetDefault("database_url", "")
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("read_timeout", 15*time.Second)
	v.SetDefault("write_timeout", 15*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"config": "config",
	"host":   "host",
	"port":   "port",
	"debug":  "debug",
	"db":     "database_url",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
