package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Конечная структура конфигурации приложения.
type Config struct {
	Server struct {
		Address      string        `mapstructure:"address" yaml:"address"`               // 0.0.0.0
		HTTPPort     string        `mapstructure:"http_port" yaml:"http_port"`           // 8080
		MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"` // 512 MiB
		ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	} `mapstructure:"server" yaml:"server"`

	Logging struct {
		Level  string `mapstructure:"level" yaml:"level"`   // trace|debug|info|warning|error|fatal
		Format string `mapstructure:"format" yaml:"format"` // text|json
		File   string `mapstructure:"file" yaml:"file"`     // путь/префикс файла, пусто - только stdout
	} `mapstructure:"logs" yaml:"logs"`

	Database struct {
		Driver    string        `mapstructure:"driver" yaml:"driver"` // "mongo" | "postgres" | "mysql" | "sqlite"
		DSN       string        `mapstructure:"dsn" yaml:"dsn"`       // mongodb://localhost:27017 | postgres://... | file:formfill.db
		Name      string        `mapstructure:"name" yaml:"name"`     // имя базы для mongo
		OpTimeout time.Duration `mapstructure:"op_timeout" yaml:"op_timeout"`
	} `mapstructure:"database" yaml:"database"`

	Redtail struct {
		APIURL   string        `mapstructure:"api_url" yaml:"api_url"`
		APIKey   string        `mapstructure:"api_key" yaml:"-"`
		Username string        `mapstructure:"username" yaml:"username"`
		Password string        `mapstructure:"password" yaml:"-"`
		Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	} `mapstructure:"redtail" yaml:"redtail"`
}

// Load читает конфиг из env/файла с дефолтами.
// REDTAIL_API_KEY, REDTAIL_USERNAME и т.п. попадают в секцию redtail через key replacer.
func Load() (*Config, error) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("database.dsn", "DATABASE_DSN", "MONGO_URI")

	viper.SetDefault("server.address", "0.0.0.0")
	viper.SetDefault("server.http_port", "8080")
	viper.SetDefault("server.max_body_bytes", int64(512<<20))
	viper.SetDefault("server.read_timeout", 2*time.Minute)
	viper.SetDefault("server.write_timeout", 2*time.Minute)

	viper.SetDefault("logs.level", "info")
	viper.SetDefault("logs.format", "text")
	viper.SetDefault("logs.file", "")

	viper.SetDefault("database.driver", "mongo")
	viper.SetDefault("database.dsn", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "formfill")
	viper.SetDefault("database.op_timeout", 30*time.Second)

	viper.SetDefault("redtail.api_url", "")
	viper.SetDefault("redtail.api_key", "")
	viper.SetDefault("redtail.username", "")
	viper.SetDefault("redtail.password", "")
	viper.SetDefault("redtail.timeout", 20*time.Second)

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			viper.AddConfigPath(filepath.Join(xdg, "formfill"))
		}
		viper.AddConfigPath("/etc/formfill")
	}

	// Чтение файла (опционально)
	if err := viper.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	switch c.Database.Driver {
	case "mongo", "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn must not be empty")
	}
	if c.Database.Driver == "mongo" && strings.TrimSpace(c.Database.Name) == "" {
		return errors.New("database.name must be set for mongo")
	}
	return nil
}
