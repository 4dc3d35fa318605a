package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDir         = "configs"
	defaultConfigFile = "values_local.yaml"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config ...
type Config struct {
	Telegram struct {
		Token    string        `mapstructure:"token"`
		Debug    bool          `mapstructure:"debug"`
		Cooldown time.Duration `mapstructure:"cooldown"` // пауза между тяжёлыми командами в одном чате
	} `mapstructure:"telegram"`

	DB struct {
		Driver      string        `mapstructure:"driver"` // memory | postgres | sqlite
		DSN         string        `mapstructure:"dsn"`
		MaxConns    int32         `mapstructure:"max_conns"`
		ConnTimeout time.Duration `mapstructure:"conn_timeout"`
		Path        string        `mapstructure:"path"` // файл sqlite
	} `mapstructure:"db"`

	Binance struct {
		RESTURL string        `mapstructure:"rest_url"`
		WSURL   string        `mapstructure:"ws_url"`
		Timeout time.Duration `mapstructure:"timeout"`
		Stream  bool          `mapstructure:"stream"`
	} `mapstructure:"binance"`

	OpenAI struct {
		APIKey  string        `mapstructure:"api_key"`
		BaseURL string        `mapstructure:"base_url"`
		Model   string        `mapstructure:"model"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"openai"`

	FearGreed struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"fear_greed"`

	Alarms struct {
		Schedule   string `mapstructure:"schedule"` // cron с секундами
		MaxPerUser int    `mapstructure:"max_per_user"`
	} `mapstructure:"alarms"`

	Service struct {
		Host      string `mapstructure:"host"`
		AdminPort int    `mapstructure:"admin_port"`
	} `mapstructure:"service"`

	Tracing struct {
		Enabled    bool    `mapstructure:"enabled"`
		Host       string  `mapstructure:"host"`
		Port       int     `mapstructure:"port"`
		SampleRate float64 `mapstructure:"sample_rate"`
	} `mapstructure:"tracing"`

	Log struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"log"`

	AliasesFile string `mapstructure:"aliases_file"`

	// Aliases: синонимы монет (bitcoin -> BTC), читаются из AliasesFile.
	Aliases map[string]string `mapstructure:"-"`
}

func NewConfig() (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load(filepath.Join(configDir, configFileName))
}

// Load читает yaml-конфиг, переменные окружения перекрывают значения из файла.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"telegram.token":  "TELEGRAM_TOKEN",
		"db.dsn":          "DATABASE_DSN",
		"db.driver":       "DATABASE_DRIVER",
		"openai.api_key":  "OPENAI_API_KEY",
		"tracing.enabled": "TRACING_ENABLED",
		"log.level":       "LOG_LEVEL",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if cfg.AliasesFile != "" {
		if !filepath.IsAbs(cfg.AliasesFile) {
			cfg.AliasesFile = filepath.Join(filepath.Dir(path), cfg.AliasesFile)
		}
		aliases, err := LoadAliases(cfg.AliasesFile)
		if err != nil {
			return nil, err
		}
		cfg.Aliases = aliases
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.cooldown", "3s")
	v.SetDefault("db.driver", DriverMemory)
	v.SetDefault("db.path", "alarms.db")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.conn_timeout", "5s")
	v.SetDefault("binance.rest_url", "https://api.binance.com")
	v.SetDefault("binance.ws_url", "wss://stream.binance.com:9443/ws/!miniTicker@arr")
	v.SetDefault("binance.timeout", "10s")
	v.SetDefault("binance.stream", true)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", "30s")
	v.SetDefault("fear_greed.url", "https://api.alternative.me/fng/?limit=7&format=json")
	v.SetDefault("alarms.schedule", "*/30 * * * * *")
	v.SetDefault("alarms.max_per_user", 10)
	v.SetDefault("service.admin_port", 8080)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("log.level", "info")
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for driver %q", c.DB.Driver)
		}
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}
	if c.Alarms.MaxPerUser <= 0 {
		return fmt.Errorf("alarms.max_per_user must be positive, got %d", c.Alarms.MaxPerUser)
	}
	return nil
}

// AdminAddr: адрес health-сервера.
func (c *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.AdminPort)
}

// AIEnabled: без ключа комментарии модели выключены.
func (c *Config) AIEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// LoadAliases читает таблицу синонимов монет: ключи приводятся к нижнему регистру, значения к верхнему.
func LoadAliases(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aliases %s: %w", path, err)
	}

	var parsed map[string]string
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode aliases %s: %w", path, err)
	}

	out := make(map[string]string, len(parsed))
	for k, v := range parsed {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out, nil
}
