package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

const (
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type ConfigSchema struct {
	Databases struct {
		// Driver is "postgres" or "sqlite". For sqlite, Master.DBName is the file path.
		Driver   string     `yaml:"driver"`
		Master   DBConfig   `yaml:"master"`
		Replicas []DBConfig `yaml:"replicas"`
	} `yaml:"db"`
	Redis    RedisConfig `yaml:"redis"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Logs struct {
		Level   string `yaml:"level"`
		Service string `yaml:"service"`
	} `yaml:"logs"`
	Relations struct {
		Backend string `yaml:"backend"`
	} `yaml:"relations"`
	Messages struct {
		Sequencer string `yaml:"sequencer"`
	} `yaml:"messages"`
	Directory struct {
		// UnreadConcurrency bounds the parallel unread counts per listing; 0 means unbounded.
		UnreadConcurrency int `yaml:"unread_concurrency"`
	} `yaml:"directory"`
	Repair struct {
		Enabled     bool `yaml:"enabled"`
		Workers     int  `yaml:"workers"`
		MaxAttempts int  `yaml:"max_attempts"`
	} `yaml:"repair"`
}

var AppConfig *ConfigSchema

// LoadConfig reads the yaml file, applies environment overrides and stores the result in AppConfig.
func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf, err := Parse(data)
	if err != nil {
		return err
	}
	AppConfig = conf
	return nil
}

func Parse(data []byte) (*ConfigSchema, error) {
	conf := &ConfigSchema{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyEnv(conf)
	applyDefaults(conf)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *ConfigSchema) Validate() error {
	switch c.Databases.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db driver %q", c.Databases.Driver)
	}
	for name, v := range map[string]string{
		"relations.backend":  c.Relations.Backend,
		"messages.sequencer": c.Messages.Sequencer,
	} {
		if v != BackendSQL && v != BackendRedis {
			return fmt.Errorf("%s must be %q or %q, got %q", name, BackendSQL, BackendRedis, v)
		}
	}
	if c.Directory.UnreadConcurrency < 0 {
		return fmt.Errorf("directory.unread_concurrency must not be negative")
	}
	return nil
}

// NeedsRedis reports whether any configured component is backed by Redis.
func (c *ConfigSchema) NeedsRedis() bool {
	return c.Relations.Backend == BackendRedis ||
		c.Messages.Sequencer == BackendRedis ||
		c.Repair.Enabled
}

func applyDefaults(c *ConfigSchema) {
	if c.Databases.Driver == "" {
		c.Databases.Driver = "postgres"
	}
	if c.Databases.Master.Port == 0 && c.Databases.Driver == "postgres" {
		c.Databases.Master.Port = 5432
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "chat_events"
	}
	if c.Backend.Port == 0 {
		c.Backend.Port = 8080
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Logs.Service == "" {
		c.Logs.Service = "chat-core"
	}
	if c.Relations.Backend == "" {
		c.Relations.Backend = BackendSQL
	}
	if c.Messages.Sequencer == "" {
		c.Messages.Sequencer = BackendSQL
	}
	if c.Repair.Workers == 0 {
		c.Repair.Workers = 2
	}
	if c.Repair.MaxAttempts == 0 {
		c.Repair.MaxAttempts = 5
	}
}

func applyEnv(c *ConfigSchema) {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Databases.Master.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Databases.Master.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Databases.Master.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Databases.Master.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Databases.Master.DBName = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
}
