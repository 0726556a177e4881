package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	envDBPassword = "DB_PASSWORD"
	envHTTPPort   = "HTTP_PORT"
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig     `toml:"server"`
	Database       DatabaseConfig   `toml:"database"`
	Storage        StorageConfig    `toml:"storage"`
	Logs           LogsConfig       `toml:"logs"`
	Metrics        MetricsConfig    `toml:"metrics"`
	CatalogService ServiceConfig    `toml:"catalog_service"`
	Scheduling     SchedulingConfig `toml:"scheduling"`
	Sweep          SweepConfig      `toml:"sweep"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// StorageConfig выбор драйвера хранилища
type StorageConfig struct {
	Driver string `toml:"driver"` // postgres | memory
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// ServiceConfig настройки внешнего сервиса (timeout в секундах)
type ServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// SchedulingConfig значения политики по умолчанию, когда у салона нет своей
type SchedulingConfig struct {
	SlotGranularityMinutes  int    `toml:"slot_granularity_minutes"`
	NoShowGraceMinutes      int    `toml:"no_show_grace_minutes"`
	BufferMinutes           int    `toml:"buffer_minutes"`
	MinBookingNoticeMinutes int    `toml:"min_booking_notice_minutes"`
	AdvanceBookingDays      int    `toml:"advance_booking_days"`
	CommissionRate          string `toml:"commission_rate"`
	PastToleranceMinutes    int    `toml:"past_tolerance_minutes"`
}

// PolicyDefaults конвертирует настройки в значения политики по умолчанию
func (c SchedulingConfig) PolicyDefaults() (domain.PolicyDefaults, error) {
	rate, err := decimal.NewFromString(c.CommissionRate)
	if err != nil {
		return domain.PolicyDefaults{}, fmt.Errorf("invalid commission_rate %q: %w", c.CommissionRate, err)
	}

	d := domain.PolicyDefaults{
		SlotGranularityMinutes:  c.SlotGranularityMinutes,
		NoShowGraceMinutes:      c.NoShowGraceMinutes,
		BufferMinutes:           c.BufferMinutes,
		MinBookingNoticeMinutes: c.MinBookingNoticeMinutes,
		AdvanceBookingDays:      c.AdvanceBookingDays,
		CommissionRate:          rate,
	}
	if err := d.Policy(0).Validate(); err != nil {
		return domain.PolicyDefaults{}, err
	}
	return d, nil
}

// SweepConfig настройки фонового перевода неявок
type SweepConfig struct {
	Enabled   bool   `toml:"enabled"`
	Schedule  string `toml:"schedule"` // cron выражение
	BatchSize int    `toml:"batch_size"`
	Timeout   int    `toml:"timeout"` // секунды на один прогон
}

// Load читает конфигурацию из TOML файла
// Незаданные значения берутся из Default, секреты можно переопределить переменными окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "nguessbeauty-scheduling",
		},
		CatalogService: ServiceConfig{Timeout: 5},
		Scheduling: SchedulingConfig{
			SlotGranularityMinutes:  domain.DefaultSlotGranularityMinutes,
			NoShowGraceMinutes:      domain.DefaultNoShowGraceMinutes,
			BufferMinutes:           domain.DefaultBufferMinutes,
			MinBookingNoticeMinutes: domain.DefaultMinBookingNoticeMinutes,
			AdvanceBookingDays:      domain.DefaultAdvanceBookingDays,
			CommissionRate:          domain.DefaultCommissionRate,
			PastToleranceMinutes:    domain.DefaultPastToleranceMinutes,
		},
		Sweep: SweepConfig{
			Enabled:   true,
			Schedule:  "*/5 * * * *",
			BatchSize: 100,
			Timeout:   60,
		},
	}
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(envDBPassword); ok {
		c.Database.Password = v
	}
	if v, ok := os.LookupEnv(envHTTPPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", envHTTPPort, v, err)
		}
		c.Server.HTTPPort = port
	}
	return nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port must be in 1..65535, got %d", c.Server.HTTPPort))
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("database.host and database.dbname are required for postgres storage"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q",
			StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver))
	}

	if c.CatalogService.URL == "" {
		errs = append(errs, errors.New("catalog_service.url is required"))
	}

	if _, err := c.Scheduling.PolicyDefaults(); err != nil {
		errs = append(errs, fmt.Errorf("scheduling: %w", err))
	}
	if c.Scheduling.PastToleranceMinutes < 0 {
		errs = append(errs, errors.New("scheduling.past_tolerance_minutes must not be negative"))
	}

	if c.Sweep.Enabled {
		if _, err := cron.ParseStandard(c.Sweep.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("sweep.schedule: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
