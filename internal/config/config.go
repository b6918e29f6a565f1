package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"alertengine/internal/domain"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultHTTPListen         = ":8080"
	defaultHealthPath         = "/healthz"
	defaultReadyPath          = "/readyz"
	defaultIngestPath         = "/ingest"
	defaultNATSURL            = "nats://127.0.0.1:4222"
	defaultNATSSubject        = "alertengine.events"
	defaultNATSIngestStream   = "ALERTENGINE_EVENTS"
	defaultNATSIngestConsumer = "alertengine-ingest"
	defaultNATSIngestGroup    = "alertengine-workers"
	defaultNATSAckWaitSec     = 30
	defaultNATSNackDelayMS    = 1000
	defaultNATSMaxDeliver     = -1
	defaultNATSMaxAckPending  = 2048
	defaultSweepIntervalSec   = 5
	defaultRetentionDays      = 14
	defaultKafkaTopic         = "new-alerts"
	defaultNotifySubject      = "alertengine.alerts"
	defaultRedisAddr          = "127.0.0.1:6379"
	defaultRedisKeyPrefix     = "alertengine:threshold"

	// ServiceModeNATS keeps NATS-backed ingest and broker notifications.
	ServiceModeNATS = "nats"
	// ServiceModeSingle keeps single-instance mode without NATS dependencies.
	ServiceModeSingle = "single"

	// ThresholdBackendMemory keeps thresholded events in process memory.
	ThresholdBackendMemory = "memory"
	// ThresholdBackendRedis keeps thresholded events in Redis sorted sets.
	ThresholdBackendRedis = "redis"
)

// Config holds service runtime settings and alert definitions.
// Params: TOML sections from file or merged directory snapshot.
// Returns: validated runtime configuration.
type Config struct {
	Service    ServiceConfig      `toml:"service"`
	Log        LogConfig          `toml:"log"`
	Ingest     IngestConfig       `toml:"ingest"`
	Engine     EngineConfig       `toml:"engine"`
	Threshold  ThresholdConfig    `toml:"threshold"`
	Notify     NotifyConfig       `toml:"notify"`
	Definition []DefinitionConfig `toml:"definition"`
}

// rawConfig mirrors TOML model before runtime normalization.
// Params: decoded sections from one TOML source.
// Returns: raw definition map keyed by definition name.
type rawConfig struct {
	Service    ServiceConfig                  `toml:"service"`
	Log        LogConfig                      `toml:"log"`
	Ingest     IngestConfig                   `toml:"ingest"`
	Engine     EngineConfig                   `toml:"engine"`
	Threshold  ThresholdConfig                `toml:"threshold"`
	Notify     NotifyConfig                   `toml:"notify"`
	Definition map[string]rawDefinitionConfig `toml:"definition"`
}

// rawDefinitionConfig stores one definition body from `[definition.<name>]` table.
// Params: definition fields except top-level key-derived name.
// Returns: intermediate definition body used for normalization.
type rawDefinitionConfig struct {
	Name         string                  `toml:"name"`
	TenantID     string                  `toml:"tenant_id"`
	UEI          string                  `toml:"uei"`
	ReductionKey string                  `toml:"reduction_key"`
	ClearKey     string                  `toml:"clear_key"`
	Type         string                  `toml:"type"`
	PolicyID     int64                   `toml:"policy_id"`
	Condition    DefinitionConditionToml `toml:"condition"`
}

// ServiceConfig contains process-level settings.
// Params: service name and runtime mode.
// Returns: service behavior defaults.
type ServiceConfig struct {
	Name string `toml:"name"`
	Mode string `toml:"mode"`
}

// LogConfig contains console/file logging sinks.
// Params: sink settings for each output target.
// Returns: logger setup options.
type LogConfig struct {
	Console LogSinkConfig `toml:"console"`
	File    LogSinkConfig `toml:"file"`
}

// LogSinkConfig defines one logging sink.
// Params: sink enable flag, level, format, and path.
// Returns: sink-specific behavior.
type LogSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Path    string `toml:"path"`
}

// IngestConfig defines inbound event interfaces.
// Params: embedded HTTP and NATS subscription controls.
// Returns: ingestion runtime options.
type IngestConfig struct {
	HTTP HTTPIngestConfig `toml:"http"`
	NATS NATSIngestConfig `toml:"nats"`
}

// HTTPIngestConfig configures HTTP event ingestion endpoint.
// Params: enable flag, listen/endpoints, and optional body size limit.
// Returns: HTTP ingest behavior.
type HTTPIngestConfig struct {
	Enabled      bool   `toml:"enabled"`
	Listen       string `toml:"listen"`
	HealthPath   string `toml:"health_path"`
	ReadyPath    string `toml:"ready_path"`
	IngestPath   string `toml:"ingest_path"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// NATSIngestConfig configures JetStream queue-consumer ingestion.
// Params: connection + ack/redelivery policy; stream routing keys are runtime-fixed.
// Returns: NATS ingest behavior.
type NATSIngestConfig struct {
	Enabled       bool     `toml:"enabled"`
	URL           []string `toml:"url"`
	Subject       string   `toml:"-"`
	Stream        string   `toml:"-"`
	ConsumerName  string   `toml:"-"`
	DeliverGroup  string   `toml:"-"`
	AckWaitSec    int      `toml:"ack_wait_sec"`
	NackDelayMS   int      `toml:"nack_delay_ms"`
	MaxDeliver    int      `toml:"max_deliver"`
	MaxAckPending int      `toml:"max_ack_pending"`
}

// EngineConfig tunes the reduction engine and aging sweeper.
// Params: sweep cadence and alert retention window.
// Returns: engine runtime options.
type EngineConfig struct {
	SweepIntervalSec int `toml:"sweep_interval_sec"`
	RetentionDays    int `toml:"retention_days"`
}

// SweepInterval returns the aging sweep cadence as a duration.
// Params: none.
// Returns: configured sweep interval.
func (c EngineConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// Retention returns the alert retention window as a duration.
// Params: none.
// Returns: configured retention window.
func (c EngineConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// ThresholdConfig selects the thresholded-event backend.
// Params: backend name and Redis connection settings.
// Returns: threshold store options.
type ThresholdConfig struct {
	Backend string               `toml:"backend"`
	Redis   RedisThresholdConfig `toml:"redis"`
}

// RedisThresholdConfig configures the Redis threshold backend.
// Params: address, credentials, database index, and key namespace.
// Returns: Redis connection options.
type RedisThresholdConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
}

// NotifyConfig defines outbound notification transports.
// Params: per-transport settings for broker and chat channels.
// Returns: notification controls.
type NotifyConfig struct {
	NATS     NATSNotifyConfig     `toml:"nats"`
	Kafka    KafkaNotifyConfig    `toml:"kafka"`
	Telegram TelegramNotifyConfig `toml:"telegram"`
}

// NATSNotifyConfig configures the NATS lifecycle publisher.
// Params: enable flag and subject prefix; URLs reuse ingest.nats.url.
// Returns: NATS notify behavior.
type NATSNotifyConfig struct {
	Enabled bool     `toml:"enabled"`
	URL     []string `toml:"-"`
	Subject string   `toml:"subject"`
}

// KafkaNotifyConfig configures the Kafka lifecycle publisher.
// Params: enable flag, broker list, and topic.
// Returns: Kafka notify behavior.
type KafkaNotifyConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// TelegramNotifyConfig configures the Telegram chat notifier.
// Params: enabled flag, bot token, chat ID, and API base URL.
// Returns: Telegram sender configuration.
type TelegramNotifyConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
	APIBase  string `toml:"api_base"`
}

// DefinitionConfig describes one alert definition seeded at startup.
// Params: tenant/UEI scope, key templates, type, policy, and condition.
// Returns: runtime alert definition.
type DefinitionConfig struct {
	Name         string                  `toml:"name"`
	TenantID     string                  `toml:"tenant_id"`
	UEI          string                  `toml:"uei"`
	ReductionKey string                  `toml:"reduction_key"`
	ClearKey     string                  `toml:"clear_key"`
	Type         string                  `toml:"type"`
	PolicyID     int64                   `toml:"policy_id"`
	Condition    DefinitionConditionToml `toml:"condition"`
}

// DefinitionConditionToml mirrors the alert condition TOML table.
// Params: severity name, trigger count, and overtime window.
// Returns: condition fragment for one definition.
type DefinitionConditionToml struct {
	Severity     string `toml:"severity"`
	Count        int32  `toml:"count"`
	Overtime     int32  `toml:"overtime"`
	OvertimeUnit string `toml:"overtime_unit"`
}

// Domain converts one definition config entry into the domain type.
// Params: none.
// Returns: alert definition or conversion error for bad enum values.
func (d DefinitionConfig) Domain() (domain.AlertDefinition, error) {
	severity, err := domain.ParseSeverity(d.Condition.Severity)
	if err != nil {
		return domain.AlertDefinition{}, fmt.Errorf("definition %q: %w", d.Name, err)
	}
	alertType := domain.AlertTypeAlarm
	switch strings.ToLower(strings.TrimSpace(d.Type)) {
	case "", "alarm":
	case "clear":
		alertType = domain.AlertTypeClear
	default:
		return domain.AlertDefinition{}, fmt.Errorf("definition %q: unsupported type %q", d.Name, d.Type)
	}
	unit := domain.OvertimeUnitSecond
	switch strings.ToLower(strings.TrimSpace(d.Condition.OvertimeUnit)) {
	case "", "second":
	case "minute":
		unit = domain.OvertimeUnitMinute
	case "hour":
		unit = domain.OvertimeUnitHour
	default:
		return domain.AlertDefinition{}, fmt.Errorf("definition %q: unsupported overtime unit %q", d.Name, d.Condition.OvertimeUnit)
	}
	return domain.AlertDefinition{
		TenantID:     d.TenantID,
		UEI:          d.UEI,
		ReductionKey: d.ReductionKey,
		ClearKey:     d.ClearKey,
		Type:         alertType,
		PolicyID:     d.PolicyID,
		Condition: domain.AlertCondition{
			Severity:     severity,
			Count:        d.Condition.Count,
			Overtime:     d.Condition.Overtime,
			OvertimeUnit: unit,
		},
	}, nil
}

// ConfigSource describes file or directory config source.
// Params: exactly one of file path or directory path.
// Returns: normalized source descriptor.
type ConfigSource struct {
	File string
	Dir  string
}

// FromCLI builds normalized source configuration from input paths.
// Params: optional file and directory arguments.
// Returns: source descriptor or validation error.
func FromCLI(filePath, dirPath string) (ConfigSource, error) {
	filePath = strings.TrimSpace(filePath)
	dirPath = strings.TrimSpace(dirPath)

	if filePath == "" && dirPath == "" {
		return ConfigSource{}, errors.New("either --config-file or --config-dir must be provided")
	}
	if filePath != "" && dirPath != "" {
		return ConfigSource{}, errors.New("config source must be either file or dir")
	}

	if filePath != "" {
		return ConfigSource{File: filePath}, nil
	}
	return ConfigSource{Dir: dirPath}, nil
}

// LoadSnapshot loads and validates configuration from one source.
// Params: source selects file or directory mode.
// Returns: validated config or load/validation error.
func LoadSnapshot(src ConfigSource) (Config, error) {
	var cfg Config
	var err error
	if src.File != "" {
		cfg, err = loadFile(src.File)
	} else {
		cfg, err = loadDir(src.Dir)
	}
	if err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NormalizeServiceMode maps user mode input to supported values.
// Params: raw mode string from config.
// Returns: lower-cased mode with NATS default.
func NormalizeServiceMode(mode string) string {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		return ServiceModeNATS
	}
	return normalized
}

// IsSupportedServiceMode reports whether mode is recognized.
// Params: normalized mode string.
// Returns: true for nats/single.
func IsSupportedServiceMode(mode string) bool {
	return mode == ServiceModeNATS || mode == ServiceModeSingle
}

// normalizeRawConfig converts raw TOML model to runtime config.
// Params: decoded raw config from file fragment.
// Returns: normalized config snapshot.
func normalizeRawConfig(raw rawConfig) (Config, error) {
	cfg := Config{
		Service:   raw.Service,
		Log:       raw.Log,
		Ingest:    raw.Ingest,
		Engine:    raw.Engine,
		Threshold: raw.Threshold,
		Notify:    raw.Notify,
	}
	if len(raw.Definition) == 0 {
		return cfg, nil
	}

	names := make([]string, 0, len(raw.Definition))
	for name := range raw.Definition {
		names = append(names, name)
	}
	sort.Strings(names)
	cfg.Definition = make([]DefinitionConfig, 0, len(names))
	for _, name := range names {
		body := raw.Definition[name]
		if strings.TrimSpace(body.Name) != "" {
			return Config{}, fmt.Errorf("definition.%s.name is not supported; use [definition.%s] key as definition name", name, name)
		}
		cfg.Definition = append(cfg.Definition, DefinitionConfig{
			Name:         name,
			TenantID:     body.TenantID,
			UEI:          body.UEI,
			ReductionKey: body.ReductionKey,
			ClearKey:     body.ClearKey,
			Type:         body.Type,
			PolicyID:     body.PolicyID,
			Condition:    body.Condition,
		})
	}
	return cfg, nil
}

// loadFile reads one TOML configuration file.
// Params: file path to config snapshot.
// Returns: decoded config or read/decode error.
func loadFile(path string) (Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	var raw rawConfig
	if err := toml.Unmarshal(body, &raw); err != nil {
		return Config{}, fmt.Errorf("decode config file %q: %w", path, err)
	}
	cfg, err := normalizeRawConfig(raw)
	if err != nil {
		return Config{}, fmt.Errorf("decode config file %q: %w", path, err)
	}
	return cfg, nil
}

// loadDir reads and merges TOML files from one directory.
// Params: directory containing config fragments.
// Returns: merged config snapshot or load/decode error.
func loadDir(dir string) (Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Config{}, fmt.Errorf("read config dir %q: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.ToLower(filepath.Ext(name)) != ".toml" {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	if len(files) == 0 {
		return Config{}, fmt.Errorf("no .toml files found in %q", dir)
	}
	sort.Strings(files)

	var merged Config
	for _, file := range files {
		fragment, err := loadFile(file)
		if err != nil {
			return Config{}, err
		}
		mergeConfig(&merged, fragment)
	}
	return merged, nil
}

// mergeConfig overlays fragment sections onto destination.
// Params: destination config and next fragment.
// Returns: merged configuration side-effect in dst.
func mergeConfig(dst *Config, src Config) {
	if src.Service != (ServiceConfig{}) {
		dst.Service = src.Service
	}
	if src.Log != (LogConfig{}) {
		dst.Log = src.Log
	}
	if hasIngestConfig(src.Ingest) {
		dst.Ingest = src.Ingest
	}
	if src.Engine != (EngineConfig{}) {
		dst.Engine = src.Engine
	}
	if src.Threshold != (ThresholdConfig{}) {
		dst.Threshold = src.Threshold
	}
	if hasNotifyConfig(src.Notify) {
		dst.Notify = src.Notify
	}
	if len(src.Definition) > 0 {
		dst.Definition = append(dst.Definition, src.Definition...)
	}
}

// hasIngestConfig checks whether ingest section contains explicit values.
// Params: ingest configuration fragment.
// Returns: true when section should be merged.
func hasIngestConfig(cfg IngestConfig) bool {
	return cfg.HTTP != (HTTPIngestConfig{}) ||
		cfg.NATS.Enabled ||
		len(cfg.NATS.URL) > 0 ||
		cfg.NATS.AckWaitSec != 0 ||
		cfg.NATS.NackDelayMS != 0 ||
		cfg.NATS.MaxDeliver != 0 ||
		cfg.NATS.MaxAckPending != 0
}

// hasNotifyConfig checks whether notify section contains explicit values.
// Params: notify configuration fragment.
// Returns: true when section should be merged.
func hasNotifyConfig(cfg NotifyConfig) bool {
	if cfg.NATS.Enabled || strings.TrimSpace(cfg.NATS.Subject) != "" {
		return true
	}
	if cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) > 0 || strings.TrimSpace(cfg.Kafka.Topic) != "" {
		return true
	}
	return cfg.Telegram != (TelegramNotifyConfig{})
}

// applyDefaults fills omitted config fields with safe defaults.
// Params: cfg pointer to decoded snapshot.
// Returns: defaults applied in place.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Service.Name) == "" {
		cfg.Service.Name = "alertengine"
	}
	cfg.Service.Mode = NormalizeServiceMode(cfg.Service.Mode)

	if cfg.Log.Console.Level == "" {
		cfg.Log.Console.Level = "info"
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = "line"
	}
	if cfg.Log.File.Level == "" {
		cfg.Log.File.Level = "info"
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = "json"
	}
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}

	if strings.TrimSpace(cfg.Ingest.HTTP.Listen) == "" {
		cfg.Ingest.HTTP.Listen = defaultHTTPListen
	}
	if strings.TrimSpace(cfg.Ingest.HTTP.HealthPath) == "" {
		cfg.Ingest.HTTP.HealthPath = defaultHealthPath
	}
	if strings.TrimSpace(cfg.Ingest.HTTP.ReadyPath) == "" {
		cfg.Ingest.HTTP.ReadyPath = defaultReadyPath
	}
	if strings.TrimSpace(cfg.Ingest.HTTP.IngestPath) == "" {
		cfg.Ingest.HTTP.IngestPath = defaultIngestPath
	}
	if cfg.Ingest.HTTP.MaxBodyBytes <= 0 {
		cfg.Ingest.HTTP.MaxBodyBytes = 2 << 20
	}

	if cfg.Service.Mode == ServiceModeSingle {
		// Single mode always disables NATS-dependent paths regardless of user flags.
		cfg.Ingest.NATS.Enabled = false
		cfg.Notify.NATS.Enabled = false
		if !cfg.Ingest.HTTP.Enabled {
			cfg.Ingest.HTTP.Enabled = true
		}
	} else {
		cfg.Ingest.NATS.URL = normalizeNATSURLs(cfg.Ingest.NATS.URL)
		if len(cfg.Ingest.NATS.URL) == 0 {
			cfg.Ingest.NATS.URL = []string{defaultNATSURL}
		}
		cfg.Ingest.NATS.Subject = defaultNATSSubject
		cfg.Ingest.NATS.Stream = defaultNATSIngestStream
		cfg.Ingest.NATS.ConsumerName = defaultNATSIngestConsumer
		cfg.Ingest.NATS.DeliverGroup = defaultNATSIngestGroup
		if cfg.Ingest.NATS.AckWaitSec <= 0 {
			cfg.Ingest.NATS.AckWaitSec = defaultNATSAckWaitSec
		}
		if cfg.Ingest.NATS.NackDelayMS <= 0 {
			cfg.Ingest.NATS.NackDelayMS = defaultNATSNackDelayMS
		}
		if cfg.Ingest.NATS.MaxDeliver == 0 {
			cfg.Ingest.NATS.MaxDeliver = defaultNATSMaxDeliver
		}
		if cfg.Ingest.NATS.MaxAckPending <= 0 {
			cfg.Ingest.NATS.MaxAckPending = defaultNATSMaxAckPending
		}
		if !cfg.Ingest.HTTP.Enabled && !cfg.Ingest.NATS.Enabled {
			cfg.Ingest.HTTP.Enabled = true
		}
		// Notify publisher reuses the ingest NATS URL list.
		cfg.Notify.NATS.URL = append([]string(nil), cfg.Ingest.NATS.URL...)
	}

	if cfg.Engine.SweepIntervalSec <= 0 {
		cfg.Engine.SweepIntervalSec = defaultSweepIntervalSec
	}
	if cfg.Engine.RetentionDays <= 0 {
		cfg.Engine.RetentionDays = defaultRetentionDays
	}

	if strings.TrimSpace(cfg.Threshold.Backend) == "" {
		cfg.Threshold.Backend = ThresholdBackendMemory
	}
	cfg.Threshold.Backend = strings.ToLower(strings.TrimSpace(cfg.Threshold.Backend))
	if strings.TrimSpace(cfg.Threshold.Redis.Addr) == "" {
		cfg.Threshold.Redis.Addr = defaultRedisAddr
	}
	if strings.TrimSpace(cfg.Threshold.Redis.KeyPrefix) == "" {
		cfg.Threshold.Redis.KeyPrefix = defaultRedisKeyPrefix
	}

	if strings.TrimSpace(cfg.Notify.NATS.Subject) == "" {
		cfg.Notify.NATS.Subject = defaultNotifySubject
	}
	if strings.TrimSpace(cfg.Notify.Kafka.Topic) == "" {
		cfg.Notify.Kafka.Topic = defaultKafkaTopic
	}
	if cfg.Notify.Telegram.APIBase == "" {
		cfg.Notify.Telegram.APIBase = "https://api.telegram.org"
	}
}

// normalizeNATSURLs trims and drops empty URL entries.
// Params: raw URL list from config.
// Returns: normalized list.
func normalizeNATSURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		trimmed := strings.TrimSpace(url)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// validateConfig validates full runtime configuration.
// Params: cfg snapshot to validate.
// Returns: first validation error.
func validateConfig(cfg Config) error {
	mode := NormalizeServiceMode(cfg.Service.Mode)
	if !IsSupportedServiceMode(mode) {
		return fmt.Errorf("service.mode has unsupported value %q", cfg.Service.Mode)
	}
	if strings.TrimSpace(cfg.Ingest.HTTP.Listen) == "" {
		return errors.New("ingest.http.listen is required")
	}
	if cfg.Threshold.Backend != ThresholdBackendMemory && cfg.Threshold.Backend != ThresholdBackendRedis {
		return fmt.Errorf("threshold.backend has unsupported value %q", cfg.Threshold.Backend)
	}
	if cfg.Notify.Kafka.Enabled && len(cfg.Notify.Kafka.Brokers) == 0 {
		return errors.New("notify.kafka.brokers is required when notify.kafka.enabled")
	}
	if cfg.Notify.Telegram.Enabled {
		if strings.TrimSpace(cfg.Notify.Telegram.BotToken) == "" {
			return errors.New("notify.telegram.bot_token is required when notify.telegram.enabled")
		}
		if strings.TrimSpace(cfg.Notify.Telegram.ChatID) == "" {
			return errors.New("notify.telegram.chat_id is required when notify.telegram.enabled")
		}
	}
	seen := make(map[string]struct{}, len(cfg.Definition))
	for _, definition := range cfg.Definition {
		if _, dup := seen[definition.Name]; dup {
			return fmt.Errorf("definition.%s is declared more than once", definition.Name)
		}
		seen[definition.Name] = struct{}{}
		if strings.TrimSpace(definition.TenantID) == "" {
			return fmt.Errorf("definition.%s.tenant_id is required", definition.Name)
		}
		if strings.TrimSpace(definition.UEI) == "" {
			return fmt.Errorf("definition.%s.uei is required", definition.Name)
		}
		if strings.TrimSpace(definition.ReductionKey) == "" {
			return fmt.Errorf("definition.%s.reduction_key is required", definition.Name)
		}
		if _, err := definition.Domain(); err != nil {
			return err
		}
	}
	return nil
}
