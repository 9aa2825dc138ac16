package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

const (
	envVarListenAddr        = "HUDDLE_LISTEN_ADDR"
	envVarPort              = "PORT"
	envVarStaticDir         = "HUDDLE_STATIC_DIR"
	envVarLogLevel          = "HUDDLE_LOG_LEVEL"
	envVarLogFormat         = "HUDDLE_LOG_FORMAT"
	envVarMaxMessageBytes   = "HUDDLE_MAX_MESSAGE_BYTES"
	envVarMessagesPerSecond = "HUDDLE_MESSAGES_PER_SECOND"
	envVarMessageBurst      = "HUDDLE_MESSAGE_BURST"
	envVarPingInterval      = "HUDDLE_WS_PING_INTERVAL"
	envVarPongWait          = "HUDDLE_WS_PONG_WAIT"
	envVarWriteWait         = "HUDDLE_WS_WRITE_WAIT"
	envVarSendQueueSize     = "HUDDLE_SEND_QUEUE_SIZE"
	envVarSnapshotPath      = "HUDDLE_SNAPSHOT_PATH"
	envVarHistoryPerChannel = "HUDDLE_HISTORY_PER_CHANNEL"
	envVarSeedDemoUsers     = "HUDDLE_SEED_DEMO_USERS"
	envVarShutdownTimeout   = "HUDDLE_SHUTDOWN_TIMEOUT"
	envVarBcryptCost        = "HUDDLE_BCRYPT_COST"

	DefaultListenAddr        = ":3000"
	DefaultStaticDir         = "./static"
	DefaultLogLevel          = zerolog.InfoLevel
	DefaultLogFormat         = LogFormatConsole
	DefaultMaxMessageBytes   = 64 * 1024
	DefaultMessagesPerSecond = 50.0
	DefaultMessageBurst      = 100
	DefaultPongWait          = 60 * time.Second
	DefaultPingInterval      = (DefaultPongWait * 9) / 10
	DefaultWriteWait         = 10 * time.Second
	DefaultSendQueueSize     = 256
	DefaultHistoryPerChannel = 500
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultBcryptCost        = 10
)

type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

type Config struct {
	ListenAddr string
	StaticDir  string

	LogLevel  zerolog.Level
	LogFormat LogFormat

	ICEServers []webrtc.ICEServer

	// Per-connection websocket limits.
	MaxMessageBytes   int64
	MessagesPerSecond float64
	MessageBurst      int
	PingInterval      time.Duration
	PongWait          time.Duration
	WriteWait         time.Duration
	SendQueueSize     int

	// SnapshotPath is empty when the record store is not persisted.
	SnapshotPath      string
	HistoryPerChannel int
	SeedDemoUsers     bool
	BcryptCost        int

	ShutdownTimeout time.Duration
}

// Options carries command line overrides. Zero values mean "not set".
type Options struct {
	ListenAddr   string
	StaticDir    string
	LogLevel     string
	LogFormat    string
	SnapshotPath string
	SeedDemo     bool
}

// Load reads configuration with the following priority:
// 1. command line flags (Options)
// 2. environment variables
// 3. defaults
func Load(opts Options) (Config, error) {
	return load(os.LookupEnv, opts)
}

func load(lookup func(string) (string, bool), opts Options) (Config, error) {
	cfg := Config{
		ListenAddr:   DefaultListenAddr,
		StaticDir:    envOrDefault(lookup, envVarStaticDir, DefaultStaticDir),
		SnapshotPath: envOrDefault(lookup, envVarSnapshotPath, ""),
	}

	if port := envOrDefault(lookup, envVarPort, ""); port != "" {
		cfg.ListenAddr = ":" + strings.TrimPrefix(port, ":")
	}
	cfg.ListenAddr = envOrDefault(lookup, envVarListenAddr, cfg.ListenAddr)

	var err error
	levelRaw := envOrDefault(lookup, envVarLogLevel, DefaultLogLevel.String())
	if opts.LogLevel != "" {
		levelRaw = opts.LogLevel
	}
	if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelRaw))); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q: %w", levelRaw, err)
	}

	formatRaw := envOrDefault(lookup, envVarLogFormat, string(DefaultLogFormat))
	if opts.LogFormat != "" {
		formatRaw = opts.LogFormat
	}
	if cfg.LogFormat, err = parseLogFormat(formatRaw); err != nil {
		return Config{}, err
	}

	if cfg.ICEServers, err = loadICEServers(lookup); err != nil {
		return Config{}, err
	}

	maxBytes, err := envIntOrDefault(lookup, envVarMaxMessageBytes, DefaultMaxMessageBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxMessageBytes = int64(maxBytes)

	if cfg.MessagesPerSecond, err = envFloatOrDefault(lookup, envVarMessagesPerSecond, DefaultMessagesPerSecond); err != nil {
		return Config{}, err
	}
	if cfg.MessageBurst, err = envIntOrDefault(lookup, envVarMessageBurst, DefaultMessageBurst); err != nil {
		return Config{}, err
	}
	if cfg.PongWait, err = envDurationOrDefault(lookup, envVarPongWait, DefaultPongWait); err != nil {
		return Config{}, err
	}
	if cfg.PingInterval, err = envDurationOrDefault(lookup, envVarPingInterval, (cfg.PongWait*9)/10); err != nil {
		return Config{}, err
	}
	if cfg.WriteWait, err = envDurationOrDefault(lookup, envVarWriteWait, DefaultWriteWait); err != nil {
		return Config{}, err
	}
	if cfg.SendQueueSize, err = envIntOrDefault(lookup, envVarSendQueueSize, DefaultSendQueueSize); err != nil {
		return Config{}, err
	}
	if cfg.HistoryPerChannel, err = envIntOrDefault(lookup, envVarHistoryPerChannel, DefaultHistoryPerChannel); err != nil {
		return Config{}, err
	}
	if cfg.SeedDemoUsers, err = envBoolOrDefault(lookup, envVarSeedDemoUsers, false); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = envIntOrDefault(lookup, envVarBcryptCost, DefaultBcryptCost); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = envDurationOrDefault(lookup, envVarShutdownTimeout, DefaultShutdownTimeout); err != nil {
		return Config{}, err
	}

	if opts.ListenAddr != "" {
		cfg.ListenAddr = opts.ListenAddr
	}
	if opts.StaticDir != "" {
		cfg.StaticDir = opts.StaticDir
	}
	if opts.SnapshotPath != "" {
		cfg.SnapshotPath = opts.SnapshotPath
	}
	if opts.SeedDemo {
		cfg.SeedDemoUsers = true
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("%s must not be empty", envVarListenAddr)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("%s must be > 0", envVarMaxMessageBytes)
	}
	if c.MessagesPerSecond <= 0 {
		return fmt.Errorf("%s must be > 0", envVarMessagesPerSecond)
	}
	if c.MessageBurst <= 0 {
		return fmt.Errorf("%s must be > 0", envVarMessageBurst)
	}
	if c.PongWait <= 0 || c.WriteWait <= 0 || c.PingInterval <= 0 {
		return fmt.Errorf("websocket timeouts must be > 0")
	}
	if c.PingInterval >= c.PongWait {
		return fmt.Errorf("%s (%s) must be less than %s (%s)", envVarPingInterval, c.PingInterval, envVarPongWait, c.PongWait)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("%s must be > 0", envVarSendQueueSize)
	}
	if c.HistoryPerChannel < 0 {
		return fmt.Errorf("%s must be >= 0", envVarHistoryPerChannel)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s must be > 0", envVarShutdownTimeout)
	}
	return nil
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case LogFormatConsole, "text":
		return LogFormatConsole, nil
	case LogFormatJSON:
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q", raw)
	}
}

func envOrDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envIntOrDefault(lookup func(string) (string, bool), key string, fallback int) (int, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func envFloatOrDefault(lookup func(string) (string, bool), key string, fallback float64) (float64, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return f, nil
}

func envDurationOrDefault(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func envBoolOrDefault(lookup func(string) (string, bool), key string, fallback bool) (bool, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}
