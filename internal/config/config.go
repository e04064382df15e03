// Package config loads the relay configuration from environment variables
// with optional flag overrides. The configuration is resolved once at startup
// and treated as immutable for the process lifetime.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
)

const (
	envVarListenAddr      = "LISTEN_ADDR"
	envVarMode            = "MODE"
	envVarLogFormat       = "LOG_FORMAT"
	envVarLogLevel        = "LOG_LEVEL"
	envVarStorePath       = "STORE_PATH"
	envVarProofsTable     = "SUBSCRIPTION_PROOFS_TABLE"
	envVarPeersTable      = "PEER_CONNECTIONS_TABLE"
	envVarQueueURL        = "SIGNALING_QUEUE_URL"
	envVarStunServer      = "STUN_SERVER"
	envVarTurnServer      = "TURN_SERVER"
	envVarTurnUsername    = "TURN_USERNAME"
	envVarTurnCredential  = "TURN_CREDENTIAL"
	envVarRequestTimeout  = "REQUEST_TIMEOUT"
	envVarShutdownTimeout = "SHUTDOWN_TIMEOUT"
	envVarPeerTTL         = "PEER_CONNECTION_TTL"
)

const (
	DefaultListenAddr     = "127.0.0.1:8080"
	DefaultProofsTable    = "subscription_proofs"
	DefaultPeersTable     = "peer_connections"
	DefaultStorePath      = "signal-relay.db"
	DefaultRequestTimeout = 5 * time.Second
	DefaultShutdown       = 15 * time.Second

	// DefaultPeerTTL bounds how long a directory record counts as connected
	// without a refresh. A stale record is treated the same as a missing one.
	DefaultPeerTTL = 30 * time.Minute
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

type Config struct {
	ListenAddr string
	Mode       Mode
	LogFormat  LogFormat
	LogLevel   slog.Level

	// SQLite database path backing the proof store and the peer directory,
	// plus the table names within it.
	StorePath   string
	ProofsTable string
	PeersTable  string

	// QueueURL is the delivery channel websocket address. Empty in dev mode
	// selects the in-memory channel.
	QueueURL string

	// ICEServers is built once here and attached to every offer/answer
	// envelope. Never mutated after Load returns.
	ICEServers []webrtc.ICEServer

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	PeerTTL         time.Duration
}

func Load(args []string) (Config, error) {
	return load(os.LookupEnv, args)
}

func load(lookup func(string) (string, bool), args []string) (Config, error) {
	mode := Mode(envOrDefault(lookup, envVarMode, string(ModeDev)))

	logFormat := LogFormat(envOrDefault(lookup, envVarLogFormat, string(defaultLogFormatForMode(mode))))
	logLevelStr := envOrDefault(lookup, envVarLogLevel, defaultLogLevelForMode(mode))

	cfg := Config{
		ListenAddr:  envOrDefault(lookup, envVarListenAddr, DefaultListenAddr),
		Mode:        mode,
		LogFormat:   logFormat,
		StorePath:   envOrDefault(lookup, envVarStorePath, DefaultStorePath),
		ProofsTable: envOrDefault(lookup, envVarProofsTable, DefaultProofsTable),
		PeersTable:  envOrDefault(lookup, envVarPeersTable, DefaultPeersTable),
		QueueURL:    envOrDefault(lookup, envVarQueueURL, ""),
	}

	var err error
	if cfg.RequestTimeout, err = envDurationOrDefault(lookup, envVarRequestTimeout, DefaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = envDurationOrDefault(lookup, envVarShutdownTimeout, DefaultShutdown); err != nil {
		return Config{}, err
	}
	if cfg.PeerTTL, err = envDurationOrDefault(lookup, envVarPeerTTL, DefaultPeerTTL); err != nil {
		return Config{}, err
	}

	cfg.ICEServers = BuildICEServers(
		envOrDefault(lookup, envVarStunServer, ""),
		envOrDefault(lookup, envVarTurnServer, ""),
		envOrDefault(lookup, envVarTurnUsername, ""),
		envOrDefault(lookup, envVarTurnCredential, ""),
	)

	fs := flag.NewFlagSet("signal-relay", flag.ContinueOnError)
	fs.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "address to listen on")
	fs.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "sqlite database path")
	fs.StringVar(&cfg.QueueURL, "queue-url", cfg.QueueURL, "delivery channel websocket address")
	modeFlag := fs.String("mode", string(cfg.Mode), "dev or prod")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Mode = Mode(*modeFlag)

	if cfg.LogLevel, err = parseLogLevel(logLevelStr); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c Config) validate() error {
	switch c.Mode {
	case ModeDev, ModeProd:
	default:
		return fmt.Errorf("unsupported mode %q", c.Mode)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	// Table names come from the environment and are interpolated into SQL, so
	// they must be plain identifiers.
	if !identRe.MatchString(c.ProofsTable) {
		return fmt.Errorf("invalid %s %q", envVarProofsTable, c.ProofsTable)
	}
	if !identRe.MatchString(c.PeersTable) {
		return fmt.Errorf("invalid %s %q", envVarPeersTable, c.PeersTable)
	}
	if c.QueueURL == "" && c.Mode == ModeProd {
		return fmt.Errorf("%s must be set in prod mode", envVarQueueURL)
	}
	return nil
}

func NewLogger(cfg Config) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	switch cfg.LogFormat {
	case LogFormatText:
		handler = slog.NewTextHandler(os.Stdout, opts)
	case LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return slog.New(handler), nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", raw)
	}
}

func defaultLogFormatForMode(mode Mode) LogFormat {
	if mode == ModeProd {
		return LogFormatJSON
	}
	return LogFormatText
}

func defaultLogLevelForMode(mode Mode) string {
	if mode == ModeProd {
		return "info"
	}
	return "debug"
}

func envOrDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return fallback
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
