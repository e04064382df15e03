package config

import (
	"log/slog"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := load(lookupFrom(nil), nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if cfg.Mode != ModeDev {
		t.Fatalf("unexpected mode: %q", cfg.Mode)
	}
	if cfg.LogFormat != LogFormatText || cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("unexpected dev logging defaults: %q %v", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.ProofsTable != DefaultProofsTable || cfg.PeersTable != DefaultPeersTable {
		t.Fatalf("unexpected table names: %q %q", cfg.ProofsTable, cfg.PeersTable)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Fatalf("unexpected request timeout: %v", cfg.RequestTimeout)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].URLs[0] != DefaultSTUNServer {
		t.Fatalf("unexpected ice servers: %#v", cfg.ICEServers)
	}
}

func TestLoad_ProdDefaultsToJSONInfo(t *testing.T) {
	t.Parallel()

	cfg, err := load(lookupFrom(map[string]string{
		"MODE":                "prod",
		"SIGNALING_QUEUE_URL": "ws://delivery.internal:9000/submit",
	}), nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cfg.LogFormat != LogFormatJSON || cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected prod logging defaults: %q %v", cfg.LogFormat, cfg.LogLevel)
	}
}

func TestLoad_ProdRequiresQueueURL(t *testing.T) {
	t.Parallel()

	if _, err := load(lookupFrom(map[string]string{"MODE": "prod"}), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_RejectsBadTableName(t *testing.T) {
	t.Parallel()

	_, err := load(lookupFrom(map[string]string{
		"SUBSCRIPTION_PROOFS_TABLE": "proofs; DROP TABLE peers",
	}), nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Parallel()

	cfg, err := load(lookupFrom(map[string]string{
		"LISTEN_ADDR": "127.0.0.1:1111",
	}), []string{"-listen-addr", "127.0.0.1:2222"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:2222" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
}

func TestLoad_ParsesDurations(t *testing.T) {
	t.Parallel()

	cfg, err := load(lookupFrom(map[string]string{
		"REQUEST_TIMEOUT":     "2s",
		"PEER_CONNECTION_TTL": "10m",
	}), nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cfg.RequestTimeout != 2*time.Second || cfg.PeerTTL != 10*time.Minute {
		t.Fatalf("unexpected durations: %v %v", cfg.RequestTimeout, cfg.PeerTTL)
	}
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	t.Parallel()

	if _, err := load(lookupFrom(map[string]string{"REQUEST_TIMEOUT": "soon"}), nil); err == nil {
		t.Fatal("expected error")
	}
}
