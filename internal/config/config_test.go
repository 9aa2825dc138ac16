package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := load(lookupMap(nil), Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr=%q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.LogLevel != zerolog.InfoLevel || cfg.LogFormat != LogFormatConsole {
		t.Errorf("log = %v/%v", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.PingInterval != DefaultPingInterval || cfg.PongWait != DefaultPongWait {
		t.Errorf("ping=%v pong=%v", cfg.PingInterval, cfg.PongWait)
	}
	if cfg.MaxMessageBytes != DefaultMaxMessageBytes {
		t.Errorf("MaxMessageBytes=%d", cfg.MaxMessageBytes)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].URLs[0] != DefaultSTUN {
		t.Errorf("ICEServers=%+v", cfg.ICEServers)
	}
	if cfg.SnapshotPath != "" || cfg.SeedDemoUsers {
		t.Errorf("persistence should be off by default: %+v", cfg)
	}
}

func TestListenAddrPriority(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		opts Options
		want string
	}{
		{"port", map[string]string{envVarPort: "4000"}, Options{}, ":4000"},
		{"listen addr beats port", map[string]string{envVarPort: "4000", envVarListenAddr: "127.0.0.1:5000"}, Options{}, "127.0.0.1:5000"},
		{"flag beats env", map[string]string{envVarListenAddr: "127.0.0.1:5000"}, Options{ListenAddr: ":6000"}, ":6000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := load(lookupMap(tc.env), tc.opts)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.ListenAddr != tc.want {
				t.Errorf("ListenAddr=%q, want %q", cfg.ListenAddr, tc.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg, err := load(lookupMap(map[string]string{
		envVarLogLevel:          "debug",
		envVarLogFormat:         "json",
		envVarPongWait:          "30s",
		envVarMessagesPerSecond: "2.5",
		envVarSendQueueSize:     "8",
		envVarSeedDemoUsers:     "true",
		envVarSnapshotPath:      "/tmp/huddle.msgpack",
	}), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != zerolog.DebugLevel || cfg.LogFormat != LogFormatJSON {
		t.Errorf("log = %v/%v", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.PongWait != 30*time.Second || cfg.PingInterval != 27*time.Second {
		t.Errorf("pong=%v ping=%v", cfg.PongWait, cfg.PingInterval)
	}
	if cfg.MessagesPerSecond != 2.5 || cfg.SendQueueSize != 8 {
		t.Errorf("limits = %v/%d", cfg.MessagesPerSecond, cfg.SendQueueSize)
	}
	if !cfg.SeedDemoUsers || cfg.SnapshotPath != "/tmp/huddle.msgpack" {
		t.Errorf("persistence = %v/%q", cfg.SeedDemoUsers, cfg.SnapshotPath)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		opts Options
	}{
		{"bad level", map[string]string{envVarLogLevel: "loud"}, Options{}},
		{"bad flag level", nil, Options{LogLevel: "loud"}},
		{"bad format", map[string]string{envVarLogFormat: "xml"}, Options{}},
		{"bad duration", map[string]string{envVarPongWait: "soon"}, Options{}},
		{"ping not below pong", map[string]string{envVarPongWait: "10s", envVarPingInterval: "10s"}, Options{}},
		{"zero queue", map[string]string{envVarSendQueueSize: "0"}, Options{}},
		{"bad bool", map[string]string{envVarSeedDemoUsers: "maybe"}, Options{}},
		{"bad ice json", map[string]string{envICEServersJSON: "{"}, Options{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := load(lookupMap(tc.env), tc.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseICEServersJSON(t *testing.T) {
	servers, err := ParseICEServersJSON(`[
		{"urls": "stun:stun.example.com:3478"},
		{"urls": ["turn:turn.example.com:3478", "turns:turn.example.com:5349"], "username": "u", "credential": "p"}
	]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(servers) != 2 || len(servers[1].URLs) != 2 {
		t.Fatalf("servers=%+v", servers)
	}
	if servers[1].Credential != "p" {
		t.Errorf("credential=%v", servers[1].Credential)
	}

	for _, raw := range []string{
		`[{"urls": []}]`,
		`[{"urls": "http://example.com"}]`,
		`[{"urls": "turn:turn.example.com"}]`,
	} {
		if _, err := ParseICEServersJSON(raw); err == nil {
			t.Errorf("ParseICEServersJSON(%s) succeeded", raw)
		}
	}
}

func TestICEServersFromURLs(t *testing.T) {
	cfg, err := load(lookupMap(map[string]string{
		envStunURLs:       "stun:a.example.com, stun:b.example.com",
		envTurnURLs:       "turn:t.example.com",
		envTurnUsername:   "user",
		envTurnCredential: "secret",
	}), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.ICEServers) != 2 || len(cfg.ICEServers[0].URLs) != 2 {
		t.Errorf("ICEServers=%+v", cfg.ICEServers)
	}

	if _, err := load(lookupMap(map[string]string{envTurnURLs: "turn:t.example.com"}), Options{}); err == nil {
		t.Error("turn without credentials accepted")
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(Config{LogLevel: zerolog.WarnLevel, LogFormat: LogFormatJSON}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	l.Info().Msg("hidden")
	l.Warn().Str("room", "r").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"room":"r"`) || !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
