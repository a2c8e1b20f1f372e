package postgres

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSecret_Redacted(t *testing.T) {
	s := Secret("hunter2")
	if got := fmt.Sprintf("%v %s %#v", s, s, s); strings.Contains(got, "hunter2") {
		t.Errorf("formatted secret leaked: %q", got)
	}
	if s.Value() != "hunter2" {
		t.Errorf("Value() = %q, want %q", s.Value(), "hunter2")
	}

	out, err := json.Marshal(struct{ P Secret }{s})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if strings.Contains(string(out), "hunter2") {
		t.Errorf("json leaked secret: %s", out)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Database != DefaultDatabase || cfg.SSLMode != SSLModeDisable {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfig_Validate_FillsDefaults(t *testing.T) {
	cfg := Config{Database: "auth", User: "svc"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Host != DefaultHost || cfg.Port != DefaultPort {
		t.Errorf("host/port = %s:%d, want defaults", cfg.Host, cfg.Port)
	}
	if cfg.MaxConns != DefaultMaxConns || cfg.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("pool defaults not applied: %+v", cfg)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty database", Config{User: "u"}},
		{"empty user", Config{Database: "d"}},
		{"port too high", Config{Database: "d", User: "u", Port: 70000}},
		{"negative port", Config{Database: "d", User: "u", Port: -1}},
		{"bad ssl mode", Config{Database: "d", User: "u", SSLMode: "sometimes"}},
		{"max below min", Config{Database: "d", User: "u", MaxConns: 2, MinConns: 5}},
		{"negative conns", Config{Database: "d", User: "u", MaxConns: -1}},
		{"negative timeout", Config{Database: "d", User: "u", ConnectTimeout: -time.Second}},
		{"uri wrong scheme", Config{URI: "mysql://u@h/d"}},
		{"uri unparsable", Config{URI: "postgres://u@h:port/d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestConfig_Validate_URISkipsStructuredChecks(t *testing.T) {
	cfg := Config{URI: "postgresql://svc:pw@db:5432/auth?sslmode=require"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.ConnectionString() != cfg.URI {
		t.Errorf("ConnectionString() = %q, want URI passthrough", cfg.ConnectionString())
	}
}

func TestConfig_ConnectionString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.User = "svc"
	cfg.Password = Secret("p@ss:w/rd")

	u, err := url.Parse(cfg.ConnectionString())
	if err != nil {
		t.Fatalf("ConnectionString() not parseable: %v", err)
	}
	if pw, _ := u.User.Password(); pw != "p@ss:w/rd" {
		t.Errorf("password = %q, want round trip", pw)
	}
	if u.Host != "localhost:5432" || u.Path != "/auth" {
		t.Errorf("host/path = %s%s", u.Host, u.Path)
	}
	if q := u.Query(); q.Get("sslmode") != "disable" || q.Get("connect_timeout") != "10" {
		t.Errorf("query = %v", q)
	}
}

func TestTruncateSQL(t *testing.T) {
	short := "SELECT 1"
	if truncateSQL(short) != short {
		t.Errorf("short statement changed")
	}
	long := strings.Repeat("x", maxSQLTruncateLen+20)
	got := truncateSQL(long)
	if len(got) != maxSQLTruncateLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncateSQL() = %q", got)
	}
}
