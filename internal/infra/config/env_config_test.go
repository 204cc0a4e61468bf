package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/mkrupp/mediagate/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	Binary    string           `env:"PROBE_BINARY" default:"ffprobe"`
	MaxWidth  int              `env:"MAX_WIDTH" default:"1920"`
	BlockFail bool             `env:"BLOCK_FAIL" default:"true"`
	Unparsed  string
	HTTP      testNestedConfig `envPrefix:"HTTP_"`
}

type testNestedConfig struct {
	ListenAddr string `env:"LISTEN_ADDR" default:":8080"`
}

type testExtendedConfig struct {
	EnvConfig

	Timeout time.Duration  `env:"TIMEOUT" default:"30s"`
	Limit   int64          `env:"LIMIT" default:"10485760"`
	Block   *bool          `env:"BLOCK"`
	Workers *int           `env:"WORKERS" default:"4"`
	Grace   *time.Duration `env:"GRACE"`
}

func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()

	for k, v := range envVars {
		t.Setenv(k, v)
	}
}

func defaultTestConfig() testConfig {
	return testConfig{
		Binary:    "ffprobe",
		MaxWidth:  1920,
		BlockFail: true,
		HTTP:      testNestedConfig{ListenAddr: ":8080"},
	}
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		envVars   map[string]string
		want      func(*testConfig)
		wantErr   bool
	}{
		{
			name:      "defaults",
			namespace: "MGTEST",
		},
		{
			name:      "values from namespace",
			namespace: "MGTEST",
			envVars: map[string]string{
				"MGTEST_PROBE_BINARY":     "/opt/ffprobe",
				"MGTEST_MAX_WIDTH":        "3840",
				"MGTEST_BLOCK_FAIL":       "false",
				"MGTEST_HTTP_LISTEN_ADDR": "127.0.0.1:9000",
			},
			want: func(c *testConfig) {
				c.Binary = "/opt/ffprobe"
				c.MaxWidth = 3840
				c.BlockFail = false
				c.HTTP.ListenAddr = "127.0.0.1:9000"
			},
		},
		{
			name:      "falls back to shorter namespace",
			namespace: "MGTEST_ADMISSION",
			envVars: map[string]string{
				"MGTEST_MAX_WIDTH": "1280",
			},
			want: func(c *testConfig) { c.MaxWidth = 1280 },
		},
		{
			name:      "longest namespace wins",
			namespace: "MGTEST_ADMISSION",
			envVars: map[string]string{
				"MGTEST_MAX_WIDTH":           "1280",
				"MGTEST_ADMISSION_MAX_WIDTH": "640",
			},
			want: func(c *testConfig) { c.MaxWidth = 640 },
		},
		{
			name:      "empty namespace reads bare names",
			namespace: "",
			envVars: map[string]string{
				"HTTP_LISTEN_ADDR": ":0",
			},
			want: func(c *testConfig) { c.HTTP.ListenAddr = ":0" },
		},
		{
			name:      "empty value overrides default",
			namespace: "MGTEST",
			envVars:   map[string]string{"MGTEST_PROBE_BINARY": ""},
			want:      func(c *testConfig) { c.Binary = "" },
		},
		{
			name:      "zero overrides default",
			namespace: "MGTEST",
			envVars:   map[string]string{"MGTEST_MAX_WIDTH": "0"},
			want:      func(c *testConfig) { c.MaxWidth = 0 },
		},
		{
			name:      "field without env tag is left alone",
			namespace: "MGTEST",
			envVars:   map[string]string{"MGTEST_UNPARSED": "set"},
		},
		{
			name:      "invalid int",
			namespace: "MGTEST",
			envVars:   map[string]string{"MGTEST_MAX_WIDTH": "wide"},
			wantErr:   true,
		},
		{
			name:      "invalid bool",
			namespace: "MGTEST",
			envVars:   map[string]string{"MGTEST_BLOCK_FAIL": "sometimes"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t, tt.envVars)

			cfg := &testConfig{}

			err := Parse(context.Background(), cfg, tt.namespace)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			want := defaultTestConfig()
			if tt.want != nil {
				tt.want(&want)
			}

			got := *cfg
			got.EnvConfig = want.EnvConfig

			if got != want {
				t.Errorf("Parse() = %+v, want %+v", got, want)
			}

			if cfg.Namespace() != tt.namespace {
				t.Errorf("Namespace() = %q, want %q", cfg.Namespace(), tt.namespace)
			}
		})
	}
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     any
		wantErr error
	}{
		{
			name:    "non-pointer config",
			cfg:     testConfig{},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "non-struct pointer",
			cfg:     new(string),
			wantErr: ErrInvalidConfig,
		},
		{
			name: "missing EnvConfig embedding",
			cfg: &struct {
				Value string `env:"VALUE"`
			}{},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Parse(context.Background(), tt.cfg, "")
			if err == nil {
				t.Error("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

//nolint:paralleltest
func TestParseExtendedTypes(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		wantTimeout time.Duration
		wantLimit   int64
		wantBlock   *bool
		wantWorkers *int
		wantGrace   *time.Duration
		wantErr     bool
	}{
		{
			name:        "uses default values",
			envVars:     map[string]string{},
			wantTimeout: 30 * time.Second,
			wantLimit:   10485760,
			wantWorkers: ptr(4),
		},
		{
			name: "reads environment variables",
			envVars: map[string]string{
				"SVC_TIMEOUT": "1m30s",
				"SVC_LIMIT":   "1024",
				"SVC_BLOCK":   "false",
				"SVC_WORKERS": "8",
				"SVC_GRACE":   "2s",
			},
			wantTimeout: 90 * time.Second,
			wantLimit:   1024,
			wantBlock:   ptr(false),
			wantWorkers: ptr(8),
			wantGrace:   ptr(2 * time.Second),
		},
		{
			name:    "fails on invalid duration",
			envVars: map[string]string{"SVC_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "fails on invalid int64",
			envVars: map[string]string{"SVC_LIMIT": "lots"},
			wantErr: true,
		},
		{
			name:    "fails on invalid pointer value",
			envVars: map[string]string{"SVC_BLOCK": "maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t, tt.envVars)

			cfg := &testExtendedConfig{}
			err := Parse(context.Background(), cfg, "SVC")

			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			if cfg.Namespace() != "SVC" {
				t.Errorf("Namespace() = %q, want %q", cfg.Namespace(), "SVC")
			}
			if cfg.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout, tt.wantTimeout)
			}
			if cfg.Limit != tt.wantLimit {
				t.Errorf("Limit = %v, want %v", cfg.Limit, tt.wantLimit)
			}
			if !equalPtr(cfg.Block, tt.wantBlock) {
				t.Errorf("Block = %v, want %v", cfg.Block, tt.wantBlock)
			}
			if !equalPtr(cfg.Workers, tt.wantWorkers) {
				t.Errorf("Workers = %v, want %v", cfg.Workers, tt.wantWorkers)
			}
			if !equalPtr(cfg.Grace, tt.wantGrace) {
				t.Errorf("Grace = %v, want %v", cfg.Grace, tt.wantGrace)
			}
		})
	}
}

//nolint:paralleltest
func TestParseMissingRequired(t *testing.T) {
	cfg := &struct {
		EnvConfig

		Required string `env:"REQUIRED_VALUE"`
	}{}

	err := Parse(context.Background(), cfg, "NOPE_NOT_SET")
	if !errors.Is(err, ErrVarNotSet) {
		t.Errorf("expected error %v, got %v", ErrVarNotSet, err)
	}
}

func TestParseUnsupportedType(t *testing.T) {
	t.Parallel()

	cfg := &struct {
		EnvConfig

		Fields []string `env:"FIELDS" default:"upload"`
	}{}

	err := Parse(context.Background(), cfg, "MGTEST_UNSUPPORTED")
	if !errors.Is(err, ErrUnsupportedVarType) {
		t.Errorf("expected error %v, got %v", ErrUnsupportedVarType, err)
	}
}
