package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	cfg := NewDefaultConfig()
	require.False(t, cfg.Enabled)

	tel, err := New(context.Background(), cfg)
	require.NoError(t, err)

	degraded, reason := tel.Degraded()
	assert.False(t, degraded)
	assert.Empty(t, reason)

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "enabled defaults are valid", mutate: func(*Config) {}},
		{name: "disabled skips validation", mutate: func(c *Config) {
			c.Enabled = false
			c.Endpoint = ""
		}},
		{name: "missing endpoint", mutate: func(c *Config) { c.Endpoint = "" }, wantErr: true},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: true},
		{name: "unknown protocol", mutate: func(c *Config) { c.Protocol = "thrift" }, wantErr: true},
		{name: "insecure remote endpoint", mutate: func(c *Config) { c.Endpoint = "collector.example.com:4317" }, wantErr: true},
		{name: "secure remote endpoint", mutate: func(c *Config) {
			c.Endpoint = "collector.example.com:4317"
			c.Insecure = false
		}},
		{name: "sample rate out of range", mutate: func(c *Config) { c.SampleRate = 1.5 }, wantErr: true},
		{name: "non-positive metric interval", mutate: func(c *Config) { c.MetricInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318"))
	assert.Equal(t, "collector:4318", stripScheme("https://collector:4318"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}

func TestIsLocalEndpoint(t *testing.T) {
	local := []string{"localhost:4317", "127.0.0.1:4317", "http://localhost:4318", "[::1]:4317"}
	for _, ep := range local {
		cfg := &Config{Endpoint: ep}
		assert.True(t, cfg.isLocalEndpoint(), ep)
	}

	remote := []string{"collector.example.com:4317", "10.0.0.5:4317"}
	for _, ep := range remote {
		cfg := &Config{Endpoint: ep}
		assert.False(t, cfg.isLocalEndpoint(), ep)
	}
}

func TestNew_EnabledInstallsProviders(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.MetricInterval = time.Minute

	// Exporters connect lazily, so creation succeeds without a collector.
	tel, err := New(context.Background(), cfg)
	require.NoError(t, err)

	degraded, _ := tel.Degraded()
	assert.False(t, degraded)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Shutdown may fail to flush without a collector; it must still return.
	_ = tel.Shutdown(ctx)
}
