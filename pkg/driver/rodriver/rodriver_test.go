package rodriver

import (
	"context"
	"testing"
	"time"
)

func TestDefaultBrowserConfig(t *testing.T) {
	cfg := DefaultBrowserConfig()

	if !cfg.Headless {
		t.Error("DefaultBrowserConfig().Headless = false, want true")
	}
	if !cfg.NoSandbox {
		t.Error("DefaultBrowserConfig().NoSandbox = false, want true")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("DefaultBrowserConfig().Timeout = %v, want %v", cfg.Timeout, 30*time.Second)
	}
}

func TestNew_FillsDefaults(t *testing.T) {
	o := New(BrowserConfig{Timeout: -1})
	if o.cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want %v", o.cfg.Timeout, 30*time.Second)
	}
	if o.cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestOpen_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(DefaultBrowserConfig()).Open(ctx); err != context.Canceled {
		t.Errorf("Open() error = %v, want %v", err, context.Canceled)
	}
}
