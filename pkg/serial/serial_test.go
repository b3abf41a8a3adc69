package serial

import "testing"

func TestOpenRequiresDevice(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("expected error for empty device path")
	}
}

func TestBaudRateToSpeed(t *testing.T) {
	if _, err := baudRateToSpeed(115200); err != nil {
		t.Errorf("115200 should be supported: %v", err)
	}
	if _, err := baudRateToSpeed(12345); err == nil {
		t.Error("expected error for unsupported baud rate")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BaudRate != 115200 {
		t.Errorf("default baud = %d, want 115200", cfg.BaudRate)
	}
	if cfg.ReadTimeout <= 0 {
		t.Error("default read timeout must be positive")
	}
}

func TestListPorts(t *testing.T) {
	// No hardware assumptions; just must not error on supported platforms.
	if _, err := ListPorts(); err != nil {
		t.Fatalf("ListPorts failed: %v", err)
	}
}
