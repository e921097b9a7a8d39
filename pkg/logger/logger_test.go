package logger

import (
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"debug", DebugConfig(), false},
		{"json", &Config{Level: InfoLevel, Format: JSONFormat}, false},
		{"bad level", &Config{Level: "loud", Format: TextFormat}, true},
		{"bad format", &Config{Level: InfoLevel, Format: "yaml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewLogger(&Config{Level: "loud", Format: TextFormat}); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestNewLogger_NilConfigUsesDefaults(t *testing.T) {
	log, err := NewLogger(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if log == nil {
		t.Fatal("Expected a logger")
	}
}

func TestWithFieldChainsAccumulate(t *testing.T) {
	log, err := NewLogger(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Chained loggers must be independent values; attaching a field to a
	// child must not mutate the parent.
	child := log.WithField("a", 1)
	grandchild := child.WithFields(Fields{"b": 2})

	if child == nil || grandchild == nil {
		t.Fatal("Field chaining returned nil")
	}

	// Smoke-test that all variants accept arguments without panicking.
	grandchild.WithComponent("test").Debug("debug")
	grandchild.Infof("info %d", 42)
	grandchild.WithError(nil).Warn("warn")
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(original) })

	replacement, err := NewLogger(DebugConfig())
	if err != nil {
		t.Fatal(err)
	}
	SetGlobalLogger(replacement)

	if GetGlobalLogger() != replacement {
		t.Error("SetGlobalLogger did not take effect")
	}
}
