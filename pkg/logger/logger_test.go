package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"xdl/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid config with info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "valid config with debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	child := base.WithField("username", "someuser")
	grandchild := child.WithFields(map[string]interface{}{"post_id": "123"})

	baseImpl := base.(*zerologLogger)
	childImpl := child.(*zerologLogger)
	grandchildImpl := grandchild.(*zerologLogger)

	if len(baseImpl.fields) != 0 {
		t.Errorf("Base logger fields mutated: %v", baseImpl.fields)
	}
	if len(childImpl.fields) != 1 {
		t.Errorf("Expected 1 field on child, got %v", childImpl.fields)
	}
	if len(grandchildImpl.fields) != 2 {
		t.Errorf("Expected 2 fields on grandchild, got %v", grandchildImpl.fields)
	}
}

func TestWithErrorNil(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if got := base.WithError(nil); got != base {
		t.Error("WithError(nil) should return the same logger")
	}
}
