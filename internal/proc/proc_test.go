package proc

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestNewExec(t *testing.T) {
	if e := NewExec(0); e.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout, got %v", e.Timeout)
	}
	if e := NewExec(time.Second); e.Timeout != time.Second {
		t.Errorf("Expected 1s, got %v", e.Timeout)
	}
}

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping Unix command test on Windows")
	}

	tests := []struct {
		name      string
		command   string
		args      []string
		wantErr   bool
		errSubstr string
		want      string
	}{
		{
			name:    "stdout is returned",
			command: "sh",
			args:    []string{"-c", "printf hello; printf noise >&2"},
			want:    "hello",
		},
		{
			name:      "stderr is attached to the error",
			command:   "sh",
			args:      []string{"-c", "echo broken >&2; exit 3"},
			wantErr:   true,
			errSubstr: "broken",
		},
		{
			name:      "missing binary",
			command:   "nonexistent_command_xyz",
			wantErr:   true,
			errSubstr: "failed to start",
		},
	}

	e := NewExec(5 * time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Run(context.Background(), tt.command, tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("Expected error containing %q, got %v", tt.errSubstr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, out)
			}
		})
	}
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping Unix command test on Windows")
	}
	e := NewExec(50 * time.Millisecond)
	_, err := e.Run(context.Background(), "sleep", "5")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}

func TestLocate(t *testing.T) {
	_, err := Locate("nonexistent_command_xyz")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if runtime.GOOS != "windows" {
		path, err := Locate("sh")
		if err != nil {
			t.Fatalf("Expected sh in PATH: %v", err)
		}
		if !filepath.IsAbs(path) {
			t.Errorf("Expected an absolute path, got %q", path)
		}
	}
}
