package platform

import (
	"errors"
	"testing"
)

func TestResolveLayout(t *testing.T) {
	tests := []struct {
		name        string
		info        *Info
		wantBin     string
		wantHistory string
		wantErr     error
	}{
		{
			name:        "linux",
			info:        &Info{OS: "linux", Arch: "amd64"},
			wantBin:     "/usr/local/bin",
			wantHistory: "/var/lib/unapt/history.txt",
		},
		{
			name:        "termux on android",
			info:        &Info{OS: "android", Arch: "arm64", Termux: true},
			wantBin:     "/data/data/com.termux/files/usr/bin",
			wantHistory: "/data/data/com.termux/files/usr/var/lib/unapt/history.txt",
		},
		{
			name:        "termux reporting linux",
			info:        &Info{OS: "linux", Arch: "arm64", Termux: true},
			wantBin:     "/data/data/com.termux/files/usr/bin",
			wantHistory: "/data/data/com.termux/files/usr/var/lib/unapt/history.txt",
		},
		{
			name:    "android without termux",
			info:    &Info{OS: "android", Arch: "arm64"},
			wantErr: ErrUnsupportedPlatform,
		},
		{
			name:    "darwin",
			info:    &Info{OS: "darwin", Arch: "arm64"},
			wantErr: ErrUnsupportedPlatform,
		},
		{
			name:    "windows",
			info:    &Info{OS: "windows", Arch: "amd64"},
			wantErr: ErrUnsupportedPlatform,
		},
		{
			name:    "nil info",
			info:    nil,
			wantErr: ErrUnsupportedPlatform,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := ResolveLayout(tt.info)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveLayout() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveLayout() error = %v", err)
			}
			if layout.BinDir != tt.wantBin {
				t.Errorf("BinDir = %q, want %q", layout.BinDir, tt.wantBin)
			}
			if got := layout.HistoryFile(); got != tt.wantHistory {
				t.Errorf("HistoryFile() = %q, want %q", got, tt.wantHistory)
			}
		})
	}
}

func TestLayout_ConfigFile(t *testing.T) {
	layout, err := ResolveLayout(&Info{OS: "linux"})
	if err != nil {
		t.Fatalf("ResolveLayout() error = %v", err)
	}
	if got, want := layout.ConfigFile(), "/etc/unapt/config.lua"; got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
}
