package infra

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"
)

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	dir := DefaultDataDir()

	if os.Geteuid() == 0 {
		if dir != SystemDataDir {
			t.Errorf("expected %s when running as root, got %s", SystemDataDir, dir)
		}
		return
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, AppDirName); dir != want {
		t.Errorf("expected %s, got %s", want, dir)
	}
}

func TestGetRealUserHome_UsesSudoUser(t *testing.T) {
	current, err := user.Current()
	if err != nil {
		t.Skipf("cannot resolve current user: %v", err)
	}
	t.Setenv("SUDO_USER", current.Username)

	if got := GetRealUserHome(); got != current.HomeDir {
		t.Errorf("GetRealUserHome() = %q, want %q", got, current.HomeDir)
	}
	if got := DefaultDataDir(); got != filepath.Join(current.HomeDir, AppDirName) {
		t.Errorf("DefaultDataDir() under sudo = %q", got)
	}
}

func TestGetRealUserHome_UnknownSudoUserFallsBack(t *testing.T) {
	t.Setenv("SUDO_USER", "no-such-user-pulse-test")
	home, _ := os.UserHomeDir()

	if got := GetRealUserHome(); got != home {
		t.Errorf("GetRealUserHome() = %q, want fallback %q", got, home)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/data/pulse", filepath.Join(home, "data", "pulse")},
		{"/var/lib/pulse", "/var/lib/pulse"},
		{"relative/dir", "relative/dir"},
		{"~user/dir", "~user/dir"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandHome(tt.in); got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
