// Package infra implements storage and filesystem concerns for the engine.
package infra

import (
	"os"
	"os/user"
	"path/filepath"
)

const (
	// AppDirName is the per-user directory holding config, state and logs.
	AppDirName = ".pulse"
	// SystemDataDir is used when running as root without SUDO_USER.
	SystemDataDir = "/var/lib/pulse"
	// LogFileName is the log file inside the data directory.
	LogFileName = "pulse.log"
)

// DefaultDataDir returns where state and logs live for the invoking user.
// Under sudo the invoking user's home is used so state isn't split between
// root and the user.
func DefaultDataDir() string {
	if os.Geteuid() == 0 && os.Getenv("SUDO_USER") == "" {
		return SystemDataDir
	}
	return filepath.Join(GetRealUserHome(), AppDirName)
}

// DefaultConfigPath returns the default YAML config location.
func DefaultConfigPath() string {
	return filepath.Join(GetRealUserHome(), AppDirName, "config.yaml")
}

// GetRealUserHome returns the real user's home directory, even when running under sudo.
// Under sudo, os.UserHomeDir() returns root's home, so SUDO_USER is consulted first.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}

// ExpandHome replaces a leading "~/" with the real user's home.
func ExpandHome(path string) string {
	if path == "~" {
		return GetRealUserHome()
	}
	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(GetRealUserHome(), path[2:])
	}
	return path
}
