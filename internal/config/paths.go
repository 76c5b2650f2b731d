package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ConfigDir returns the platform-specific configuration directory for
// caretforge, per spec.md §6: XDG_CONFIG_HOME (or ~/.config) on Unix,
// %APPDATA% on Windows.
func ConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "caretforge")
		}
		return filepath.Join(homeDir(), "AppData", "Roaming", "caretforge")
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "caretforge")
	}
	return filepath.Join(homeDir(), ".config", "caretforge")
}

// FilePath returns the path to caretforge/config.json.
func FilePath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// homeDir returns the user's home directory across platforms.
func homeDir() string {
	if runtime.GOOS == "windows" {
		if home := os.Getenv("USERPROFILE"); home != "" {
			return home
		}
		if drive, path := os.Getenv("HOMEDRIVE"), os.Getenv("HOMEPATH"); drive != "" || path != "" {
			return drive + path
		}
		return "C:\\"
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "/"
}

// ExpandPath expands a leading "~/" and any environment variables in path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir(), path[2:])
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates a directory (and parents) with 0700 permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
