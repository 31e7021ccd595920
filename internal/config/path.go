// Package config holds the ledger's tunable policy and where its files live.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "smsledger"

// ExpandPath resolves a leading ~ to the home directory and then expands
// $VAR references. Paths whose ~ cannot be resolved are returned as written.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

// ConfigDirs lists the directories searched for config.yaml, most specific first:
// $XDG_CONFIG_HOME/smsledger when set, then ~/.config/smsledger.
func ConfigDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, appDir))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", appDir))
	}
	return dirs
}

// DefaultDatabasePath is where the ledger lives when database.path is unset:
// under $XDG_DATA_HOME when set, otherwise ~/.local/share.
func DefaultDatabasePath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		base = ExpandPath("~/.local/share")
	}
	return filepath.Join(base, appDir, appDir+".db")
}
