package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "toolchat"

// StoragePaths contains paths for application storage
type StoragePaths struct {
	SessionPath  string
	DatabasePath string
	LogPath      string
}

// GetDefaultStoragePaths returns default storage paths using XDG base directories
func GetDefaultStoragePaths() StoragePaths {
	// XDG_STATE_HOME holds data that should survive restarts but is not
	// portable user content.
	base := filepath.Join(xdg.StateHome, appName)

	return StoragePaths{
		SessionPath:  filepath.Join(base, "session.json"),
		DatabasePath: filepath.Join(base, "audit.db"),
		LogPath:      filepath.Join(base, "chat.log"),
	}
}

// GetDefaultPersonaPath returns the default persona file location
func GetDefaultPersonaPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "persona.yaml")
}
