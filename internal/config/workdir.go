package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gamepanel/internal/constants"
)

// ValidateDirectory checks that path exists and is a directory.
func ValidateDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist")
	}
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}

	return nil
}

// InitializeDataDirectory creates the data directory layout: the log
// directories and every configured file root that does not exist yet.
func InitializeDataDirectory(cfg *Config) error {
	if err := os.MkdirAll(cfg.DataDir, constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Create logs directories
	logsBaseDir := filepath.Join(cfg.DataDir, constants.LogsDir)
	logSubDirs := []string{
		constants.LogsDirDebug,
		constants.LogsDirInfo,
		constants.LogsDirWarn,
		constants.LogsDirError,
	}
	for _, subDir := range logSubDirs {
		logDir := filepath.Join(logsBaseDir, subDir)
		if err := os.MkdirAll(logDir, constants.DirPermissions); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	for _, root := range cfg.Files.AllowedRoots {
		if err := os.MkdirAll(root, constants.DirPermissions); err != nil {
			return fmt.Errorf("failed to create file root %s: %w", root, err)
		}
		if err := ValidateDirectory(root); err != nil {
			return fmt.Errorf("file root %s: %w", root, err)
		}
	}

	return nil
}
