// Package filesystem lays out the application directory under the user's home.
package filesystem

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shaharia-lab/cypherchat/internal/config"
)

type PathType string

const (
	configYamlFileName    = "config.yaml"
	preferencesDBFileName = "preferences.db"

	AppDirectory      PathType = "app"
	ConfigDirectory   PathType = "config"
	ConfigFilePath    PathType = "config_file"
	LogsDirectory     PathType = "logs"
	LogsFilePath      PathType = "log_file"
	ErrorLogsFilePath PathType = "error_log_file"
	DataDirectory     PathType = "data"
	PreferencesDB     PathType = "preferences_db"
	ExportsDirectory  PathType = "exports"
)

// Filesystem resolves and creates the local storage used by the application.
type Filesystem struct {
	appCfg *config.AppConfig
}

// NewAppFilesystem creates a new Filesystem instance.
func NewAppFilesystem(appCfg *config.AppConfig) *Filesystem {
	return &Filesystem{
		appCfg: appCfg,
	}
}

// EnsureAllPaths creates every directory and file the application needs and returns their locations.
// It is safe to call repeatedly.
func (s *Filesystem) EnsureAllPaths() (map[PathType]string, error) {
	paths := map[PathType]string{}

	appDirectory, err := s.ensureAppDirectory()
	if err != nil {
		return paths, err
	}
	paths[AppDirectory] = appDirectory

	subDirs := []struct {
		pathType PathType
		name     string
	}{
		{ConfigDirectory, "config"},
		{LogsDirectory, "logs"},
		{DataDirectory, "data"},
		{ExportsDirectory, "exports"},
	}

	for _, d := range subDirs {
		dir := filepath.Join(appDirectory, d.name)
		if err := ensureDirectory(dir); err != nil {
			return paths, err
		}
		paths[d.pathType] = dir
	}

	dbPath, err := s.createPreferencesDBFile(paths[DataDirectory], preferencesDBFileName)
	if err != nil {
		return paths, err
	}
	paths[PreferencesDB] = dbPath

	appName := strings.ToLower(s.appCfg.Name)
	files := []struct {
		pathType PathType
		path     string
	}{
		{ConfigFilePath, filepath.Join(paths[ConfigDirectory], configYamlFileName)},
		{LogsFilePath, filepath.Join(paths[LogsDirectory], fmt.Sprintf("%s.log", appName))},
		{ErrorLogsFilePath, filepath.Join(paths[LogsDirectory], fmt.Sprintf("%s-error.log", appName))},
	}

	for _, f := range files {
		if err := ensureFile(f.path); err != nil {
			return paths, err
		}
		paths[f.pathType] = f.path
	}

	return paths, nil
}

func (s *Filesystem) ensureAppDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, fmt.Sprintf(".%s", strings.ToLower(s.appCfg.Name)))
	if err := ensureDirectory(appDir); err != nil {
		return "", err
	}

	return appDir, nil
}

// createPreferencesDBFile creates the SQLite file and checks that it opens.
func (s *Filesystem) createPreferencesDBFile(dataDirectory, fileName string) (string, error) {
	dbFilePath := filepath.Join(dataDirectory, fileName)
	if _, err := os.Stat(dbFilePath); err == nil {
		return dbFilePath, nil
	}

	file, err := os.Create(dbFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to create database file: %w", err)
	}
	defer file.Close()

	sqliteDB, err := sql.Open("sqlite3", dbFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer sqliteDB.Close()

	if err := sqliteDB.Ping(); err != nil {
		return "", fmt.Errorf("failed to ping database file: %w", err)
	}

	return dbFilePath, nil
}

func ensureDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func ensureFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", path, err)
		}
		return f.Close()
	}
	return nil
}
