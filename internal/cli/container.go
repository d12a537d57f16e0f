// Package cli wires the application dependencies shared by every command.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/config"
	"github.com/shaharia-lab/cypherchat/internal/filesystem"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
	"github.com/shaharia-lab/cypherchat/internal/push"
	"github.com/shaharia-lab/cypherchat/internal/theme"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.AppConfig
	Runtime    config.Config
	ConfigMgr  *config.Manager
	Filesystem *filesystem.Filesystem
	Paths      map[filesystem.PathType]string
	Logger     logger.Logger
	Store      preferences.Store
	ThemeMgr   *theme.Manager
	API        *api.Client
}

// InitOptions contains options for initialization
type InitOptions struct {
	Version string
	Commit  string
	Date    string

	// LogLevel overrides the configured level when set
	LogLevel logger.LogLevel
	// Verbose mirrors log entries to stderr
	Verbose bool
	// DotEnvPath defaults to .env in the working directory
	DotEnvPath string
	// Lookup resolves environment overrides; defaults to os.LookupEnv
	Lookup func(string) (string, bool)
}

// NewContainer creates and initializes all application dependencies
func NewContainer(opts InitOptions) (*Container, error) {
	if opts.Version == "" {
		return nil, errors.New("version is required")
	}
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}

	container := &Container{}
	var err error

	container.Config = config.NewDefaultConfig(
		config.WithVersion(config.Version{
			Version: opts.Version,
			Commit:  opts.Commit,
			Date:    opts.Date,
		}),
	)

	container.Filesystem = filesystem.NewAppFilesystem(container.Config)
	container.Paths, err = container.Filesystem.EnsureAllPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to ensure all application paths: %w", err)
	}

	if err := config.LoadDotEnv(opts.DotEnvPath); err != nil {
		return nil, err
	}

	container.ConfigMgr = config.NewManager(container.Paths[filesystem.ConfigFilePath])
	cfg, err := container.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg, err = cfg.ApplyEnv(opts.Lookup)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	container.Runtime = cfg

	level := opts.LogLevel
	if level == "" {
		level = logger.ParseLevel(cfg.Log.Level)
	}
	zapLogger, err := logger.NewZapLogger(logger.Config{
		LogLevel:      level,
		FilePath:      container.Paths[filesystem.LogsFilePath],
		ErrorFilePath: container.Paths[filesystem.ErrorLogsFilePath],
		UseConsole:    opts.Verbose || cfg.Log.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	container.Logger = zapLogger

	store, err := preferences.NewSQLiteStore(container.Paths[filesystem.PreferencesDB])
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	container.Store = store

	container.ThemeMgr = theme.NewManager(store)

	container.API = api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(container.Logger),
	)

	container.Logger.Debug("container initialized", map[string]interface{}{
		"api":  cfg.API.BaseURL,
		"push": cfg.Push.URL,
	})

	return container, nil
}

// PushChannel returns the metrics push client, or nil when the push channel is disabled
func (c *Container) PushChannel() push.Channel {
	if !c.Runtime.Push.Enabled {
		return nil
	}
	return push.NewClient(push.NewWebSocketDialer(c.Runtime.Push.URL),
		push.WithReconnectDelay(c.Runtime.Push.ReconnectDelay),
		push.WithLogger(c.Logger),
	)
}

// ExportDir returns where exported chat history is written
func (c *Container) ExportDir() string {
	if c.Runtime.Export.Directory != "" {
		return c.Runtime.Export.Directory
	}
	return c.Paths[filesystem.ExportsDirectory]
}

// Close releases the preference store and flushes the logger
func (c *Container) Close() error {
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
	return errors.Join(errs...)
}
