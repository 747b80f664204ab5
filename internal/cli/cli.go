// Package cli implements the opennotify command-line interface.
//
// Commands query the open-notify API directly (astros, iss-now, passes) or
// read the position history recorded by the tracker (history). Every command
// prints a table by default and JSON with --json. Configuration comes from
// the same environment/.env keys the tracker uses; --base-url overrides the
// API root for a single invocation.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/opennotify/internal/app"
	"github.com/samvad-hq/opennotify/internal/config"
	"github.com/samvad-hq/opennotify/internal/storage"
	"github.com/samvad-hq/opennotify/pkg/opennotify"
)

const appName = "opennotify"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	loadConfig func() (*config.Config, error)
	newClient  func(cfg *config.Config, l *log.Logger) (opennotify.API, error)
	openStore  func(cfg *config.Config) (storage.Store, error)

	jsonOut bool
	baseURL string
}

// New creates a CLI that logs to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		loadConfig: config.Load,
		newClient:  defaultClient,
		openStore:  defaultStore,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Query the open-notify ISS and astronaut API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print JSON instead of a table")
	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "override the API base URL")

	root.AddCommand(c.astrosCommand())
	root.AddCommand(c.issNowCommand())
	root.AddCommand(c.passesCommand())
	root.AddCommand(c.historyCommand())

	return root
}

// settings loads config and applies per-invocation overrides.
func (c *CLI) settings() (*config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if u := strings.TrimSpace(c.baseURL); u != "" {
		cfg.APIBaseURL = u
	}
	return cfg, nil
}

func (c *CLI) client() (opennotify.API, *config.Config, error) {
	cfg, err := c.settings()
	if err != nil {
		return nil, nil, err
	}
	api, err := c.newClient(cfg, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	return api, cfg, nil
}

// writeJSON prints v as indented JSON.
func (c *CLI) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func defaultClient(cfg *config.Config, l *log.Logger) (opennotify.API, error) {
	return app.NewAPIClient(cfg, objLogger{l: l})
}

func defaultStore(cfg *config.Config) (storage.Store, error) {
	return storage.OpenReadOnly(cfg.StorageType, cfg.BBoltPath)
}

// contextOrBackground guards commands executed without ExecuteContext.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
