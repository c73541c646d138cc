// Package cli implements the nexus commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tatianab/nexus/internal/config"
	"github.com/tatianab/nexus/internal/store"
)

var (
	dbPath string
	cfg    *config.Config
)

// RootCmd is the top-level command. Without a subcommand it starts the game.
var RootCmd = &cobra.Command{
	Use:   "nexus",
	Short: "A narrative RPG run by an AI game master",
	Long:  "Nexus is a terminal role-playing game. A Gemini model narrates the world; your character, items and progress are kept in a local save slot.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		c, err := config.LoadConfig()
		if err != nil {
			exitErr("load config", err)
		}
		cfg = c
		if err := setupLogger(cfg); err != nil {
			exitErr("open log", err)
		}
	},
	Run: runPlay,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Save database path (default: $NEXUS_SAVE_DB or .saves/nexus.db)")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.SaveDB
}

// setupLogger sends structured logs to the configured file; the terminal
// belongs to the game.
func setupLogger(c *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: c.Level()})))
	return nil
}

func openStore() *store.Store {
	return store.New(store.OpenSQLite(getDBPath(), cfg.StorageQuota))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
