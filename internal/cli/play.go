package cli

import (
	"github.com/spf13/cobra"

	"github.com/tatianab/nexus/internal/engine"
	"github.com/tatianab/nexus/internal/game"
	"github.com/tatianab/nexus/internal/tui"
	"github.com/tatianab/nexus/internal/world"
)

func init() {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the game",
		Long:  "Start the terminal game. A saved game is resumed; otherwise a new character is created.",
		Run:   runPlay,
	}

	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) {
	if err := cfg.RequireAPIKey(); err != nil {
		exitErr("config", err)
	}

	atlas, err := world.Load()
	if err != nil {
		exitErr("load world", err)
	}

	eng, err := engine.NewEngine(cmd.Context(), cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		exitErr("create engine", err)
	}
	defer eng.Close()

	s := openStore()
	defer s.Close()

	session := game.NewSession(eng, s)
	session.Resume(cmd.Context())

	if err := tui.Run(session, atlas, cfg.ExportDir); err != nil {
		exitErr("run tui", err)
	}
}
