package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tatianab/nexus/internal/game"
	"github.com/tatianab/nexus/internal/savefile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a save file into the save slot",
		Long:  "Validate a file written by export or /saveas and make it the current game.",
		Args:  cobra.ExactArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	state, err := savefile.ReadFile(args[0])
	if err != nil {
		exitErr("import", err)
	}

	s := openStore()
	defer s.Close()

	// Restoring never consults the game master.
	session := game.NewSession(nil, s)
	if err := session.Restore(cmd.Context(), *state); err != nil {
		exitErr("import", err)
	}
	fmt.Printf("Imported %s.\n", state.PlayerInfo.Name)
}
