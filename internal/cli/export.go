package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tatianab/nexus/internal/savefile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the saved game to a file",
		Long:  "Write the save slot to nexus-save-<name>.json. The directory defaults to $NEXUS_EXPORT_DIR.",
		Run:   runExport,
	}

	cmd.Flags().StringP("out", "o", "", "Output directory")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = cfg.ExportDir
	}

	s := openStore()
	defer s.Close()

	state, ok := s.Load(cmd.Context())
	if !ok {
		exitErr("export", fmt.Errorf("no saved game"))
	}

	path, err := savefile.WriteFile(out, *state)
	if err != nil {
		exitErr("export", err)
	}
	fmt.Println(path)
}
