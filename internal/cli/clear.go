package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved game",
		Run:   runClear,
	}

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	s := openStore()
	defer s.Close()

	if err := s.Clear(cmd.Context()); err != nil {
		exitErr("clear", err)
	}
	fmt.Println("Save slot cleared.")
}
