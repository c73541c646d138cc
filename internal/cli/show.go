package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tatianab/nexus/internal/models"
	"github.com/tatianab/nexus/internal/rules"
	"github.com/tatianab/nexus/internal/savefile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved game",
		Long:  "Print the character in the save slot, with effective stats. Use --json for the raw save.",
		Run:   runShow,
	}

	cmd.Flags().Bool("json", false, "Print the save as JSON")

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	asJSON, _ := cmd.Flags().GetBool("json")

	s := openStore()
	defer s.Close()

	state, ok := s.Load(cmd.Context())
	if !ok {
		fmt.Println("No saved game.")
		return
	}

	if asJSON {
		_, data, err := savefile.Export(*state)
		if err != nil {
			exitErr("encode", err)
		}
		fmt.Println(string(data))
		return
	}
	printState(os.Stdout, *state)
}

func printState(w io.Writer, state models.GameState) {
	base := state.CharacterStats
	total := rules.CalculateTotalStats(base, state.Equipment)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if p := state.PlayerInfo; p != nil {
		fmt.Fprintf(tw, "Name\t%s\n", p.Name)
		if p.Description != "" {
			fmt.Fprintf(tw, "Description\t%s\n", p.Description)
		}
	}
	fmt.Fprintf(tw, "Location\t%s\n", state.CurrentLocation)
	fmt.Fprintf(tw, "Level\t%d (%d/%d xp)\n", base.Level, base.XP, base.XPToNextLevel)
	fmt.Fprintf(tw, "HP\t%d/%d\n", base.HP, base.MaxHP)
	for _, a := range models.AllAttributes {
		if b, t := base.Attribute(a), total.Attribute(a); b != t {
			fmt.Fprintf(tw, "%s\t%d (base %d)\n", a, t, b)
		} else {
			fmt.Fprintf(tw, "%s\t%d\n", a, t)
		}
	}
	for _, key := range []string{models.ReputationLight, models.ReputationDark, models.ReputationNeutral} {
		fmt.Fprintf(tw, "%s\t%d\n", key, base.Reputation[key])
	}
	for _, slot := range []models.Slot{models.SlotWeapon, models.SlotArmor} {
		name := "-"
		if it := state.Equipment.Get(slot); it != nil {
			name = it.Name
		}
		fmt.Fprintf(tw, "%s\t%s\n", slot, name)
	}
	for i, it := range state.Inventory {
		fmt.Fprintf(tw, "item %d\t%s [%s]\n", i+1, it.Name, it.Type())
	}
	for _, q := range state.Quests {
		fmt.Fprintf(tw, "quest\t%s (%s)\n", q.Title, q.Status)
	}
	fmt.Fprintf(tw, "Messages\t%d\n", len(state.Messages))
	tw.Flush()
}
