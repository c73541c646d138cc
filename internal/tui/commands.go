package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tatianab/nexus/internal/models"
)

type commandKind int

const (
	cmdAction commandKind = iota
	cmdQuit
	cmdNew
	cmdSave
	cmdSaveAs
	cmdMap
	cmdEquip
	cmdUnequip
	cmdUse
	cmdTravel
	cmdInvalid
)

type command struct {
	kind  commandKind
	arg   string // action text, travel destination or error text
	index int    // 1-based inventory position
	slot  models.Slot
}

// parseInput turns a line typed by the player into a command. A bare number
// selects one of the suggested actions.
func parseInput(input string, suggestions []string) command {
	input = strings.TrimSpace(input)

	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(suggestions) {
			return command{kind: cmdAction, arg: suggestions[n-1]}
		}
		return command{kind: cmdAction, arg: input}
	}

	if !strings.HasPrefix(input, "/") {
		return command{kind: cmdAction, arg: input}
	}

	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(name) {
	case "/quit":
		return command{kind: cmdQuit}
	case "/new":
		return command{kind: cmdNew}
	case "/save":
		return command{kind: cmdSave}
	case "/saveas":
		return command{kind: cmdSaveAs}
	case "/map":
		return command{kind: cmdMap}
	case "/equip", "/use":
		kind := cmdEquip
		if strings.EqualFold(name, "/use") {
			kind = cmdUse
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			return command{kind: cmdInvalid, arg: fmt.Sprintf("Использование: %s N", name)}
		}
		return command{kind: kind, index: n}
	case "/unequip":
		slot, ok := models.ParseSlot(strings.ToLower(rest))
		if !ok {
			return command{kind: cmdInvalid, arg: "Использование: /unequip weapon|armor"}
		}
		return command{kind: cmdUnequip, slot: slot}
	case "/travel":
		if rest == "" {
			return command{kind: cmdInvalid, arg: "Использование: /travel МЕСТО"}
		}
		return command{kind: cmdTravel, arg: rest}
	}
	return command{kind: cmdInvalid, arg: "Неизвестная команда: " + name}
}
