package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrIncompatibleState is returned for records that do not have the shape
// of a saved game.
var ErrIncompatibleState = errors.New("incompatible game state")

// requiredFields must be present and non-null in a saved game.
var requiredFields = []string{"playerInfo", "messages", "characterStats"}

// DecodeGameState parses a saved game. Missing optional fields are filled
// from the defaults of a new game, so records written by older versions
// still load.
func DecodeGameState(data []byte) (*GameState, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleState, err)
	}
	for _, field := range requiredFields {
		raw, ok := probe[field]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompatibleState, field)
		}
	}

	state := NewGameState()
	// A stored reputation map replaces the defaults instead of merging.
	state.CharacterStats.Reputation = nil
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleState, err)
	}
	state.normalize()
	return &state, nil
}

// EncodeGameState serializes a game for storage.
func EncodeGameState(state GameState) ([]byte, error) {
	return json.Marshal(state)
}

func (g *GameState) normalize() {
	if g.Messages == nil {
		g.Messages = []Message{}
	}
	if g.Inventory == nil {
		g.Inventory = []Item{}
	}
	if g.Quests == nil {
		g.Quests = []Quest{}
	}
	if g.CharacterStats.Reputation == nil {
		g.CharacterStats.Reputation = NewCharacterStats().Reputation
	}
	if g.CombatState.Enemies == nil {
		g.CombatState.Enemies = []Enemy{}
	}
	if g.CombatState.Log == nil {
		g.CombatState.Log = []string{}
	}
	if g.CombatState.Turn == "" {
		g.CombatState.Turn = PlayerTurn
	}
}
