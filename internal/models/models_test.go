package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func sampleState() GameState {
	state := NewGameState()
	sword := NewWeapon("sword-1", "Rusty Sword", "Old but sharp", Bonuses{Strength: 3})
	state.Messages = []Message{
		{Role: RoleGameMaster, Content: "You wake in a cave."},
		{Role: RolePlayer, Content: "look around"},
	}
	state.Inventory = []Item{
		NewHealingItem("potion-1", "Healing Draught", "Smells of pine", 10),
		NewMisc("rune-1", "Rune Stone", "Faintly warm"),
	}
	state.Equipment = Equipment{Weapon: &sword}
	state.Quests = []Quest{{ID: "q1", Title: "The Cave", Description: "Explore it", Status: QuestActive, Type: QuestStandard}}
	state.CurrentLocation = "Laiba's Cave"
	state.LocationDescription = "Glowing mushrooms everywhere."
	state.PlayerInfo = &PlayerInfo{PlayerID: "p1", Name: "Ira", Description: "A wandering mage"}
	return state
}

func TestGameStateJSON(t *testing.T) {
	state := sampleState()

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("Failed to marshal state: %v", err)
	}

	got, err := DecodeGameState(data)
	if err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}

	if !reflect.DeepEqual(*got, state) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, state)
	}
}

func TestItemWireForm(t *testing.T) {
	sword := NewWeapon("sword-1", "Rusty Sword", "Old", Bonuses{Strength: 3, Dexterity: -1})
	data, err := json.Marshal(sword)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wire["type"] != "weapon" {
		t.Errorf("Expected type weapon, got %v", wire["type"])
	}
	stats, ok := wire["stats"].(map[string]any)
	if !ok {
		t.Fatalf("Expected stats object, got %v", wire["stats"])
	}
	if stats["strength"] != float64(3) || stats["dexterity"] != float64(-1) {
		t.Errorf("Unexpected stats %v", stats)
	}
	if wire["effect"] != nil {
		t.Errorf("Expected null effect, got %v", wire["effect"])
	}
}

func TestItemUnmarshalGatesFieldsByType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Item
		wantErr bool
	}{
		{
			name:  "weapon keeps stats and drops effect",
			input: `{"id":"a","name":"Axe","type":"weapon","description":"","stats":{"strength":2},"effect":{"type":"heal","amount":5}}`,
			want:  NewWeapon("a", "Axe", "", Bonuses{Strength: 2}),
		},
		{
			name:  "consumable drops stats",
			input: `{"id":"p","name":"Potion","type":"consumable","description":"","stats":{"strength":2},"effect":{"type":"heal","amount":5}}`,
			want:  NewHealingItem("p", "Potion", "", 5),
		},
		{
			name:  "misc drops everything",
			input: `{"id":"m","name":"Coin","type":"misc","description":"","stats":{"strength":2},"effect":{"type":"heal","amount":5}}`,
			want:  NewMisc("m", "Coin", ""),
		},
		{
			name:  "unknown and non-numeric stats are skipped",
			input: `{"id":"c","name":"Cloak","type":"armor","description":"","stats":{"charisma":4,"dexterity":"lots","intelligence":1}}`,
			want:  NewArmor("c", "Cloak", "", Bonuses{Intelligence: 1}),
		},
		{
			name:  "consumable without effect",
			input: `{"id":"b","name":"Bread","type":"consumable","description":"","stats":null,"effect":null}`,
			want:  Item{ID: "b", Name: "Bread", Payload: Consumable{}},
		},
		{
			name:  "unknown type becomes misc",
			input: `{"id":"x","name":"Thing","type":"gadget","description":"","stats":{"strength":2}}`,
			want:  NewMisc("x", "Thing", ""),
		},
		{
			name:  "string stats",
			input: `{"id":"s","name":"Sword","type":"weapon","description":"","stats":"+2 strength"}`,
			want:  NewWeapon("s", "Sword", "", Bonuses{}),
		},
		{
			name:  "array stats",
			input: `{"id":"s","name":"Shield","type":"armor","description":"","stats":[1,2]}`,
			want:  NewArmor("s", "Shield", "", Bonuses{}),
		},
		{
			name:  "malformed effect",
			input: `{"id":"h","name":"Herb","type":"consumable","description":"","effect":"heals a bit"}`,
			want:  Item{ID: "h", Name: "Herb", Payload: Consumable{}},
		},
		{
			name:    "not an object",
			input:   `"sword"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Item
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got item %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeGameStateRequiresCoreFields(t *testing.T) {
	for _, input := range []string{
		`not json`,
		`[]`,
		`{"messages":[],"characterStats":{}}`,
		`{"playerInfo":null,"messages":[],"characterStats":{}}`,
		`{"playerInfo":{"name":"Ira"},"characterStats":{}}`,
		`{"playerInfo":{"name":"Ira"},"messages":[]}`,
	} {
		if _, err := DecodeGameState([]byte(input)); !errors.Is(err, ErrIncompatibleState) {
			t.Errorf("DecodeGameState(%s) error = %v, want ErrIncompatibleState", input, err)
		}
	}
}

func TestDecodeGameStateFillsDefaults(t *testing.T) {
	input := `{"playerInfo":{"playerId":"p","name":"Ira","description":""},"messages":[],"characterStats":{"strength":9}}`
	got, err := DecodeGameState([]byte(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := NewCharacterStats()
	want.Strength = 9
	if !reflect.DeepEqual(got.CharacterStats, want) {
		t.Errorf("Expected stats %+v, got %+v", want, got.CharacterStats)
	}
	if got.CombatState.Turn != PlayerTurn || got.CombatState.IsActive {
		t.Errorf("Expected default combat state, got %+v", got.CombatState)
	}
	if got.Quests == nil || got.Inventory == nil {
		t.Error("Expected empty, non-nil quests and inventory")
	}
}

func TestCharacterStatsCloneIsDeep(t *testing.T) {
	base := NewCharacterStats()
	clone := base.Clone()
	clone.Reputation[ReputationDark] = -5

	if base.Reputation[ReputationDark] != 0 {
		t.Errorf("Clone shares reputation map with original")
	}
}
