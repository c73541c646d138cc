package models

// MessageRole identifies who authored a line of the conversation.
type MessageRole string

const (
	RolePlayer     MessageRole = "player"
	RoleGameMaster MessageRole = "game_master"
)

// Message is a single turn in the conversation log.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
)

type QuestType string

const (
	QuestStandard  QuestType = "standard"
	QuestArchitect QuestType = "architect"
)

// Quest is never deleted once given; completed quests stay in the journal.
type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      QuestStatus `json:"status"`
	Type        QuestType   `json:"type,omitempty"`
}

// CharacterStats holds the base attributes of the player character.
// Equipment bonuses are never folded into these values.
type CharacterStats struct {
	Level         int            `json:"level"`
	XP            int            `json:"xp"`
	XPToNextLevel int            `json:"xpToNextLevel"`
	Strength      int            `json:"strength"`
	Dexterity     int            `json:"dexterity"`
	Intelligence  int            `json:"intelligence"`
	HP            int            `json:"hp"`
	MaxHP         int            `json:"maxHp"`
	Reputation    map[string]int `json:"reputation"`
}

// Reputation keys understood by the game master.
const (
	ReputationLight   = "pantheon_light"
	ReputationDark    = "pantheon_dark"
	ReputationNeutral = "pantheon_neutral"
)

// NewCharacterStats returns the stats a fresh character starts with.
func NewCharacterStats() CharacterStats {
	return CharacterStats{
		Level:         1,
		XP:            0,
		XPToNextLevel: 100,
		Strength:      5,
		Dexterity:     5,
		Intelligence:  5,
		HP:            20,
		MaxHP:         20,
		Reputation: map[string]int{
			ReputationLight:   0,
			ReputationDark:    0,
			ReputationNeutral: 0,
		},
	}
}

// Clone returns a copy that shares no memory with s.
func (s CharacterStats) Clone() CharacterStats {
	out := s
	if s.Reputation != nil {
		out.Reputation = make(map[string]int, len(s.Reputation))
		for k, v := range s.Reputation {
			out.Reputation[k] = v
		}
	}
	return out
}

// Attribute returns the value of a core attribute.
func (s CharacterStats) Attribute(a Attribute) int {
	switch a {
	case Strength:
		return s.Strength
	case Dexterity:
		return s.Dexterity
	case Intelligence:
		return s.Intelligence
	}
	return 0
}

// AddAttribute adds delta to a core attribute. Unknown attributes are ignored.
func (s *CharacterStats) AddAttribute(a Attribute, delta int) {
	switch a {
	case Strength:
		s.Strength += delta
	case Dexterity:
		s.Dexterity += delta
	case Intelligence:
		s.Intelligence += delta
	}
}

// ClampHP forces hp into [0, maxHp].
func (s *CharacterStats) ClampHP() {
	s.HP = max(0, min(s.HP, s.MaxHP))
}

// InitialStats is the attribute spread generated for a new character.
type InitialStats struct {
	Strength     int            `json:"strength"`
	Dexterity    int            `json:"dexterity"`
	Intelligence int            `json:"intelligence"`
	Reputation   map[string]int `json:"reputation"`
}

// DefaultInitialStats is used when no spread could be generated.
func DefaultInitialStats() InitialStats {
	return InitialStats{
		Strength:     6,
		Dexterity:    6,
		Intelligence: 6,
		Reputation: map[string]int{
			ReputationLight:   0,
			ReputationDark:    0,
			ReputationNeutral: 0,
		},
	}
}

// Apply overlays the generated spread on top of s.
func (i InitialStats) Apply(s CharacterStats) CharacterStats {
	out := s.Clone()
	out.Strength = i.Strength
	out.Dexterity = i.Dexterity
	out.Intelligence = i.Intelligence
	for k, v := range i.Reputation {
		if out.Reputation == nil {
			out.Reputation = make(map[string]int)
		}
		out.Reputation[k] = v
	}
	return out
}

// PlayerTurn is the CombatState.Turn marker for the player's turn.
// Any other value is the id of the enemy about to act.
const PlayerTurn = "player"

type Enemy struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"maxHp"`
}

type CombatState struct {
	IsActive bool     `json:"isActive"`
	Enemies  []Enemy  `json:"enemies"`
	Turn     string   `json:"turn"`
	Log      []string `json:"log"`
}

// NewCombatState returns the out-of-combat state.
func NewCombatState() CombatState {
	return CombatState{
		Enemies: []Enemy{},
		Turn:    PlayerTurn,
		Log:     []string{},
	}
}

type PlayerInfo struct {
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GameState is the whole unit of persistence. It is saved and loaded
// atomically under a single key.
type GameState struct {
	Messages            []Message      `json:"messages"`
	Inventory           []Item         `json:"inventory"`
	Quests              []Quest        `json:"quests"`
	CharacterStats      CharacterStats `json:"characterStats"`
	CombatState         CombatState    `json:"combatState"`
	Equipment           Equipment      `json:"equipment"`
	CurrentLocation     string         `json:"currentLocation"`
	LocationDescription string         `json:"locationDescription"`
	PlayerInfo          *PlayerInfo    `json:"playerInfo"`
}

// NewGameState returns an empty game with default stats and no player.
func NewGameState() GameState {
	return GameState{
		Messages:       []Message{},
		Inventory:      []Item{},
		Quests:         []Quest{},
		CharacterStats: NewCharacterStats(),
		CombatState:    NewCombatState(),
	}
}

// Clone returns a copy of g whose slices and maps can be modified freely.
func (g GameState) Clone() GameState {
	out := g
	out.Messages = append([]Message{}, g.Messages...)
	out.Inventory = append([]Item{}, g.Inventory...)
	out.Quests = append([]Quest{}, g.Quests...)
	out.CharacterStats = g.CharacterStats.Clone()
	out.CombatState.Enemies = append([]Enemy{}, g.CombatState.Enemies...)
	out.CombatState.Log = append([]string{}, g.CombatState.Log...)
	if g.PlayerInfo != nil {
		p := *g.PlayerInfo
		out.PlayerInfo = &p
	}
	return out
}

// RandomEvent is a notable, unprompted occurrence reported by the game master.
type RandomEvent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GameResponse is the structured reply of the game master for one turn.
// Pointer fields distinguish "absent" from zero values.
type GameResponse struct {
	Description         string          `json:"description"`
	SuggestedActions    []string        `json:"suggested_actions"`
	Inventory           []Item          `json:"inventory"`
	NewItem             *Item           `json:"newItem,omitempty"`
	Loot                []Item          `json:"loot,omitempty"`
	Quests              []Quest         `json:"quests"`
	CharacterStats      *CharacterStats `json:"characterStats"`
	XPGained            int             `json:"xpGained,omitempty"`
	CombatState         *CombatState    `json:"combatState"`
	Equipment           *Equipment      `json:"equipment,omitempty"`
	CurrentLocation     *string         `json:"currentLocation"`
	LocationDescription *string         `json:"locationDescription"`
	RandomEvent         *RandomEvent    `json:"randomEvent,omitempty"`
}
