// Package game owns the authoritative in-memory game and keeps it in sync
// with the game master, the item rules and the save slot.
package game

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tatianab/nexus/internal/engine"
	"github.com/tatianab/nexus/internal/models"
	"github.com/tatianab/nexus/internal/rules"
	"github.com/tatianab/nexus/internal/store"
)

var (
	ErrNoGame        = errors.New("no game in progress")
	ErrBusy          = errors.New("the game master is still answering")
	ErrItemNotFound  = errors.New("item not found")
	ErrNotEquippable = errors.New("item cannot be equipped")
	ErrNotUsable     = errors.New("item cannot be used")
	ErrEmptyAction   = errors.New("action is empty")
)

// AnomalyMessage is logged when the game master could not answer a turn.
const AnomalyMessage = "Возникла аномалия в ткани реальности... Попробуйте ваше действие еще раз."

// GameMaster plays the world.
type GameMaster interface {
	InitialStats(ctx context.Context, player models.PlayerInfo) (models.InitialStats, error)
	Respond(ctx context.Context, turn engine.Turn) (*models.GameResponse, error)
}

// Saves is the durable save slot.
type Saves interface {
	Save(ctx context.Context, state models.GameState) (store.Outcome, error)
	Load(ctx context.Context) (*models.GameState, bool)
	Clear(ctx context.Context) error
}

// Session holds the running game. Only one game master request runs at a
// time; item actions are rejected with ErrBusy while it is pending.
type Session struct {
	gm     GameMaster
	saves  Saves
	logger *slog.Logger
	newID  func() string

	mu    sync.Mutex
	state models.GameState
	busy  bool
}

func NewSession(gm GameMaster, saves Saves) *Session {
	return &Session{
		gm:     gm,
		saves:  saves,
		logger: slog.Default().With("component", "game"),
		newID:  newULID,
		state:  models.NewGameState(),
	}
}

func newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Started reports whether a character exists.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PlayerInfo != nil
}

// Busy reports whether a game master request is pending.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Snapshot returns a copy of the current game.
func (s *Session) Snapshot() models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// TotalStats returns base stats plus equipment bonuses.
func (s *Session) TotalStats() models.CharacterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rules.CalculateTotalStats(s.state.CharacterStats, s.state.Equipment)
}

// Resume loads the saved game, if there is one with a character.
func (s *Session) Resume(ctx context.Context) bool {
	saved, ok := s.saves.Load(ctx)
	if !ok || saved.PlayerInfo == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = *saved
	return true
}

// Restore replaces the game with an imported one and saves it. The game is
// replaced even when the save fails; the error reports the failed save.
func (s *Session) Restore(ctx context.Context, state models.GameState) error {
	if state.PlayerInfo == nil {
		return fmt.Errorf("restore: %w", ErrNoGame)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.state = state.Clone()
	s.state.Inventory = rules.Reconcile(s.state.Inventory, s.state.Equipment)
	if outcome, err := s.saves.Save(ctx, s.state); outcome == store.Failed {
		return fmt.Errorf("save restored game: %w", err)
	}
	return nil
}

// Reset clears the save slot and forgets the character.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.state = models.NewGameState()
	return s.saves.Clear(ctx)
}

// Save writes the game to the save slot.
func (s *Session) Save(ctx context.Context) (store.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.PlayerInfo == nil {
		return store.Failed, ErrNoGame
	}
	return s.saves.Save(ctx, s.state)
}

// autosaveLocked persists the game after a change. Failures are logged by
// the store and do not interrupt play.
func (s *Session) autosaveLocked(ctx context.Context) {
	if s.state.PlayerInfo == nil {
		return
	}
	if outcome, err := s.saves.Save(ctx, s.state); outcome != store.Saved {
		s.logger.Warn("autosave degraded", "outcome", outcome.String(), "error", err)
	}
}

// NewGame creates a character and asks the game master for the opening
// scene. The previous game is discarded.
func (s *Session) NewGame(ctx context.Context, name, description string) (*TurnReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("character name is required")
	}
	player := models.PlayerInfo{
		PlayerID:    s.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	spread, err := s.gm.InitialStats(ctx, player)
	if err != nil {
		s.logger.Warn("using default initial stats", "error", err)
		spread = models.DefaultInitialStats()
	}

	fresh := models.NewGameState()
	fresh.CharacterStats = spread.Apply(fresh.CharacterStats)

	resp, err := s.gm.Respond(ctx, engine.Turn{
		Stats:     fresh.CharacterStats,
		Combat:    fresh.CombatState,
		Inventory: fresh.Inventory,
		Quests:    fresh.Quests,
		Player:    &player,
	})
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fresh
	s.state.PlayerInfo = &player
	report := s.mergeLocked(resp)
	s.autosaveLocked(ctx)
	return report, nil
}

// Act sends a player action to the game master and merges the reply. When
// the game master fails, an anomaly message is added to the log and the
// error is returned; the rest of the game is unchanged.
func (s *Session) Act(ctx context.Context, action string) (*TurnReport, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, ErrEmptyAction
	}

	s.mu.Lock()
	if s.state.PlayerInfo == nil {
		s.mu.Unlock()
		return nil, ErrNoGame
	}
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.state.Messages = append(s.state.Messages, models.Message{Role: models.RolePlayer, Content: action})
	turn := s.turnLocked()
	s.mu.Unlock()

	resp, err := s.gm.Respond(ctx, turn)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if err != nil {
		s.logger.Error("game master failed", "action", action, "error", err)
		s.state.Messages = append(s.state.Messages, models.Message{Role: models.RoleGameMaster, Content: AnomalyMessage})
		s.autosaveLocked(ctx)
		return nil, err
	}

	report := s.mergeLocked(resp)
	s.autosaveLocked(ctx)
	return report, nil
}

func (s *Session) turnLocked() engine.Turn {
	snap := s.state.Clone()
	return engine.Turn{
		History:   snap.Messages,
		Inventory: snap.Inventory,
		Equipment: snap.Equipment,
		Quests:    snap.Quests,
		Stats:     snap.CharacterStats,
		Combat:    snap.CombatState,
		Location:  snap.CurrentLocation,
		Player:    snap.PlayerInfo,
	}
}
