package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tatianab/nexus/internal/engine"
	"github.com/tatianab/nexus/internal/models"
	"github.com/tatianab/nexus/internal/store"
)

type fakeGM struct {
	stats     models.InitialStats
	statsErr  error
	responses []*models.GameResponse
	err       error
	turns     []engine.Turn

	// block, when set, holds Respond until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeGM) InitialStats(ctx context.Context, player models.PlayerInfo) (models.InitialStats, error) {
	if f.statsErr != nil {
		return models.DefaultInitialStats(), f.statsErr
	}
	return f.stats, nil
}

func (f *fakeGM) Respond(ctx context.Context, turn engine.Turn) (*models.GameResponse, error) {
	f.turns = append(f.turns, turn)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type fakeSaves struct {
	mu    sync.Mutex
	saved *models.GameState
	saves int
}

func (f *fakeSaves) Save(ctx context.Context, state models.GameState) (store.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := state.Clone()
	f.saved = &c
	f.saves++
	return store.Saved, nil
}

func (f *fakeSaves) Load(ctx context.Context) (*models.GameState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		return nil, false
	}
	c := f.saved.Clone()
	return &c, true
}

func (f *fakeSaves) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = nil
	return nil
}

func strPtr(s string) *string { return &s }

func response(desc string) *models.GameResponse {
	stats := models.NewCharacterStats()
	combat := models.NewCombatState()
	return &models.GameResponse{
		Description:         desc,
		SuggestedActions:    []string{"look around", "wait"},
		Inventory:           []models.Item{},
		Quests:              []models.Quest{},
		CharacterStats:      &stats,
		CombatState:         &combat,
		CurrentLocation:     strPtr("Пещера Лайбы"),
		LocationDescription: strPtr("Damp walls."),
	}
}

func newTestSession(gm *fakeGM) (*Session, *fakeSaves) {
	saves := &fakeSaves{}
	s := NewSession(gm, saves)
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s, saves
}

func startedSession(t *testing.T, gm *fakeGM) (*Session, *fakeSaves) {
	t.Helper()
	s, saves := newTestSession(gm)
	gm.responses = append([]*models.GameResponse{response("You wake in a cave.")}, gm.responses...)
	if _, err := s.NewGame(context.Background(), "Ira", "a wandering mage"); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return s, saves
}

func TestNewGame(t *testing.T) {
	gm := &fakeGM{
		stats:     models.InitialStats{Strength: 4, Dexterity: 5, Intelligence: 9, Reputation: map[string]int{models.ReputationLight: 2}},
		responses: []*models.GameResponse{response("You wake in a cave.")},
	}
	s, saves := newTestSession(gm)

	report, err := s.NewGame(context.Background(), "  Ira ", "a wandering mage")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if report.Description != "You wake in a cave." || len(report.SuggestedActions) != 2 {
		t.Errorf("Unexpected report %+v", report)
	}

	turn := gm.turns[0]
	if len(turn.History) != 0 {
		t.Errorf("Expected the opening turn to have no history, got %d messages", len(turn.History))
	}
	if turn.Stats.Intelligence != 9 || turn.Stats.Reputation[models.ReputationLight] != 2 {
		t.Errorf("Initial stats not applied to the opening turn: %+v", turn.Stats)
	}

	state := s.Snapshot()
	if state.PlayerInfo == nil || state.PlayerInfo.Name != "Ira" || state.PlayerInfo.PlayerID != "id-1" {
		t.Fatalf("Unexpected player %+v", state.PlayerInfo)
	}
	if len(state.Messages) != 1 || state.Messages[0].Role != models.RoleGameMaster {
		t.Errorf("Expected one game master message, got %+v", state.Messages)
	}
	if state.CurrentLocation != "Пещера Лайбы" {
		t.Errorf("Expected location from response, got %q", state.CurrentLocation)
	}
	if saves.saves != 1 || saves.saved == nil {
		t.Errorf("Expected one autosave, got %d", saves.saves)
	}
	if !s.Started() {
		t.Error("Expected session to be started")
	}
}

func TestNewGameFallsBackToDefaultStats(t *testing.T) {
	gm := &fakeGM{statsErr: engine.ErrMalformedResponse, responses: []*models.GameResponse{response("Hello.")}}
	s, _ := newTestSession(gm)
	if _, err := s.NewGame(context.Background(), "Ira", ""); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if got := gm.turns[0].Stats; got.Strength != 6 || got.Dexterity != 6 || got.Intelligence != 6 {
		t.Errorf("Expected 6/6/6 fallback, got %d/%d/%d", got.Strength, got.Dexterity, got.Intelligence)
	}
}

func TestNewGameRequiresName(t *testing.T) {
	s, _ := newTestSession(&fakeGM{})
	if _, err := s.NewGame(context.Background(), "   ", "x"); err == nil {
		t.Fatal("Expected an error for an empty name")
	}
	if s.Started() {
		t.Error("Expected no game")
	}
}

func TestActMergesResponse(t *testing.T) {
	gm := &fakeGM{}
	s, saves := startedSession(t, gm)

	s.mu.Lock()
	s.state.Quests = []models.Quest{
		{ID: "q1", Title: "Echoes", Status: models.QuestActive},
		{ID: "q0", Title: "Old", Status: models.QuestCompleted},
	}
	s.mu.Unlock()

	resp := response("The goblin falls.")
	resp.Quests = []models.Quest{
		{ID: "q1", Title: "Echoes", Status: models.QuestCompleted},
		{ID: "q0", Title: "Old", Status: models.QuestCompleted},
		{ID: "q2", Title: "Deeper", Status: models.QuestActive},
	}
	resp.CharacterStats.Level = 2
	resp.CharacterStats.HP = 99
	resp.XPGained = 40
	resp.Inventory = []models.Item{models.NewMisc("", "Goblin ear", "")}
	resp.RandomEvent = &models.RandomEvent{Name: "Tremor"}
	resp.CurrentLocation = nil
	gm.responses = []*models.GameResponse{resp}

	report, err := s.Act(context.Background(), "attack")
	if err != nil {
		t.Fatalf("Act: %v", err)
	}

	if len(report.NewQuests) != 1 || report.NewQuests[0].ID != "q2" {
		t.Errorf("Unexpected new quests %+v", report.NewQuests)
	}
	if len(report.CompletedQuests) != 1 || report.CompletedQuests[0].ID != "q1" {
		t.Errorf("Unexpected completed quests %+v", report.CompletedQuests)
	}
	if report.LevelUp != 2 || report.XPGained != 40 {
		t.Errorf("Expected level up to 2 and 40 xp, got %d and %d", report.LevelUp, report.XPGained)
	}
	if report.RandomEvent == nil || report.RandomEvent.Name != "Tremor" {
		t.Errorf("Expected random event, got %+v", report.RandomEvent)
	}

	state := s.Snapshot()
	if state.CharacterStats.HP != state.CharacterStats.MaxHP {
		t.Errorf("Expected hp clamped to %d, got %d", state.CharacterStats.MaxHP, state.CharacterStats.HP)
	}
	if state.CurrentLocation != UnknownLocation {
		t.Errorf("Expected %q for a missing location, got %q", UnknownLocation, state.CurrentLocation)
	}
	if len(state.Inventory) != 1 || state.Inventory[0].ID == "" {
		t.Errorf("Expected the new item to get an id, got %+v", state.Inventory)
	}

	msgs := state.Messages
	if len(msgs) != 3 || msgs[1].Role != models.RolePlayer || msgs[1].Content != "attack" || msgs[2].Content != "The goblin falls." {
		t.Errorf("Unexpected messages %+v", msgs)
	}
	if last := gm.turns[len(gm.turns)-1]; last.History[len(last.History)-1].Content != "attack" {
		t.Errorf("Expected the action to close the history sent to the game master")
	}
	if saves.saves != 2 {
		t.Errorf("Expected 2 autosaves, got %d", saves.saves)
	}
}

func TestActKeepsEquipmentWhenResponseOmitsIt(t *testing.T) {
	gm := &fakeGM{}
	s, _ := startedSession(t, gm)
	sword := models.NewWeapon("sword", "Sword", "", models.Bonuses{models.Strength: 3})

	s.mu.Lock()
	s.state.Equipment.Weapon = &sword
	s.mu.Unlock()

	resp := response("Nothing happens.")
	resp.Inventory = []models.Item{sword, models.NewMisc("rock", "Rock", "")}
	gm.responses = []*models.GameResponse{resp}

	if _, err := s.Act(context.Background(), "wait"); err != nil {
		t.Fatalf("Act: %v", err)
	}
	state := s.Snapshot()
	if state.Equipment.Weapon == nil || state.Equipment.Weapon.ID != "sword" {
		t.Fatalf("Expected the sword to stay equipped, got %+v", state.Equipment.Weapon)
	}
	if len(state.Inventory) != 1 || state.Inventory[0].ID != "rock" {
		t.Errorf("Expected the duplicated sword dropped from the inventory, got %+v", state.Inventory)
	}
	if got := s.TotalStats().Strength; got != 8 {
		t.Errorf("Expected effective strength 8, got %d", got)
	}
}

func TestActGameMasterFailure(t *testing.T) {
	gm := &fakeGM{}
	s, saves := startedSession(t, gm)
	before := s.Snapshot()
	gm.err = fmt.Errorf("wrapped: %w", engine.ErrRateLimited)

	_, err := s.Act(context.Background(), "run")
	if !errors.Is(err, engine.ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}

	state := s.Snapshot()
	if n := len(state.Messages); n != len(before.Messages)+2 || state.Messages[n-1].Content != AnomalyMessage {
		t.Errorf("Expected action and anomaly messages, got %+v", state.Messages)
	}
	if state.CharacterStats.HP != before.CharacterStats.HP || state.CurrentLocation != before.CurrentLocation {
		t.Error("Expected the rest of the game to be unchanged")
	}
	if saves.saves != 2 {
		t.Errorf("Expected the failed turn to be autosaved, got %d saves", saves.saves)
	}
	if s.Busy() {
		t.Error("Expected the session to be idle after a failure")
	}
}

func TestActGameOver(t *testing.T) {
	gm := &fakeGM{}
	s, _ := startedSession(t, gm)
	resp := response("You fall.")
	resp.CharacterStats.HP = -4
	gm.responses = []*models.GameResponse{resp}

	report, err := s.Act(context.Background(), "jump")
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if !report.GameOver || !s.GameOver() {
		t.Error("Expected game over")
	}
	if hp := s.Snapshot().CharacterStats.HP; hp != 0 {
		t.Errorf("Expected hp clamped to 0, got %d", hp)
	}
}

func TestActWithoutGame(t *testing.T) {
	s, _ := newTestSession(&fakeGM{})
	if _, err := s.Act(context.Background(), "look"); !errors.Is(err, ErrNoGame) {
		t.Errorf("Expected ErrNoGame, got %v", err)
	}
	if _, err := s.Act(context.Background(), " "); !errors.Is(err, ErrEmptyAction) {
		t.Errorf("Expected ErrEmptyAction, got %v", err)
	}
}

func TestItemActions(t *testing.T) {
	gm := &fakeGM{}
	s, saves := startedSession(t, gm)
	ctx := context.Background()

	s.mu.Lock()
	s.state.CharacterStats.HP = 10
	s.state.Inventory = []models.Item{
		models.NewWeapon("sword", "Sword", "", models.Bonuses{models.Strength: 3}),
		models.NewHealingItem("potion", "Potion", "", 5),
		models.NewMisc("rock", "Rock", ""),
	}
	s.mu.Unlock()

	if err := s.Equip(ctx, "sword"); err != nil {
		t.Fatalf("Equip: %v", err)
	}
	if got := s.Snapshot(); got.Equipment.Weapon == nil || len(got.Inventory) != 2 {
		t.Fatalf("Unexpected state after equip: %+v", got)
	}

	if err := s.Use(ctx, "potion"); err != nil {
		t.Fatalf("Use: %v", err)
	}
	if got := s.Snapshot(); got.CharacterStats.HP != 15 || len(got.Inventory) != 1 {
		t.Errorf("Unexpected state after use: hp %d, inventory %+v", got.CharacterStats.HP, got.Inventory)
	}

	if err := s.Unequip(ctx, models.SlotWeapon); err != nil {
		t.Fatalf("Unequip: %v", err)
	}
	if err := s.Unequip(ctx, models.SlotArmor); err != nil {
		t.Fatalf("Unequip empty slot: %v", err)
	}
	got := s.Snapshot()
	if got.Equipment.Weapon != nil || len(got.Inventory) != 2 || got.Inventory[1].ID != "sword" {
		t.Errorf("Unexpected state after unequip: %+v", got)
	}

	if err := s.Equip(ctx, "rock"); !errors.Is(err, ErrNotEquippable) {
		t.Errorf("Expected ErrNotEquippable, got %v", err)
	}
	if err := s.Use(ctx, "rock"); !errors.Is(err, ErrNotUsable) {
		t.Errorf("Expected ErrNotUsable, got %v", err)
	}
	if err := s.Equip(ctx, "ghost"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
	// NewGame, equip, use, unequip.
	if saves.saves != 4 {
		t.Errorf("Expected 4 autosaves, got %d", saves.saves)
	}
}

func TestItemActionsRejectedWhileBusy(t *testing.T) {
	gm := &fakeGM{}
	s, _ := startedSession(t, gm)
	gm.block = make(chan struct{})
	gm.entered = make(chan struct{})
	gm.responses = []*models.GameResponse{response("Later.")}

	done := make(chan error)
	go func() {
		_, err := s.Act(context.Background(), "wait")
		done <- err
	}()
	<-gm.entered

	if !s.Busy() {
		t.Error("Expected the session to be busy")
	}
	if err := s.Unequip(context.Background(), models.SlotWeapon); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy from Unequip, got %v", err)
	}
	if _, err := s.Act(context.Background(), "again"); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy from Act, got %v", err)
	}

	close(gm.block)
	if err := <-done; err != nil {
		t.Fatalf("Act: %v", err)
	}
}

func TestResumeRestoreReset(t *testing.T) {
	gm := &fakeGM{}
	s, saves := startedSession(t, gm)
	ctx := context.Background()

	other, _ := newTestSession(&fakeGM{})
	other.saves = saves
	if !other.Resume(ctx) {
		t.Fatal("Expected Resume to find the saved game")
	}
	if got := other.Snapshot().PlayerInfo; got == nil || got.Name != "Ira" {
		t.Errorf("Unexpected resumed player %+v", got)
	}

	sword := models.NewWeapon("sword", "Sword", "", models.Bonuses{})
	imported := models.NewGameState()
	imported.PlayerInfo = &models.PlayerInfo{PlayerID: "p", Name: "Zoe"}
	imported.Equipment.Weapon = &sword
	imported.Inventory = []models.Item{sword}
	if err := s.Restore(ctx, imported); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := s.Snapshot(); got.PlayerInfo.Name != "Zoe" || len(got.Inventory) != 0 {
		t.Errorf("Unexpected restored state %+v", got)
	}
	if saves.saved.PlayerInfo.Name != "Zoe" {
		t.Error("Expected the restored game to be saved")
	}
	if err := s.Restore(ctx, models.NewGameState()); !errors.Is(err, ErrNoGame) {
		t.Errorf("Expected ErrNoGame for a game without player, got %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Started() || saves.saved != nil {
		t.Error("Expected Reset to forget the game and clear the slot")
	}
	if other.Resume(ctx) {
		t.Error("Expected nothing to resume after Reset")
	}
}
