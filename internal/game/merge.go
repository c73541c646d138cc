package game

import (
	"github.com/tatianab/nexus/internal/models"
	"github.com/tatianab/nexus/internal/rules"
)

// UnknownLocation is shown when the game master does not name a place.
const UnknownLocation = "unknown"

// TurnReport summarizes what changed in one game master turn.
type TurnReport struct {
	Description      string
	SuggestedActions []string
	NewQuests        []models.Quest
	CompletedQuests  []models.Quest
	XPGained         int
	LevelUp          int // new level, or 0
	NewItem          *models.Item
	Loot             []models.Item
	RandomEvent      *models.RandomEvent
	GameOver         bool
}

// mergeLocked folds a game master response into the session state.
func (s *Session) mergeLocked(resp *models.GameResponse) *TurnReport {
	report := &TurnReport{
		Description:      resp.Description,
		SuggestedActions: append([]string{}, resp.SuggestedActions...),
		XPGained:         max(resp.XPGained, 0),
		RandomEvent:      resp.RandomEvent,
	}

	prev := s.state
	s.state.Messages = append(s.state.Messages, models.Message{Role: models.RoleGameMaster, Content: resp.Description})

	known := make(map[string]models.QuestStatus, len(prev.Quests))
	for _, q := range prev.Quests {
		known[q.ID] = q.Status
	}
	for _, q := range resp.Quests {
		status, seen := known[q.ID]
		switch {
		case !seen:
			report.NewQuests = append(report.NewQuests, q)
		case status != models.QuestCompleted && q.Status == models.QuestCompleted:
			report.CompletedQuests = append(report.CompletedQuests, q)
		}
	}
	s.state.Quests = append([]models.Quest{}, resp.Quests...)

	if resp.Equipment != nil {
		var eq models.Equipment
		for _, slot := range []models.Slot{models.SlotWeapon, models.SlotArmor} {
			if it := resp.Equipment.Get(slot); it != nil {
				placed := *it
				s.assignID(&placed)
				eq = eq.With(slot, &placed)
			}
		}
		s.state.Equipment = eq
	}
	inv := append([]models.Item{}, resp.Inventory...)
	for i := range inv {
		s.assignID(&inv[i])
	}
	s.state.Inventory = rules.Reconcile(inv, s.state.Equipment)
	if len(s.state.Inventory) != len(inv) {
		s.logger.Warn("dropped equipped items listed in the inventory", "dropped", len(inv)-len(s.state.Inventory))
	}

	if resp.NewItem != nil {
		it := *resp.NewItem
		if idx := rules.IndexOf(s.state.Inventory, it.ID); it.ID != "" && idx >= 0 {
			it = s.state.Inventory[idx]
		}
		report.NewItem = &it
	}
	report.Loot = append(report.Loot, resp.Loot...)

	if resp.CharacterStats != nil {
		stats := resp.CharacterStats.Clone()
		if stats.Reputation == nil {
			stats.Reputation = prev.CharacterStats.Clone().Reputation
		}
		stats.ClampHP()
		if stats.Level > prev.CharacterStats.Level {
			report.LevelUp = stats.Level
		}
		s.state.CharacterStats = stats
	}

	if resp.CombatState != nil {
		combat := *resp.CombatState
		combat.Enemies = append([]models.Enemy{}, combat.Enemies...)
		combat.Log = append([]string{}, combat.Log...)
		if combat.Turn == "" {
			combat.Turn = models.PlayerTurn
		}
		s.state.CombatState = combat
	}

	s.state.CurrentLocation = UnknownLocation
	if resp.CurrentLocation != nil && *resp.CurrentLocation != "" {
		s.state.CurrentLocation = *resp.CurrentLocation
	}
	s.state.LocationDescription = ""
	if resp.LocationDescription != nil {
		s.state.LocationDescription = *resp.LocationDescription
	}

	report.GameOver = s.state.CharacterStats.HP <= 0
	if report.GameOver {
		s.logger.Info("character died", "player", s.state.PlayerInfo.Name)
	}
	return report
}

// assignID gives an id to a model-supplied item that lacks one.
func (s *Session) assignID(it *models.Item) {
	if it != nil && it.ID == "" {
		it.ID = s.newID()
	}
}

// GameOver reports whether the character has died.
func (s *Session) GameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PlayerInfo != nil && s.state.CharacterStats.HP <= 0
}
