package game

import (
	"context"
	"fmt"

	"github.com/tatianab/nexus/internal/models"
	"github.com/tatianab/nexus/internal/rules"
)

// Equip puts the inventory item with id into its slot.
func (s *Session) Equip(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.inventoryItemLocked(id)
	if err != nil {
		return err
	}
	if _, ok := item.Slot(); !ok {
		return fmt.Errorf("%s: %w", item.Name, ErrNotEquippable)
	}

	s.state.Inventory, s.state.Equipment = rules.Equip(item, s.state.Inventory, s.state.Equipment)
	s.autosaveLocked(ctx)
	return nil
}

// Unequip moves the item in slot back to the inventory. Unequipping an empty
// slot does nothing.
func (s *Session) Unequip(ctx context.Context, slot models.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	if s.state.Equipment.Get(slot) == nil {
		return nil
	}

	s.state.Inventory, s.state.Equipment = rules.Unequip(slot, s.state.Inventory, s.state.Equipment)
	s.autosaveLocked(ctx)
	return nil
}

// Use consumes the inventory item with id.
func (s *Session) Use(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.inventoryItemLocked(id)
	if err != nil {
		return err
	}
	if c, ok := item.Payload.(models.Consumable); !ok || c.Effect == nil {
		return fmt.Errorf("%s: %w", item.Name, ErrNotUsable)
	}

	s.state.Inventory, s.state.CharacterStats = rules.UseConsumable(item, s.state.Inventory, s.state.CharacterStats)
	s.autosaveLocked(ctx)
	return nil
}

func (s *Session) readyLocked() error {
	if s.state.PlayerInfo == nil {
		return ErrNoGame
	}
	if s.busy {
		return ErrBusy
	}
	return nil
}

func (s *Session) inventoryItemLocked(id string) (models.Item, error) {
	if err := s.readyLocked(); err != nil {
		return models.Item{}, err
	}
	idx := rules.IndexOf(s.state.Inventory, id)
	if idx < 0 {
		return models.Item{}, fmt.Errorf("%q: %w", id, ErrItemNotFound)
	}
	return s.state.Inventory[idx], nil
}
