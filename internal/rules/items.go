package rules

import "github.com/tatianab/nexus/internal/models"

// Equip moves item from the inventory into the slot matching its type. An
// item already in that slot goes to the end of the inventory. Items that are
// not weapons or armor, or that are not in the inventory, leave both inputs
// unchanged.
func Equip(item models.Item, inv []models.Item, eq models.Equipment) ([]models.Item, models.Equipment) {
	slot, ok := item.Slot()
	if !ok {
		return inv, eq
	}
	idx := IndexOf(inv, item.ID)
	if idx < 0 {
		return inv, eq
	}

	placed := inv[idx]
	next := without(inv, idx)
	if current := eq.Get(slot); current != nil {
		next = append(next, *current)
	}
	return next, eq.With(slot, &placed)
}

// Unequip moves the item in slot to the end of the inventory. An empty slot
// is a no-op.
func Unequip(slot models.Slot, inv []models.Item, eq models.Equipment) ([]models.Item, models.Equipment) {
	current := eq.Get(slot)
	if current == nil {
		return inv, eq
	}

	next := make([]models.Item, 0, len(inv)+1)
	next = append(next, inv...)
	next = append(next, *current)
	return next, eq.With(slot, nil)
}

// UseConsumable applies the item's effect to the base stats and removes one
// copy of it from the inventory. Healing is capped at maxHp; an item used at
// full health is still consumed. Anything other than a consumable with an
// effect, or an item not in the inventory, is a no-op.
func UseConsumable(item models.Item, inv []models.Item, base models.CharacterStats) ([]models.Item, models.CharacterStats) {
	c, ok := item.Payload.(models.Consumable)
	if !ok || c.Effect == nil {
		return inv, base
	}
	idx := IndexOf(inv, item.ID)
	if idx < 0 {
		return inv, base
	}

	stats := base.Clone()
	switch c.Effect.Kind {
	case models.EffectHeal:
		stats.HP = min(stats.MaxHP, stats.HP+c.Effect.Amount)
	}
	return without(inv, idx), stats
}

// IndexOf returns the position of the first item with id, or -1.
func IndexOf(inv []models.Item, id string) int {
	for i, it := range inv {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Reconcile drops inventory entries that duplicate an equipped item, keeping
// inventory and equipment a partition of the owned items.
func Reconcile(inv []models.Item, eq models.Equipment) []models.Item {
	equipped := make(map[string]bool)
	for _, it := range eq.Items() {
		equipped[it.ID] = true
	}
	out := make([]models.Item, 0, len(inv))
	for _, it := range inv {
		if equipped[it.ID] {
			continue
		}
		out = append(out, it)
	}
	return out
}

func without(inv []models.Item, idx int) []models.Item {
	out := make([]models.Item, 0, len(inv))
	out = append(out, inv[:idx]...)
	return append(out, inv[idx+1:]...)
}
