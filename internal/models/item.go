package models

import (
	"encoding/json"
	"fmt"
)

// Attribute is one of the core attributes that equipment can modify.
type Attribute int

const (
	Strength Attribute = iota
	Dexterity
	Intelligence

	attributeCount
)

// AllAttributes lists every attribute in a fixed order.
var AllAttributes = [attributeCount]Attribute{Strength, Dexterity, Intelligence}

var attributeNames = [attributeCount]string{"strength", "dexterity", "intelligence"}

func (a Attribute) String() string {
	if a < 0 || a >= attributeCount {
		return fmt.Sprintf("attribute(%d)", int(a))
	}
	return attributeNames[a]
}

// ParseAttribute maps a wire name to an Attribute.
func ParseAttribute(name string) (Attribute, bool) {
	for i, n := range attributeNames {
		if n == name {
			return Attribute(i), true
		}
	}
	return 0, false
}

// Bonuses holds signed attribute deltas, indexed by Attribute.
type Bonuses [attributeCount]int

// IsZero reports whether no attribute is modified.
func (b Bonuses) IsZero() bool {
	return b == Bonuses{}
}

func (b Bonuses) MarshalJSON() ([]byte, error) {
	if b.IsZero() {
		return []byte("null"), nil
	}
	m := make(map[string]int, attributeCount)
	for _, a := range AllAttributes {
		if b[a] != 0 {
			m[a.String()] = b[a]
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts a name->delta object. Keys outside the attribute set
// and values that are not numbers are skipped; anything other than an
// object decodes as no bonuses.
func (b *Bonuses) UnmarshalJSON(data []byte) error {
	*b = Bonuses{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for name, v := range raw {
		a, ok := ParseAttribute(name)
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			continue
		}
		b[a] = int(n)
	}
	return nil
}

type ItemType string

const (
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemConsumable ItemType = "consumable"
	ItemMisc       ItemType = "misc"
)

type EffectKind string

const EffectHeal EffectKind = "heal"

// Effect is what a consumable does when used.
type Effect struct {
	Kind   EffectKind `json:"type"`
	Amount int        `json:"amount"`
}

// Payload is the type-specific part of an Item. The set of implementations
// is closed: Weapon, Armor, Consumable and Misc.
type Payload interface {
	itemType() ItemType
}

// Weapon goes into the weapon slot.
type Weapon struct{ Bonuses Bonuses }

// Armor goes into the armor slot.
type Armor struct{ Bonuses Bonuses }

// Consumable is destroyed on use. Effect may be nil when the game master
// hands out a consumable with nothing to apply.
type Consumable struct{ Effect *Effect }

// Misc carries neither bonuses nor an effect.
type Misc struct{}

func (Weapon) itemType() ItemType     { return ItemWeapon }
func (Armor) itemType() ItemType      { return ItemArmor }
func (Consumable) itemType() ItemType { return ItemConsumable }
func (Misc) itemType() ItemType       { return ItemMisc }

// Item is an owned object. IDs are stable and never reused.
type Item struct {
	ID          string
	Name        string
	Description string
	Payload     Payload
}

func NewWeapon(id, name, description string, b Bonuses) Item {
	return Item{ID: id, Name: name, Description: description, Payload: Weapon{Bonuses: b}}
}

func NewArmor(id, name, description string, b Bonuses) Item {
	return Item{ID: id, Name: name, Description: description, Payload: Armor{Bonuses: b}}
}

func NewHealingItem(id, name, description string, amount int) Item {
	return Item{ID: id, Name: name, Description: description,
		Payload: Consumable{Effect: &Effect{Kind: EffectHeal, Amount: amount}}}
}

func NewMisc(id, name, description string) Item {
	return Item{ID: id, Name: name, Description: description, Payload: Misc{}}
}

// Type reports the item's type. An item without payload counts as misc.
func (it Item) Type() ItemType {
	if it.Payload == nil {
		return ItemMisc
	}
	return it.Payload.itemType()
}

// Slot reports the equipment slot the item fits, if any.
func (it Item) Slot() (Slot, bool) {
	switch it.Payload.(type) {
	case Weapon:
		return SlotWeapon, true
	case Armor:
		return SlotArmor, true
	}
	return "", false
}

// Bonuses returns the attribute deltas of an equippable item and zero
// bonuses for everything else.
func (it Item) Bonuses() Bonuses {
	switch p := it.Payload.(type) {
	case Weapon:
		return p.Bonuses
	case Armor:
		return p.Bonuses
	}
	return Bonuses{}
}

type itemWire struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        ItemType `json:"type"`
	Description string   `json:"description"`
	Stats       *Bonuses `json:"stats"`
	Effect      *Effect  `json:"effect"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	w := itemWire{
		ID:          it.ID,
		Name:        it.Name,
		Type:        it.Type(),
		Description: it.Description,
	}
	switch p := it.Payload.(type) {
	case Weapon:
		if !p.Bonuses.IsZero() {
			w.Stats = &p.Bonuses
		}
	case Armor:
		if !p.Bonuses.IsZero() {
			w.Stats = &p.Bonuses
		}
	case Consumable:
		w.Effect = p.Effect
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the flat wire form and keeps only the fields the
// item's type allows: stats on weapons and armor, effect on consumables.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w struct {
		itemWire
		Effect json.RawMessage `json:"effect"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*it = Item{ID: w.ID, Name: w.Name, Description: w.Description}
	var b Bonuses
	if w.Stats != nil {
		b = *w.Stats
	}
	switch w.Type {
	case ItemWeapon:
		it.Payload = Weapon{Bonuses: b}
	case ItemArmor:
		it.Payload = Armor{Bonuses: b}
	case ItemConsumable:
		it.Payload = Consumable{Effect: decodeEffect(w.Effect)}
	default:
		// Unknown types are kept as plain items that cannot be equipped or used.
		it.Payload = Misc{}
	}
	return nil
}

// decodeEffect returns nil for a missing, null or malformed effect.
func decodeEffect(raw json.RawMessage) *Effect {
	if len(raw) == 0 {
		return nil
	}
	var e *Effect
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil
	}
	return e
}

// Slot names an equipment position.
type Slot string

const (
	SlotWeapon Slot = "weapon"
	SlotArmor  Slot = "armor"
)

// ParseSlot maps user input to a Slot.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(s) {
	case SlotWeapon, SlotArmor:
		return Slot(s), true
	}
	return "", false
}

// Equipment holds at most one item per slot. An item in a slot is never
// also in the inventory.
type Equipment struct {
	Weapon *Item `json:"weapon"`
	Armor  *Item `json:"armor"`
}

// Get returns the item in slot, or nil.
func (e Equipment) Get(slot Slot) *Item {
	switch slot {
	case SlotWeapon:
		return e.Weapon
	case SlotArmor:
		return e.Armor
	}
	return nil
}

// With returns a copy of e with slot set to it.
func (e Equipment) With(slot Slot, it *Item) Equipment {
	switch slot {
	case SlotWeapon:
		e.Weapon = it
	case SlotArmor:
		e.Armor = it
	}
	return e
}

// Items returns the equipped items in slot order.
func (e Equipment) Items() []Item {
	var out []Item
	if e.Weapon != nil {
		out = append(out, *e.Weapon)
	}
	if e.Armor != nil {
		out = append(out, *e.Armor)
	}
	return out
}

// Occupied counts non-empty slots.
func (e Equipment) Occupied() int {
	return len(e.Items())
}
