// Package world describes the static map of Nexus: the factions and the
// places the player can travel to.
package world

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed atlas.yaml
var atlasYAML []byte

// StartLocation is where every new game begins.
const StartLocation = "Пещера Лайбы"

// Faction groups the locations held by one power.
type Faction struct {
	Name       string   `yaml:"name"`
	Reputation string   `yaml:"reputation"` // CharacterStats.Reputation key, may be empty
	Locations  []string `yaml:"locations"`
}

// Location is a travel destination.
type Location struct {
	Name    string
	Faction string
}

// Atlas is the full map.
type Atlas struct {
	Factions []Faction `yaml:"factions"`
}

// Load parses the embedded atlas.
func Load() (*Atlas, error) {
	return Parse(atlasYAML)
}

// Parse reads an atlas definition. Location names must be unique.
func Parse(data []byte) (*Atlas, error) {
	var a Atlas
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse atlas: %w", err)
	}
	seen := make(map[string]string)
	for _, f := range a.Factions {
		for _, loc := range f.Locations {
			key := strings.ToLower(loc)
			if prev, ok := seen[key]; ok {
				return nil, fmt.Errorf("parse atlas: %q listed under both %q and %q", loc, prev, f.Name)
			}
			seen[key] = f.Name
		}
	}
	return &a, nil
}

// Lookup finds a location by name, ignoring case.
func (a *Atlas) Lookup(name string) (Location, bool) {
	name = strings.TrimSpace(name)
	for _, f := range a.Factions {
		for _, loc := range f.Locations {
			if strings.EqualFold(loc, name) {
				return Location{Name: loc, Faction: f.Name}, true
			}
		}
	}
	return Location{}, false
}

// FactionOf returns the faction holding a location.
func (a *Atlas) FactionOf(name string) (Faction, bool) {
	loc, ok := a.Lookup(name)
	if !ok {
		return Faction{}, false
	}
	for _, f := range a.Factions {
		if f.Name == loc.Faction {
			return f, true
		}
	}
	return Faction{}, false
}

// TravelAction is the player action that moves the character to loc.
func TravelAction(loc Location) string {
	return "Переместиться в: " + loc.Name
}
