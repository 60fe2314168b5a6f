// Package world holds the whole mutable game world. The world is owned
// exclusively by the engine loop; nothing here takes locks because only
// one goroutine ever touches a World.
package world

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/somnuscape/internal/model"
)

// World is the root of all simulation state. Places form an arena keyed
// by Location; edges between them are Location values on both sides.
type World struct {
	Places           map[model.Location]*model.Place     `yaml:"places"`
	OverworldLocales []model.Location                    `yaml:"overworld-locales"`
	PlayerCharacters map[model.PlayerID]*model.Character `yaml:"player-characters"`
	CurrentTick      uint64                              `yaml:"current-tick"`
}

// New returns an empty world.
func New() *World {
	return &World{
		Places:           make(map[model.Location]*model.Place),
		PlayerCharacters: make(map[model.PlayerID]*model.Character),
	}
}

// LoadOrNew reads the world save from path, or returns an empty world if
// no save exists yet.
func LoadOrNew(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading world save: %w", err)
	}

	w := New()
	if err := yaml.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("decoding world save: %w", err)
	}
	if w.Places == nil {
		w.Places = make(map[model.Location]*model.Place)
	}
	if w.PlayerCharacters == nil {
		w.PlayerCharacters = make(map[model.PlayerID]*model.Character)
	}
	return w, nil
}

// Save serializes the world to path. Failures are logged, never fatal:
// the next save cycle retries.
func (w *World) Save(path string) {
	data, err := yaml.Marshal(w)
	if err != nil {
		slog.Error("serializing world", "err", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Error("saving world", "err", err)
	}
}

// Clone returns a deep copy of the world, safe to hand to a save thread
// while the engine keeps mutating the original.
func (w *World) Clone() *World {
	c := &World{
		Places:           make(map[model.Location]*model.Place, len(w.Places)),
		OverworldLocales: append([]model.Location(nil), w.OverworldLocales...),
		PlayerCharacters: make(map[model.PlayerID]*model.Character, len(w.PlayerCharacters)),
		CurrentTick:      w.CurrentTick,
	}
	for loc, p := range w.Places {
		cp := *p
		cp.Tags = append([]string(nil), p.Tags...)
		cp.Connections = make(map[model.Direction]model.Location, len(p.Connections))
		for d, l := range p.Connections {
			cp.Connections[d] = l
		}
		c.Places[loc] = &cp
	}
	for id, ch := range w.PlayerCharacters {
		cc := *ch
		cc.Inventory.Items = append([]model.ItemStack(nil), ch.Inventory.Items...)
		c.PlayerCharacters[id] = &cc
	}
	return c
}

// TickAndCheckSave advances the tick counter and, every interval ticks,
// clones the world and writes the copy out on a transient goroutine so
// the engine loop never blocks on disk.
func (w *World) TickAndCheckSave(interval uint64, path string) {
	w.CurrentTick++
	if interval == 0 || w.CurrentTick%interval != 0 {
		return
	}

	snapshot := w.Clone()
	go func() {
		snapshot.Save(path)
		slog.Debug("world saved", "tick", snapshot.CurrentTick, "places", len(snapshot.Places))
	}()
}

// PlaceName resolves a location to its place name, or an empty string.
// Handed to Place.Look for neighbour names.
func (w *World) PlaceName(loc model.Location) string {
	if p, ok := w.Places[loc]; ok {
		return p.Name
	}
	return ""
}

// Insert adds a place to the arena.
func (w *World) Insert(p *model.Place) {
	w.Places[p.Location] = p
}

// FirstOverworldLocale returns the starting locale, or the zero Location
// if the overworld is still empty.
func (w *World) FirstOverworldLocale() model.Location {
	if len(w.OverworldLocales) == 0 {
		return model.Location{}
	}
	return w.OverworldLocales[0]
}
