// Package engine hosts the simulation loop. One goroutine owns the
// World outright: commands, generation results, and saves are all
// applied between ticks, so nothing in here ever takes a lock.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/udisondev/somnuscape/internal/account"
	"github.com/udisondev/somnuscape/internal/broker"
	"github.com/udisondev/somnuscape/internal/config"
	"github.com/udisondev/somnuscape/internal/generation"
	"github.com/udisondev/somnuscape/internal/model"
	"github.com/udisondev/somnuscape/internal/world"
)

// Bootstrap sizes for an empty world.
const (
	bootstrapVillages = 3
	bootstrapDungeons = 5
)

// Generator is the engine's handle onto the generation pipeline.
// Satisfied by *generation.Generator; a narrow interface keeps the
// engine testable without a model backend.
type Generator interface {
	Submit(generation.Request)
	TryResult() (generation.NewPlace, bool)
}

// Engine is all the state kept between ticks.
type Engine struct {
	cfg      *config.Config
	broker   *broker.EngineBroker
	accounts *account.Store
	gen      Generator
	world    *world.World
	commands []*Command
	savePath string
}

// New assembles an engine around its collaborators.
func New(cfg *config.Config, w *world.World, accounts *account.Store, eb *broker.EngineBroker, gen Generator, savePath string) *Engine {
	return &Engine{
		cfg:      cfg,
		broker:   eb,
		accounts: accounts,
		gen:      gen,
		world:    w,
		commands: baseCommands(),
		savePath: savePath,
	}
}

// Run drives the tick loop until the context is cancelled. Call it on a
// goroutine dedicated to the engine; all world mutation happens here.
func (e *Engine) Run(ctx context.Context) error {
	e.bootstrap()

	interval := time.Duration(float64(time.Second) / e.cfg.TicksPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("engine started", "tick-interval", interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.tick()
		}
	}
}

// bootstrap seeds generation for a brand new world. An existing save
// already has places; expansion is then driven by play.
func (e *Engine) bootstrap() {
	if len(e.world.Places) > 0 {
		return
	}
	slog.Info("empty world, requesting initial generation")
	e.gen.Submit(generation.Request{Type: generation.Village, Count: bootstrapVillages})
	e.gen.Submit(generation.Request{Type: generation.Dungeon, Count: bootstrapDungeons})
}

// tick runs one simulation step: apply connection changes, drain player
// commands, merge finished generation, advance the clock.
func (e *Engine) tick() {
	e.broker.HandleConnectionChanges()
	for {
		player, msg, ok := e.broker.PollPlayerMessages()
		if !ok {
			break
		}
		e.dispatch(player, msg)
	}
	e.incorporateGeneration()
	e.world.TickAndCheckSave(e.cfg.SaveEveryXTicks, e.savePath)
}

// dispatch parses one player message and runs the matching command.
func (e *Engine) dispatch(player model.PlayerID, msg string) {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return
	}

	cmd := e.findCommand(fields[0])
	if cmd == nil {
		e.broker.SendPlayerMessage(player, e.suggestClosestCommands(fields[0]))
		return
	}
	cmd.Run(e, player, fields[1:])
}

// findCommand resolves a command by exact name first, then by alias.
func (e *Engine) findCommand(name string) *Command {
	for _, cmd := range e.commands {
		if cmd.Name == name {
			return cmd
		}
	}
	for _, cmd := range e.commands {
		for _, alias := range cmd.Aliases {
			if alias == name {
				return cmd
			}
		}
	}
	return nil
}

// character returns the player's character, creating one on first use.
func (e *Engine) character(player model.PlayerID) *model.Character {
	if c, ok := e.world.PlayerCharacters[player]; ok {
		return c
	}
	c := model.NewCharacter(e.accounts.Username(player), e.world.FirstOverworldLocale())
	e.world.PlayerCharacters[player] = c
	slog.Info("created character", "player", player, "name", c.Name)
	return c
}

// incorporateGeneration splices every finished region into the world.
func (e *Engine) incorporateGeneration() {
	for {
		res, ok := e.gen.TryResult()
		if !ok {
			return
		}
		e.mergeNewPlace(res)
	}
}

// mergeNewPlace links a generated region onto the overworld and inserts
// its places. The host locale must keep a sixth slot free so vertical
// links stay unambiguous, hence the fewer-than-five rule.
func (e *Engine) mergeNewPlace(res generation.NewPlace) {
	entry := res.Overworld

	if host := e.pickOverworldHost(); host != nil {
		used, err := model.Link(host, entry, model.North)
		if err != nil {
			slog.Error("linking new region to overworld", "region", entry.Name, "host", host.Name, "err", err)
		} else {
			slog.Info("new region joins the overworld", "region", entry.Name, "host", host.Name, "direction", used)
		}
	} else {
		slog.Info("new region starts the overworld", "region", entry.Name)
	}

	e.world.Insert(entry)
	e.world.OverworldLocales = append(e.world.OverworldLocales, entry.Location)
	for _, room := range res.Rooms {
		e.world.Insert(room)
	}
}

// pickOverworldHost returns the first overworld locale with room for a
// lateral connection.
func (e *Engine) pickOverworldHost() *model.Place {
	for _, loc := range e.world.OverworldLocales {
		if p, ok := e.world.Places[loc]; ok && len(p.Connections) < 5 {
			return p
		}
	}
	return nil
}
