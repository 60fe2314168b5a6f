package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/udisondev/somnuscape/internal/model"
)

// Command is one player-invokable action. Handlers communicate by
// sending through the broker; they return nothing.
type Command struct {
	Name    string
	Aliases []string
	Help    string
	Run     func(e *Engine, player model.PlayerID, args []string)
}

// baseCommands builds the built-in command table. Resolution prefers
// names over aliases, so table order only matters for suggestion ties
// and the order of the help listing.
func baseCommands() []*Command {
	cmds := []*Command{
		helpCommand(),
		quitCommand(),
		lookCommand(),
	}
	return append(cmds, moveCommands()...)
}

func helpCommand() *Command {
	return &Command{
		Name:    "help",
		Aliases: []string{"?"},
		Help:    "Provides a list of commands when run alone or help for a specific command when one is provided after, like you just did :)",
		Run: func(e *Engine, player model.PlayerID, args []string) {
			if len(args) > 0 {
				e.broker.SendPlayerMessage(player, e.commandHelp(args[0]))
				return
			}
			e.broker.SendPlayerMessage(player, e.commandListing())
		},
	}
}

// commandListing renders all command names in a four column grid.
func (e *Engine) commandListing() string {
	var sb strings.Builder
	sb.WriteString("Listing all commands\nRun 'help <command name>' to get help for a specific command\n\n")
	for i, cmd := range e.commands {
		fmt.Fprintf(&sb, "%-20s", cmd.Name)
		if (i+1)%4 == 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (e *Engine) commandHelp(name string) string {
	cmd := e.findCommand(name)
	if cmd == nil {
		return fmt.Sprintf("Command provided: %s does not exist, try running just 'help' to list commands", name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Command: %s\n", cmd.Name)
	if len(cmd.Aliases) > 0 {
		sb.WriteString("Aliases: ")
		for _, alias := range cmd.Aliases {
			sb.WriteString(alias)
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(cmd.Help)
	return sb.String()
}

func quitCommand() *Command {
	return &Command{
		Name:    "quit",
		Aliases: []string{"exit"},
		Help:    "Log your character out of the game world and exit the session",
		Run: func(e *Engine, player model.PlayerID, _ []string) {
			name := e.accounts.Username(player)
			e.broker.SendPlayerMessage(player, fmt.Sprintf("Logging out, goodbye %s!", name))
			e.broker.DisconnectPlayer(player)
		},
	}
}

func lookCommand() *Command {
	return &Command{
		Name:    "look",
		Aliases: []string{"l"},
		Help:    "Describes your surroundings to you",
		Run: func(e *Engine, player model.PlayerID, _ []string) {
			e.sendLook(player, "You're standing in")
		},
	}
}

// sendLook describes the player's current place, resetting characters
// whose location has gone stale.
func (e *Engine) sendLook(player model.PlayerID, start string) {
	c := e.character(player)
	place, ok := e.world.Places[c.Location]
	if !ok {
		e.broker.SendPlayerMessage(player, "Invalid location, resetting to start")
		c.Location = e.world.FirstOverworldLocale()
		return
	}
	e.broker.SendPlayerMessage(player, place.Look(start, e.world.PlaceName))
}

func moveCommands() []*Command {
	cmds := make([]*Command, 0, len(model.Directions()))
	for _, dir := range model.Directions() {
		name := dir.String()
		cmds = append(cmds, &Command{
			Name:    name,
			Aliases: []string{name[:1]},
			Help:    fmt.Sprintf("Moves your character %s and describes where you end up", name),
			Run: func(e *Engine, player model.PlayerID, _ []string) {
				c := e.character(player)
				place, ok := e.world.Places[c.Location]
				if !ok {
					e.broker.SendPlayerMessage(player, "Invalid location, resetting to start")
					c.Location = e.world.FirstOverworldLocale()
					return
				}

				next, ok := place.Connections[dir]
				if !ok {
					e.broker.SendPlayerMessage(player, fmt.Sprintf("You cannot go %s from here", dir.Title()))
					return
				}
				c.Location = next
				e.sendLook(player, "You move to")
			},
		})
	}
	return cmds
}

// suggestClosestCommands ranks every command name by Levenshtein
// distance from the input and offers the three best. Ties keep table
// order.
func (e *Engine) suggestClosestCommands(input string) string {
	type scored struct {
		name string
		dist int
	}
	ranked := make([]scored, 0, len(e.commands))
	for _, cmd := range e.commands {
		ranked = append(ranked, scored{name: cmd.Name, dist: matchr.Levenshtein(input, cmd.Name)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Command '%s' not found, did you mean one of these?", input)
	for i := 0; i < len(ranked) && i < 3; i++ {
		fmt.Fprintf(&sb, " '%s'", ranked[i].name)
	}
	return sb.String()
}
