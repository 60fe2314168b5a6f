// Package broker mediates all traffic between session tasks and the
// engine loop. Each authorized player gets a pair of unbounded queues;
// registration changes travel over a shared control queue so that the
// engine goroutine stays the sole owner of the registration table.
package broker

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/somnuscape/internal/model"
)

// DisconnectedError reports that the other end of a player connection
// has gone away. Sessions treat it as a normal logout signal.
type DisconnectedError struct {
	Player model.PlayerID
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("player %s disconnected", e.Player)
}

// connectChange is one entry on the control queue. conn is nil for a
// disconnect.
type connectChange struct {
	player model.PlayerID
	conn   *playerConn
}

// playerConn is the engine-side registration for one player.
type playerConn struct {
	player model.PlayerID
	in     *queue[string] // session → engine
	out    *queue[string] // engine → session
}

// Conn is the half a session task holds to talk to the engine.
type Conn struct {
	player model.PlayerID
	in     *queue[string]
	out    *queue[string]
}

// Send forwards a player command toward the engine.
func (c *Conn) Send(msg string) error {
	if !c.in.Push(msg) {
		return &DisconnectedError{Player: c.player}
	}
	return nil
}

// Recv blocks until the engine has a message for this player. Returns a
// DisconnectedError once the engine has dropped the connection.
func (c *Conn) Recv() (string, error) {
	msg, ok := c.out.Recv()
	if !ok {
		return "", &DisconnectedError{Player: c.player}
	}
	return msg, nil
}

// PlayerBroker is the endpoint session tasks share. It is safe for
// concurrent use.
type PlayerBroker struct {
	changes *queue[connectChange]
}

// EngineBroker is the endpoint owned by the engine loop. None of its
// methods block and none are safe to call off the engine goroutine.
type EngineBroker struct {
	changes *queue[connectChange]
	conns   map[model.PlayerID]*playerConn
}

// New creates a connected broker pair.
func New() (*PlayerBroker, *EngineBroker) {
	changes := newQueue[connectChange]()
	return &PlayerBroker{changes: changes}, &EngineBroker{
		changes: changes,
		conns:   make(map[model.PlayerID]*playerConn),
	}
}

// SetupConnection allocates the queue pair for a freshly authorized
// player, registers one half with the engine, and returns the other.
func (b *PlayerBroker) SetupConnection(player model.PlayerID) *Conn {
	in := newQueue[string]()
	out := newQueue[string]()
	b.changes.Push(connectChange{
		player: player,
		conn:   &playerConn{player: player, in: in, out: out},
	})
	return &Conn{player: player, in: in, out: out}
}

// EndConnection tells the engine a session is gone. Safe to call more
// than once, and safe for never-registered players.
func (b *PlayerBroker) EndConnection(player model.PlayerID) {
	b.changes.Push(connectChange{player: player})
}

// HandleConnectionChanges drains the control queue and applies every
// pending connect and disconnect. Call once per tick, before polling.
func (b *EngineBroker) HandleConnectionChanges() {
	for {
		change, ok := b.changes.TryPop()
		if !ok {
			return
		}
		if change.conn != nil {
			b.conns[change.player] = change.conn
			slog.Info("player connected to engine", "player", change.player)
		} else {
			b.dropConnection(change.player)
		}
	}
}

// PollPlayerMessages returns at most one pending player message without
// blocking. Map iteration order varies between calls, which keeps
// polling fair enough that no player starves.
func (b *EngineBroker) PollPlayerMessages() (model.PlayerID, string, bool) {
	for _, conn := range b.conns {
		if msg, ok := conn.in.TryPop(); ok {
			return conn.player, msg, true
		}
	}
	return model.PlayerID{}, "", false
}

// SendPlayerMessage enqueues a message toward one player. Messages to
// players that dropped between poll and send are logged and discarded.
func (b *EngineBroker) SendPlayerMessage(player model.PlayerID, msg string) {
	conn, ok := b.conns[player]
	if !ok {
		slog.Debug("dropping message for unknown player", "player", player)
		return
	}
	if !conn.out.Push(msg) {
		slog.Debug("dropping message for disconnected player", "player", player)
	}
}

// DisconnectPlayer drops the registration and closes the outbound queue
// so the session's pump unblocks. Idempotent.
func (b *EngineBroker) DisconnectPlayer(player model.PlayerID) {
	b.dropConnection(player)
}

func (b *EngineBroker) dropConnection(player model.PlayerID) {
	conn, ok := b.conns[player]
	if !ok {
		return
	}
	conn.out.Close()
	delete(b.conns, player)
	slog.Info("player disconnected from engine", "player", player)
}

// ConnectedPlayers returns how many players are currently registered.
func (b *EngineBroker) ConnectedPlayers() int {
	return len(b.conns)
}
