package broker

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/somnuscape/internal/model"
)

func TestConnectThenPoll(t *testing.T) {
	pb, eb := New()
	id := model.NewPlayerID()

	conn := pb.SetupConnection(id)
	require.NoError(t, conn.Send("look"))

	// Registration is invisible until the engine drains the control queue.
	_, _, ok := eb.PollPlayerMessages()
	assert.False(t, ok)

	eb.HandleConnectionChanges()
	player, msg, ok := eb.PollPlayerMessages()
	require.True(t, ok)
	assert.Equal(t, id, player)
	assert.Equal(t, "look", msg)

	_, _, ok = eb.PollPlayerMessages()
	assert.False(t, ok, "queue is drained")
}

func TestPerPlayerOrdering(t *testing.T) {
	pb, eb := New()
	id := model.NewPlayerID()
	conn := pb.SetupConnection(id)
	eb.HandleConnectionChanges()

	const n = 100
	for i := range n {
		require.NoError(t, conn.Send(fmt.Sprintf("cmd-%d", i)))
	}
	for i := range n {
		_, msg, ok := eb.PollPlayerMessages()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("cmd-%d", i), msg)
	}

	for i := range n {
		eb.SendPlayerMessage(id, fmt.Sprintf("out-%d", i))
	}
	for i := range n {
		msg, err := conn.Recv()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("out-%d", i), msg)
	}
}

func TestDisconnectUnblocksRecv(t *testing.T) {
	pb, eb := New()
	id := model.NewPlayerID()
	conn := pb.SetupConnection(id)
	eb.HandleConnectionChanges()

	done := make(chan error, 1)
	go func() {
		_, err := conn.Recv()
		done <- err
	}()

	eb.DisconnectPlayer(id)

	select {
	case err := <-done:
		var disc *DisconnectedError
		require.ErrorAs(t, err, &disc)
		assert.Equal(t, id, disc.Player)
	case <-time.After(2 * time.Second):
		t.Fatal("Recv did not unblock after DisconnectPlayer")
	}
	assert.Zero(t, eb.ConnectedPlayers())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	pb, eb := New()
	id := model.NewPlayerID()
	pb.SetupConnection(id)
	eb.HandleConnectionChanges()

	eb.DisconnectPlayer(id)
	eb.DisconnectPlayer(id)

	pb.EndConnection(id)
	eb.HandleConnectionChanges()
	assert.Zero(t, eb.ConnectedPlayers())
}

func TestSendAfterDisconnectIsDiscarded(t *testing.T) {
	pb, eb := New()
	id := model.NewPlayerID()
	pb.SetupConnection(id)
	eb.HandleConnectionChanges()
	eb.DisconnectPlayer(id)

	// Must not panic or block.
	eb.SendPlayerMessage(id, "anyone there?")
}

func TestEndConnectionRemovesRegistration(t *testing.T) {
	pb, eb := New()
	id := model.NewPlayerID()
	conn := pb.SetupConnection(id)
	eb.HandleConnectionChanges()
	require.Equal(t, 1, eb.ConnectedPlayers())

	pb.EndConnection(id)
	eb.HandleConnectionChanges()
	assert.Zero(t, eb.ConnectedPlayers())

	// The session side now observes closure.
	_, err := conn.Recv()
	var disc *DisconnectedError
	assert.ErrorAs(t, err, &disc)
}

func TestPollDoesNotStarve(t *testing.T) {
	pb, eb := New()
	var ids []model.PlayerID
	var conns []*Conn
	for range 5 {
		id := model.NewPlayerID()
		ids = append(ids, id)
		conns = append(conns, pb.SetupConnection(id))
	}
	eb.HandleConnectionChanges()

	for _, c := range conns {
		require.NoError(t, c.Send("hello"))
	}

	seen := make(map[model.PlayerID]int)
	for range len(conns) {
		player, _, ok := eb.PollPlayerMessages()
		require.True(t, ok)
		seen[player]++
	}
	for _, id := range ids {
		assert.Equal(t, 1, seen[id], "each player's message is delivered exactly once")
	}
}
