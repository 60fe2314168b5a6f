package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/somnuscape/internal/config"
	"github.com/udisondev/somnuscape/internal/llm"
	"github.com/udisondev/somnuscape/internal/model"
)

func testIdea() listItem {
	return listItem{Name: "Duskmere", Description: "A fishing town on a black lake."}
}

func testRooms(names ...string) []listItem {
	items := make([]listItem, 0, len(names))
	for _, n := range names {
		items = append(items, listItem{Name: n, Description: "The " + n + "."})
	}
	return items
}

// assertBidirectional checks the world linkage invariant over a room set.
func assertBidirectional(t *testing.T, rooms map[model.Location]*model.Place, extra ...*model.Place) {
	t.Helper()
	all := make(map[model.Location]*model.Place, len(rooms)+len(extra))
	for loc, r := range rooms {
		all[loc] = r
	}
	for _, p := range extra {
		all[p.Location] = p
	}
	for _, p := range all {
		for d, loc := range p.Connections {
			other, ok := all[loc]
			require.True(t, ok, "%s has a dangling %s edge", p.Name, d)
			assert.Equal(t, p.Location, other.Connections[d.Reverse()],
				"%s -> %s must be mirrored", p.Name, other.Name)
		}
	}
}

func TestAssemblePlace(t *testing.T) {
	links := linkOutput{
		Entrance: "Docks",
		Connections: map[string][]string{
			"Docks":  {"Market", "Tavern"},
			"Market": {"Docks", "Tavern"}, // duplicate edge, dropped
			"Tavern": {"Lighthouse", "Ghost Pier"}, // second name unknown, dropped
		},
	}

	overworld, rooms, err := assemblePlace(testIdea(), testRooms("Docks", "Market", "Tavern", "Lighthouse"), links)
	require.NoError(t, err)
	require.Len(t, rooms, 4)

	assert.Equal(t, "Overworld - Duskmere", overworld.Name)
	assert.Equal(t, "A fishing town on a black lake.", overworld.Description)

	var entrance *model.Place
	for _, r := range rooms {
		if r.Name == "Docks" {
			entrance = r
		}
	}
	require.NotNil(t, entrance)
	assert.Equal(t, entrance.Location, overworld.Connections[model.Down])
	assert.Equal(t, overworld.Location, entrance.Connections[model.Up])

	assertBidirectional(t, rooms, overworld)

	// The duplicate Market->Docks edge must not create a second link.
	var market *model.Place
	for _, r := range rooms {
		if r.Name == "Market" {
			market = r
		}
	}
	count := 0
	for _, loc := range market.Connections {
		if loc == entrance.Location {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAssemblePlace_UnknownEntrance(t *testing.T) {
	links := linkOutput{
		Entrance:    "The Moon",
		Connections: map[string][]string{"Docks": {"Market"}},
	}

	_, _, err := assemblePlace(testIdea(), testRooms("Docks", "Market"), links)
	assert.ErrorIs(t, err, ErrAIStructure)
}

func TestAssemblePlace_RepairsStrandedRooms(t *testing.T) {
	// The model forgot to mention the Cellar at all.
	links := linkOutput{
		Entrance:    "Docks",
		Connections: map[string][]string{"Docks": {"Market"}},
	}

	_, rooms, err := assemblePlace(testIdea(), testRooms("Docks", "Market", "Cellar"), links)
	require.NoError(t, err)
	assertBidirectional(t, rooms)

	var entrance *model.Place
	for _, r := range rooms {
		if r.Name == "Docks" {
			entrance = r
		}
	}
	byLoc := make(map[model.Location]*model.Place, len(rooms))
	for loc, r := range rooms {
		byLoc[loc] = r
	}
	reached := reachableFrom(entrance, byLoc)
	assert.Len(t, reached, len(rooms), "every room must be reachable from the entrance")
}

// scriptedBackend answers generate calls by matching markers in the
// prompt, standing in for the real model.
func scriptedBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var response string
		switch {
		case strings.Contains(req.Prompt, "Invent 1 distinct"):
			response = "1. Duskmere: A fishing town on a black lake.\n"
		case strings.Contains(req.Prompt, "found within"):
			response = "1. Docks: Boats knock against the piles.\n2. Market: Fish on ice.\n"
		case strings.Contains(req.Prompt, "Lay them out"):
			response = "```yaml\nentrance: Docks\nconnections:\n  Docks: [Market]\n```"
		default:
			t.Errorf("unexpected prompt: %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": response})
	}))
}

func TestGenerator_EndToEnd(t *testing.T) {
	srv := scriptedBackend(t)
	defer srv.Close()

	cfg := config.Default()
	cfg.OllamaAddress = srv.URL
	g := New(llm.New(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Run(ctx)
	}()

	g.Submit(Request{Type: Village, Count: 1})

	var res NewPlace
	require.Eventually(t, func() bool {
		var ok bool
		res, ok = g.TryResult()
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Overworld - Duskmere", res.Overworld.Name)
	require.Len(t, res.Rooms, 2)
	assertBidirectional(t, res.Rooms, res.Overworld)

	cancel()
	<-done
}
