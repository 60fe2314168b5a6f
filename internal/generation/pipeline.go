// Package generation turns "make N villages" requests into fully linked
// region graphs. It runs as its own task beside the engine: requests
// arrive on one queue, finished regions leave on another, and every
// structural failure is retried without ever touching engine state.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/somnuscape/internal/llm"
	"github.com/udisondev/somnuscape/internal/model"
)

const (
	// ideaConcurrency bounds how many place ideas are in flight at once.
	ideaConcurrency = 3
	// maxIdeaRetries caps how often one idea is retried after a
	// structural failure before it is abandoned.
	maxIdeaRetries = 5
	// maxIdeaRounds caps how many listing calls may be spent gathering
	// ideas for a single request.
	maxIdeaRounds = 10
)

// Generator owns the request and response queues and the model client.
type Generator struct {
	client   *llm.Client
	requests chan Request
	results  chan NewPlace
}

// New creates a generator around the given model client.
func New(client *llm.Client) *Generator {
	return &Generator{
		client:   client,
		requests: make(chan Request, 16),
		results:  make(chan NewPlace, 64),
	}
}

// Submit queues a generation request. Called from the engine loop.
func (g *Generator) Submit(req Request) {
	g.requests <- req
}

// TryResult returns one finished region without blocking.
func (g *Generator) TryResult() (NewPlace, bool) {
	select {
	case res := <-g.results:
		return res, true
	default:
		return NewPlace{}, false
	}
}

// Run serves requests until the context is cancelled. Requests are
// handled one at a time; within a request, ideas run concurrently.
func (g *Generator) Run(ctx context.Context) error {
	slog.Info("generation pipeline started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-g.requests:
			g.handle(ctx, req)
		}
	}
}

func (g *Generator) handle(ctx context.Context, req Request) {
	slog.Info("generating places", "type", req.Type.Name, "count", req.Count)

	ideas := g.gatherIdeas(ctx, req)

	var eg errgroup.Group
	eg.SetLimit(ideaConcurrency)
	for _, idea := range ideas {
		eg.Go(func() error {
			overworld, rooms, err := g.generatePlace(ctx, req.Type, idea)
			if err != nil {
				slog.Error("abandoning place", "place", idea.Name, "err", err)
				return nil
			}
			select {
			case g.results <- NewPlace{Overworld: overworld, Rooms: rooms}:
			case <-ctx.Done():
			}
			return nil
		})
	}
	eg.Wait()
}

// gatherIdeas keeps asking for idea lists until it has req.Count
// distinct names or runs out of rounds.
func (g *Generator) gatherIdeas(ctx context.Context, req Request) []listItem {
	var ideas []listItem
	seen := make(map[string]struct{})

	for round := 0; len(ideas) < req.Count && round < maxIdeaRounds; round++ {
		if ctx.Err() != nil {
			break
		}
		res, err := g.client.GenerateWithTone(ctx, placeListPrompt(req.Type, req.Count))
		if err != nil {
			slog.Error("listing place ideas", "type", req.Type.Name, "err", err)
			continue
		}
		for _, item := range extractMarkdownList(res) {
			key := strings.ToLower(item.Name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			ideas = append(ideas, item)
			if len(ideas) == req.Count {
				break
			}
		}
	}

	if len(ideas) < req.Count {
		slog.Warn("came up short on place ideas", "type", req.Type.Name, "want", req.Count, "got", len(ideas))
	}
	return ideas
}

// generatePlace runs the room/linkage steps for one idea, retrying on
// structural failures until the retry cap.
func (g *Generator) generatePlace(ctx context.Context, t PlaceType, idea listItem) (*model.Place, map[model.Location]*model.Place, error) {
	for attempt := 1; ; attempt++ {
		overworld, rooms, err := g.buildPlace(ctx, t, idea)
		if err == nil {
			slog.Info("generated place", "place", idea.Name, "rooms", len(rooms))
			return overworld, rooms, nil
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		slog.Error("place generation failed", "place", idea.Name, "attempt", attempt, "err", err)
		if attempt > maxIdeaRetries {
			return nil, nil, fmt.Errorf("after %d attempts: %w", attempt, err)
		}
	}
}

func (g *Generator) buildPlace(ctx context.Context, t PlaceType, idea listItem) (*model.Place, map[model.Location]*model.Place, error) {
	roomsRes, err := g.client.GenerateWithTone(ctx, roomListPrompt(t, idea.Name, idea.Description))
	if err != nil {
		return nil, nil, fmt.Errorf("listing %s: %w", t.RoomTypePlural, err)
	}
	roomItems := extractMarkdownList(roomsRes)
	if len(roomItems) == 0 {
		return nil, nil, fmt.Errorf("empty %s list: %w", t.RoomType, ErrAIStructure)
	}

	names := make([]string, 0, len(roomItems))
	for _, item := range roomItems {
		names = append(names, item.Name)
	}
	linksRes, err := g.client.GenerateWithTone(ctx, linkRoomsPrompt(t, idea.Name, names))
	if err != nil {
		return nil, nil, fmt.Errorf("linking %s: %w", t.RoomTypePlural, err)
	}
	var links linkOutput
	if err := extractYAML(linksRes, &links); err != nil {
		return nil, nil, err
	}

	return assemblePlace(idea, roomItems, links)
}

// linkOutput is the YAML payload describing the interior topology.
type linkOutput struct {
	Entrance    string              `yaml:"entrance"`
	Connections map[string][]string `yaml:"connections"`
}

// assemblePlace turns the model's free-form answers into a consistent
// bidirectional graph wrapped in an overworld entry place. The model's
// edge list is treated as undirected: unknown names and duplicate edges
// are dropped, every room ends up reachable from the entrance, and the
// world invariant (matching reverse connections) holds for every edge
// before anything leaves this function.
func assemblePlace(idea listItem, roomItems []listItem, links linkOutput) (*model.Place, map[model.Location]*model.Place, error) {
	byName := make(map[string]*model.Place, len(roomItems))
	order := make([]*model.Place, 0, len(roomItems))
	for _, item := range roomItems {
		if _, dup := byName[item.Name]; dup {
			continue
		}
		room := model.NewPlace(item.Name, item.Description)
		byName[item.Name] = room
		order = append(order, room)
	}

	for from, neighbours := range links.Connections {
		a, ok := byName[strings.TrimSpace(from)]
		if !ok {
			continue
		}
		for _, to := range neighbours {
			b, ok := byName[strings.TrimSpace(to)]
			if !ok || a == b || a.IsConnected(b.Location) {
				continue
			}
			if _, err := model.Link(a, b, model.North); err != nil {
				return nil, nil, fmt.Errorf("wiring %s to %s: %w", a.Name, b.Name, err)
			}
		}
	}

	entrance, ok := byName[strings.TrimSpace(links.Entrance)]
	if !ok {
		return nil, nil, fmt.Errorf("entrance %q is not a known room: %w", links.Entrance, ErrAIStructure)
	}

	if err := repairConnectivity(entrance, order); err != nil {
		return nil, nil, err
	}

	overworld := model.NewPlace("Overworld - "+idea.Name, idea.Description)
	if _, err := model.Link(overworld, entrance, model.Down); err != nil {
		return nil, nil, fmt.Errorf("wiring overworld entry: %w", err)
	}

	rooms := make(map[model.Location]*model.Place, len(order))
	for _, room := range order {
		rooms[room.Location] = room
	}
	return overworld, rooms, nil
}

// repairConnectivity links any room unreachable from the entrance onto
// the reachable component, so no generated interior strands the player.
func repairConnectivity(entrance *model.Place, rooms []*model.Place) error {
	byLoc := make(map[model.Location]*model.Place, len(rooms))
	for _, r := range rooms {
		byLoc[r.Location] = r
	}

	for {
		reached := reachableFrom(entrance, byLoc)
		var stranded *model.Place
		for _, r := range rooms {
			if _, ok := reached[r.Location]; !ok {
				stranded = r
				break
			}
		}
		if stranded == nil {
			return nil
		}

		linked := false
		for _, r := range rooms {
			if _, ok := reached[r.Location]; !ok {
				continue
			}
			if _, err := model.Link(r, stranded, model.North); err == nil {
				linked = true
				break
			}
		}
		if !linked {
			return fmt.Errorf("no free slot to reach %q: %w", stranded.Name, ErrAIStructure)
		}
	}
}

func reachableFrom(start *model.Place, byLoc map[model.Location]*model.Place) map[model.Location]struct{} {
	reached := map[model.Location]struct{}{start.Location: {}}
	frontier := []*model.Place{start}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, loc := range cur.Connections {
			next, ok := byLoc[loc]
			if !ok {
				continue
			}
			if _, seen := reached[loc]; seen {
				continue
			}
			reached[loc] = struct{}{}
			frontier = append(frontier, next)
		}
	}
	return reached
}
