package generation

import "github.com/udisondev/somnuscape/internal/model"

// PlaceType describes one flavour of generated region.
type PlaceType struct {
	Name           string
	RoomType       string
	RoomTypePlural string
}

var (
	// Village regions sit on the surface and are made of buildings.
	Village = PlaceType{Name: "village", RoomType: "building", RoomTypePlural: "buildings"}
	// Dungeon regions are underground warrens of rooms.
	Dungeon = PlaceType{Name: "dungeon", RoomType: "room", RoomTypePlural: "rooms"}
)

// Request asks the pipeline for Count new regions of the given type.
type Request struct {
	Type  PlaceType
	Count int
}

// NewPlace is one finished region: an overworld entry place plus its
// interior rooms keyed by location. The overworld place is already
// linked Down into the entrance room and every room graph is
// bidirectional; the engine only has to splice the overworld place into
// the surface map.
type NewPlace struct {
	Overworld *model.Place
	Rooms     map[model.Location]*model.Place
}
