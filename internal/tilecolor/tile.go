// Package tilecolor resolves the display color of map tiles from an owned
// palette, per-map color schemes and the current season and time of day.
package tilecolor

import (
	"fmt"
	"strings"
)

// Category is the semantic color role a tile type is grouped into.
// CategoryNone means the tile keeps its intrinsic color and ignores schemes.
type Category string

const (
	CategoryNone      Category = ""
	CategoryGrass     Category = "grass"
	CategoryWater     Category = "water"
	CategoryFloor     Category = "floor"
	CategoryWall      Category = "wall"
	CategoryDoor      Category = "door"
	CategoryFurniture Category = "furniture"
	CategorySpecial   Category = "special"
)

// Categories lists every scheme-colorable category.
var Categories = []Category{
	CategoryGrass, CategoryWater, CategoryFloor, CategoryWall,
	CategoryDoor, CategoryFurniture, CategorySpecial,
}

// Valid reports whether c is a scheme-colorable category.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Season is the seasonal override axis.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// Seasons lists the four seasons in calendar order.
var Seasons = []Season{Spring, Summer, Autumn, Winter}

// Valid reports whether s is a known season.
func (s Season) Valid() bool {
	switch s {
	case Spring, Summer, Autumn, Winter:
		return true
	}
	return false
}

// TimeOfDay is the day/night override axis.
type TimeOfDay string

const (
	Day   TimeOfDay = "day"
	Night TimeOfDay = "night"
)

// Valid reports whether t is day or night.
func (t TimeOfDay) Valid() bool {
	return t == Day || t == Night
}

// TileType enumerates every tile the map renderer knows about.
type TileType int

const (
	TileGrass TileType = iota
	TileTallGrass
	TileDirt
	TileTilledSoil
	TileWateredSoil
	TileSand
	TileWater
	TileDeepWater
	TilePath
	TileCobblestone
	TileBridge
	TileWoodFloor
	TileStoneFloor
	TileCarpet
	TileWall
	TileWoodWall
	TileWindow
	TileDoor
	TileTable
	TileChair
	TileBed
	TileStove
	TileCounter
	TileBookshelf
	TileChest
	TileRug
	TileOakTree
	TileCherryTree
	TilePineTree
	TileWillowTree
	TileBush
	TileBerryBush
	TileRock
	TileBoulder
	TileFlower
	TileMushroom
	TileFence
	TileWell
	TileSign
	TileFairyRing
	TileShrine
	TileMagicPortal

	numTileTypes
)

type tileDef struct {
	name     string
	color    string // intrinsic palette color
	category Category
}

// tileDefs is the total tile table. Every TileType must have an entry;
// tile_test.go fails on a missing one.
//
// Trees, bushes, rocks and flowers sit in the grass category on purpose so
// that schemes repaint them together with the ground they stand on.
var tileDefs = [numTileTypes]tileDef{
	TileGrass:       {"GRASS", "meadow", CategoryGrass},
	TileTallGrass:   {"TALL_GRASS", "moss", CategoryGrass},
	TileDirt:        {"DIRT", "soil", CategoryNone},
	TileTilledSoil:  {"TILLED_SOIL", "tilled", CategoryNone},
	TileWateredSoil: {"WATERED_SOIL", "watered", CategoryNone},
	TileSand:        {"SAND", "sand", CategoryNone},
	TileWater:       {"WATER", "pond", CategoryWater},
	TileDeepWater:   {"DEEP_WATER", "deep-pond", CategoryWater},
	TilePath:        {"PATH", "path", CategoryFloor},
	TileCobblestone: {"COBBLESTONE", "cobble", CategoryFloor},
	TileBridge:      {"BRIDGE", "oak", CategoryFloor},
	TileWoodFloor:   {"WOOD_FLOOR", "oak", CategoryFloor},
	TileStoneFloor:  {"STONE_FLOOR", "stone", CategoryFloor},
	TileCarpet:      {"CARPET", "rose", CategoryFloor},
	TileWall:        {"WALL", "cream", CategoryWall},
	TileWoodWall:    {"WOOD_WALL", "walnut", CategoryWall},
	TileWindow:      {"WINDOW", "sky", CategoryNone},
	TileDoor:        {"DOOR", "walnut", CategoryDoor},
	TileTable:       {"TABLE", "oak", CategoryFurniture},
	TileChair:       {"CHAIR", "oak", CategoryFurniture},
	TileBed:         {"BED", "linen", CategoryFurniture},
	TileStove:       {"STOVE", "charcoal", CategoryFurniture},
	TileCounter:     {"COUNTER", "walnut", CategoryFurniture},
	TileBookshelf:   {"BOOKSHELF", "walnut", CategoryFurniture},
	TileChest:       {"CHEST", "oak", CategoryFurniture},
	TileRug:         {"RUG", "rose", CategoryFurniture},
	TileOakTree:     {"OAK_TREE", "forest", CategoryGrass},
	TileCherryTree:  {"CHERRY_TREE", "blossom", CategoryGrass},
	TilePineTree:    {"PINE_TREE", "pine", CategoryGrass},
	TileWillowTree:  {"WILLOW_TREE", "willow", CategoryGrass},
	TileBush:        {"BUSH", "fern", CategoryGrass},
	TileBerryBush:   {"BERRY_BUSH", "berry", CategoryGrass},
	TileRock:        {"ROCK", "stone", CategoryGrass},
	TileBoulder:     {"BOULDER", "slate", CategoryGrass},
	TileFlower:      {"FLOWER", "blossom", CategoryGrass},
	TileMushroom:    {"MUSHROOM", "mushroom", CategoryGrass},
	TileFence:       {"FENCE", "oak", CategoryNone},
	TileWell:        {"WELL", "stone", CategoryNone},
	TileSign:        {"SIGN", "oak", CategoryNone},
	TileFairyRing:   {"FAIRY_RING", "lavender", CategorySpecial},
	TileShrine:      {"SHRINE", "amber", CategorySpecial},
	TileMagicPortal: {"MAGIC_PORTAL", "plum", CategorySpecial},
}

func (t TileType) valid() bool {
	return t >= 0 && t < numTileTypes
}

func (t TileType) String() string {
	if !t.valid() {
		return fmt.Sprintf("TileType(%d)", int(t))
	}
	return tileDefs[t].name
}

// Category returns the semantic category of t (CategoryNone for unknown tiles).
func (t TileType) Category() Category {
	if !t.valid() {
		return CategoryNone
	}
	return tileDefs[t].category
}

// BaseColor returns the intrinsic palette color of t.
func (t TileType) BaseColor() string {
	if !t.valid() {
		return FallbackColor
	}
	return tileDefs[t].color
}

// TileTypes returns every tile type in declaration order.
func TileTypes() []TileType {
	out := make([]TileType, 0, numTileTypes)
	for t := TileType(0); t < numTileTypes; t++ {
		out = append(out, t)
	}
	return out
}

// ParseTileType accepts names like "OAK_TREE" or "oak-tree".
func ParseTileType(s string) (TileType, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for t := TileType(0); t < numTileTypes; t++ {
		if tileDefs[t].name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tile type %q", s)
}
