package tilecolor

import "log/slog"

var defaultColors = []struct {
	name, hex, desc string
}{
	{"meadow", "#7cb342", "Bright meadow grass"},
	{"sage", "#87a96b", "Soft sage green"},
	{"moss", "#6b8e23", "Deep moss"},
	{"forest", "#2e5e3a", "Shadowed forest canopy"},
	{"pine", "#1f4d3a", "Evergreen needles"},
	{"willow", "#9acd7a", "Drooping willow leaves"},
	{"fern", "#4f7942", "Fern frond"},
	{"blossom", "#f4b6c2", "Cherry blossom pink"},
	{"berry", "#8e3b5e", "Ripe berry"},
	{"wheat", "#e8d28a", "Golden wheat"},
	{"frost", "#dfe9e6", "Frost-dusted grass"},
	{"snow", "#f7f9fb", "Fresh snow"},
	{"night-moss", "#2f4a3a", "Moonlit grass"},
	{"soil", "#7b5a3c", "Loose soil"},
	{"tilled", "#5e4029", "Tilled earth"},
	{"watered", "#4a3220", "Watered earth"},
	{"sand", "#e9d8a6", "Warm sand"},
	{"pond", "#5aa6c8", "Clear pond water"},
	{"teal", "#3f9c9a", "Village teal"},
	{"deep-pond", "#2e6f8e", "Deep water"},
	{"icy-blue", "#bfe3f2", "Frozen pond"},
	{"night-water", "#1c3b57", "Water under moonlight"},
	{"path", "#c8b48a", "Packed dirt path"},
	{"cobble", "#9e9e94", "Cobblestones"},
	{"stone", "#8d8a85", "River stone"},
	{"slate", "#5f6670", "Slate grey"},
	{"oak", "#b5835a", "Oak planks"},
	{"walnut", "#6f4a2f", "Walnut wood"},
	{"cream", "#f3ead7", "Whitewashed plaster"},
	{"linen", "#efe6d8", "Linen"},
	{"brick", "#a65443", "Red brick"},
	{"rose", "#d48a98", "Rose carpet"},
	{"sky", "#b7dff5", "Window sky"},
	{"lavender", "#b7a3d6", "Lavender"},
	{"butter", "#f6e39a", "Butter yellow"},
	{"amber", "#e0a040", "Amber glow"},
	{"lantern", "#f2c46d", "Lantern light"},
	{"pumpkin", "#d9792b", "Pumpkin orange"},
	{"plum", "#5b3a6e", "Plum"},
	{"mushroom", "#a47551", "Mushroom cap"},
	{"charcoal", "#3a3a3a", "Charcoal"},
}

// DefaultPalette returns a palette holding the built-in village colors.
func DefaultPalette(logger *slog.Logger) *Palette {
	p := NewPalette(logger)
	for _, c := range defaultColors {
		// Built-in hexes are valid; Define cannot fail here.
		_ = p.Define(c.name, c.hex, c.desc)
	}
	return p
}

// DefaultSchemes returns the built-in map schemes.
func DefaultSchemes() []*ColorScheme {
	return []*ColorScheme{
		{
			Name: "farm",
			Colors: map[Category]string{
				CategoryGrass:     "sage",
				CategoryWater:     "teal",
				CategoryFloor:     "path",
				CategoryWall:      "brick",
				CategoryDoor:      "walnut",
				CategoryFurniture: "oak",
				CategorySpecial:   "lavender",
			},
			Seasonal: map[Season]map[Category]string{
				Spring: {CategoryGrass: "meadow"},
				Autumn: {CategoryGrass: "wheat"},
				Winter: {CategoryGrass: "frost", CategoryWater: "icy-blue"},
			},
			TimeOfDay: map[TimeOfDay]map[Category]string{
				Night: {CategoryGrass: "night-moss", CategoryWater: "night-water"},
			},
		},
		{
			Name: "town",
			Colors: map[Category]string{
				CategoryGrass:     "meadow",
				CategoryWater:     "pond",
				CategoryFloor:     "cobble",
				CategoryWall:      "cream",
				CategoryDoor:      "walnut",
				CategoryFurniture: "oak",
				CategorySpecial:   "amber",
			},
			Seasonal: map[Season]map[Category]string{
				Winter: {CategoryGrass: "snow", CategoryWater: "icy-blue"},
			},
			TimeOfDay: map[TimeOfDay]map[Category]string{
				Night: {CategoryFloor: "slate", CategorySpecial: "lantern"},
			},
		},
		{
			Name: "cottage",
			Colors: map[Category]string{
				CategoryFloor:     "oak",
				CategoryWall:      "cream",
				CategoryDoor:      "walnut",
				CategoryFurniture: "walnut",
				CategorySpecial:   "lantern",
			},
			TimeOfDay: map[TimeOfDay]map[Category]string{
				Night: {CategoryWall: "linen"},
			},
		},
	}
}

// NewDefaultSchemeStore returns a store with DefaultSchemes registered.
func NewDefaultSchemeStore() *SchemeStore {
	s := NewSchemeStore()
	for _, sc := range DefaultSchemes() {
		_ = s.Register(sc)
	}
	return s
}
