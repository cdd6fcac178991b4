package tilecolor

import (
	"log/slog"
	"strings"
)

// Layer names one step of the override chain, lowest precedence first.
type Layer string

const (
	LayerBase     Layer = "base"
	LayerScheme   Layer = "scheme"
	LayerTime     Layer = "time"
	LayerSeasonal Layer = "seasonal"
)

// Context is the world state a tile is resolved in. Scheme is the name of the
// current map's color scheme; empty means no scheme.
type Context struct {
	Scheme    string    `json:"scheme,omitempty"`
	Season    Season    `json:"season,omitempty"`
	TimeOfDay TimeOfDay `json:"time_of_day,omitempty"`
}

// LayerTrace is one considered layer.
type LayerTrace struct {
	Layer     Layer  `json:"layer"`
	Candidate string `json:"candidate"`
	Applied   bool   `json:"applied"`
}

// Trace explains how a tile color was chosen.
type Trace struct {
	Tile       string       `json:"tile"`
	FinalColor string       `json:"final_color"`
	Source     Layer        `json:"source"`
	Category   Category     `json:"category"`
	Layers     []LayerTrace `json:"layers"`
}

func (t *Trace) add(layer Layer, candidate string) {
	if t == nil {
		return
	}
	t.Layers = append(t.Layers, LayerTrace{Layer: layer, Candidate: candidate, Applied: candidate != ""})
}

// Resolver picks tile colors. Precedence, highest wins:
// seasonal > time of day > scheme base > intrinsic tile color.
type Resolver struct {
	palette *Palette
	schemes *SchemeStore
	logger  *slog.Logger
}

// NewResolver returns a resolver over the given palette and schemes.
func NewResolver(palette *Palette, schemes *SchemeStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{palette: palette, schemes: schemes, logger: logger}
}

// Resolve returns the palette name to display for tile in ctx.
func (r *Resolver) Resolve(tile TileType, ctx Context) string {
	return r.resolve(tile, ctx, nil)
}

// ResolveWithTrace is Resolve plus the per-layer trace. Both run the same code.
func (r *Resolver) ResolveWithTrace(tile TileType, ctx Context) Trace {
	tr := Trace{Tile: tile.String()}
	tr.FinalColor = r.resolve(tile, ctx, &tr)
	return tr
}

func (r *Resolver) resolve(tile TileType, ctx Context, tr *Trace) string {
	if !tile.valid() {
		r.logger.Warn("unknown tile type, using fallback color", "tile", int(tile))
	}
	color, source := tile.BaseColor(), LayerBase
	tr.add(LayerBase, color)
	if tr != nil {
		tr.Source = LayerBase
	}

	if ctx.Scheme == "" {
		return color
	}
	scheme := r.schemes.lookup(ctx.Scheme)
	if scheme == nil {
		r.logger.Debug("unknown color scheme, using intrinsic color", "scheme", ctx.Scheme)
		return color
	}
	category := tile.Category()
	if category == CategoryNone {
		return color
	}
	if tr != nil {
		tr.Category = category
		defer func() { tr.Source = source }()
	}

	if c := scheme.Colors[category]; c != "" {
		color, source = c, LayerScheme
	} else {
		r.logger.Debug("scheme has no color for category", "scheme", scheme.Name, "category", category)
	}
	tr.add(LayerScheme, scheme.Colors[category])

	if scheme.TimeOfDay != nil {
		c := scheme.TimeOfDay[ctx.TimeOfDay][category]
		if c != "" {
			color, source = c, LayerTime
		}
		tr.add(LayerTime, c)
	}

	if scheme.Seasonal != nil {
		c := scheme.Seasonal[ctx.Season][category]
		if c != "" {
			color, source = c, LayerSeasonal
		}
		tr.add(LayerSeasonal, c)
	}

	return color
}

// refPrefixes are the class-style prefixes a color reference may carry.
var refPrefixes = []string{"bg-palette-", "palette-"}

// ToDisplayValue turns a color reference into a #rrggbb hex. Unparseable
// references and unknown names log and return FallbackHex.
func (r *Resolver) ToDisplayValue(ref string) string {
	name := strings.TrimSpace(ref)
	for _, p := range refPrefixes {
		if strings.HasPrefix(name, p) {
			name = strings.TrimPrefix(name, p)
			break
		}
	}
	if name == "" {
		r.logger.Warn("empty color reference, using fallback", "ref", ref)
		return FallbackHex
	}
	return r.palette.Color(name)
}

// Display resolves tile and converts the result to hex in one call.
func (r *Resolver) Display(tile TileType, ctx Context) string {
	return r.ToDisplayValue(r.Resolve(tile, ctx))
}
