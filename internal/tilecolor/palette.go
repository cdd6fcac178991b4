package tilecolor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// FallbackColor is the palette name used when nothing else resolves.
	FallbackColor = "black"
	// FallbackHex is returned for any color that cannot be looked up.
	FallbackHex = "#000000"
)

// Color is one palette entry.
type Color struct {
	Hex         string `yaml:"hex" json:"hex"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Palette maps color names to display colors. It is an owned value: create
// one per game (or per test) and inject it where colors are needed.
type Palette struct {
	mu        sync.RWMutex
	colors    map[string]Color
	listeners []func(name, hex string)
	logger    *slog.Logger
}

// NewPalette returns an empty palette.
func NewPalette(logger *slog.Logger) *Palette {
	if logger == nil {
		logger = slog.Default()
	}
	return &Palette{
		colors: map[string]Color{FallbackColor: {Hex: FallbackHex, Description: "Fallback black"}},
		logger: logger,
	}
}

// Color returns the hex for name. Unknown names log a warning and return FallbackHex.
func (p *Palette) Color(name string) string {
	p.mu.RLock()
	c, ok := p.colors[name]
	p.mu.RUnlock()
	if !ok {
		p.logger.Warn("unknown palette color, using fallback", "color", name, "fallback", FallbackHex)
		return FallbackHex
	}
	return c.Hex
}

// Lookup returns the entry for name without logging.
func (p *Palette) Lookup(name string) (Color, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.colors[name]
	return c, ok
}

// Describe returns the description of name, or "" if it is unknown.
func (p *Palette) Describe(name string) string {
	c, _ := p.Lookup(name)
	return c.Description
}

// SetColor changes (or adds) the hex of name, keeping any description, and
// notifies OnChange listeners.
func (p *Palette) SetColor(name, hex string) error {
	p.mu.RLock()
	desc := p.colors[name].Description
	p.mu.RUnlock()
	return p.Define(name, hex, desc)
}

// Define adds or replaces a palette entry and notifies OnChange listeners.
func (p *Palette) Define(name, hex, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("palette color name is required")
	}
	norm, err := NormalizeHex(hex)
	if err != nil {
		return fmt.Errorf("palette color %s: %w", name, err)
	}

	p.mu.Lock()
	p.colors[name] = Color{Hex: norm, Description: description}
	listeners := append([]func(string, string){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(name, norm)
	}
	return nil
}

// OnChange registers fn to be called after every SetColor/Define.
func (p *Palette) OnChange(fn func(name, hex string)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Names returns all palette names, sorted.
func (p *Palette) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.colors))
	for n := range p.colors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Entries returns a copy of every palette entry.
func (p *Palette) Entries() map[string]Color {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]Color, len(p.colors))
	for k, v := range p.colors {
		out[k] = v
	}
	return out
}

// NormalizeHex validates a CSS-style hex color and returns it as lowercase #rrggbb.
func NormalizeHex(hex string) (string, error) {
	h := strings.TrimSpace(hex)
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return "", fmt.Errorf("invalid hex %q: %w", hex, err)
	}
	return c.Hex(), nil
}
