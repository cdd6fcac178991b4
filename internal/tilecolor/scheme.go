package tilecolor

import (
	"fmt"
	"sort"
	"sync"
)

// ColorScheme is the per-map bundle of category colors plus optional
// seasonal and time-of-day overrides. Values are palette names.
type ColorScheme struct {
	Name      string                            `yaml:"name" json:"name"`
	Colors    map[Category]string               `yaml:"colors" json:"colors"`
	Seasonal  map[Season]map[Category]string    `yaml:"seasonal,omitempty" json:"seasonal,omitempty"`
	TimeOfDay map[TimeOfDay]map[Category]string `yaml:"time_of_day,omitempty" json:"time_of_day,omitempty"`
}

// Validate checks names, categories, seasons and times of day.
func (s *ColorScheme) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scheme name is required")
	}
	if err := validateColors(s.Colors); err != nil {
		return fmt.Errorf("scheme %s colors: %w", s.Name, err)
	}
	for season, colors := range s.Seasonal {
		if !season.Valid() {
			return fmt.Errorf("scheme %s: unknown season %q", s.Name, season)
		}
		if err := validateColors(colors); err != nil {
			return fmt.Errorf("scheme %s seasonal %s: %w", s.Name, season, err)
		}
	}
	for tod, colors := range s.TimeOfDay {
		if !tod.Valid() {
			return fmt.Errorf("scheme %s: unknown time of day %q", s.Name, tod)
		}
		if err := validateColors(colors); err != nil {
			return fmt.Errorf("scheme %s time %s: %w", s.Name, tod, err)
		}
	}
	return nil
}

func validateColors(colors map[Category]string) error {
	for cat, name := range colors {
		if !cat.Valid() {
			return fmt.Errorf("unknown category %q", cat)
		}
		if name == "" {
			return fmt.Errorf("category %s has an empty color", cat)
		}
	}
	return nil
}

// MissingColors lists palette names referenced by s that p does not define.
// Those references would resolve to the fallback color.
func (s *ColorScheme) MissingColors(p *Palette) []string {
	seen := map[string]bool{}
	var missing []string
	check := func(colors map[Category]string) {
		for _, name := range colors {
			if seen[name] {
				continue
			}
			seen[name] = true
			if _, ok := p.Lookup(name); !ok {
				missing = append(missing, name)
			}
		}
	}
	check(s.Colors)
	for _, c := range s.Seasonal {
		check(c)
	}
	for _, c := range s.TimeOfDay {
		check(c)
	}
	sort.Strings(missing)
	return missing
}

// Clone returns a deep copy. Empty override tables are kept, so a scheme
// survives a YAML round trip unchanged.
func (s *ColorScheme) Clone() *ColorScheme {
	out := &ColorScheme{Name: s.Name, Colors: copyColors(s.Colors)}
	if out.Colors == nil {
		out.Colors = map[Category]string{}
	}
	if len(s.Seasonal) > 0 {
		out.Seasonal = make(map[Season]map[Category]string, len(s.Seasonal))
		for season, c := range s.Seasonal {
			out.Seasonal[season] = copyOverride(c)
		}
	}
	if len(s.TimeOfDay) > 0 {
		out.TimeOfDay = make(map[TimeOfDay]map[Category]string, len(s.TimeOfDay))
		for tod, c := range s.TimeOfDay {
			out.TimeOfDay[tod] = copyOverride(c)
		}
	}
	return out
}

// copyOverride copies an override table; a nil table becomes empty, which is
// how it reads back from YAML.
func copyOverride(in map[Category]string) map[Category]string {
	if in == nil {
		return map[Category]string{}
	}
	return copyColors(in)
}

func copyColors(in map[Category]string) map[Category]string {
	if in == nil {
		return nil
	}
	out := make(map[Category]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// SchemeStore holds the registered color schemes, one per map.
// Stored schemes are never mutated in place: Register swaps in a fresh copy,
// so the resolver can read them without holding the lock.
type SchemeStore struct {
	mu      sync.RWMutex
	schemes map[string]*ColorScheme
}

// NewSchemeStore returns an empty store.
func NewSchemeStore() *SchemeStore {
	return &SchemeStore{schemes: map[string]*ColorScheme{}}
}

// Register inserts or replaces the scheme with the same name.
func (s *SchemeStore) Register(scheme *ColorScheme) error {
	if err := scheme.Validate(); err != nil {
		return err
	}
	c := scheme.Clone()
	s.mu.Lock()
	s.schemes[c.Name] = c
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the named scheme. Callers that get false should use
// intrinsic tile colors.
func (s *SchemeStore) Get(name string) (*ColorScheme, bool) {
	sc := s.lookup(name)
	if sc == nil {
		return nil, false
	}
	return sc.Clone(), true
}

func (s *SchemeStore) lookup(name string) *ColorScheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schemes[name]
}

// Names returns the registered scheme names, sorted.
func (s *SchemeStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.schemes))
	for n := range s.schemes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
