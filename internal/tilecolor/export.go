package tilecolor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MarshalScheme renders a scheme as hand-editable YAML.
func MarshalScheme(s *ColorScheme) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return yaml.Marshal(s.Clone())
}

// UnmarshalScheme parses and validates a single YAML scheme.
func UnmarshalScheme(data []byte) (*ColorScheme, error) {
	var s ColorScheme
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scheme: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// DecodeSchemes reads every YAML document from r as a scheme.
func DecodeSchemes(r io.Reader) ([]*ColorScheme, error) {
	dec := yaml.NewDecoder(r)
	var out []*ColorScheme
	for {
		var s ColorScheme
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("parse scheme %d: %w", len(out)+1, err)
		}
		if err := s.Validate(); err != nil {
			return out, err
		}
		out = append(out, s.Clone())
	}
	return out, nil
}

// EncodeSchemes writes schemes as a multi-document YAML stream.
func EncodeSchemes(w io.Writer, schemes []*ColorScheme) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, s := range schemes {
		if err := enc.Encode(s.Clone()); err != nil {
			return fmt.Errorf("encode scheme %s: %w", s.Name, err)
		}
	}
	return enc.Close()
}

// LoadSchemeFile registers every scheme found in a YAML file.
func LoadSchemeFile(path string, store *SchemeStore) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read scheme file: %w", err)
	}
	schemes, err := DecodeSchemes(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	for _, s := range schemes {
		if err := store.Register(s); err != nil {
			return 0, err
		}
	}
	return len(schemes), nil
}

// LoadPaletteFile merges a YAML palette (name: {hex, description}) into p.
func LoadPaletteFile(path string, p *Palette) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read palette file: %w", err)
	}
	var colors map[string]Color
	if err := yaml.Unmarshal(data, &colors); err != nil {
		return 0, fmt.Errorf("parse palette file %s: %w", path, err)
	}

	names := make([]string, 0, len(colors))
	for n := range colors {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := p.Define(n, colors[n].Hex, colors[n].Description); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}
