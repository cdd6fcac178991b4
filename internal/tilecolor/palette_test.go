package tilecolor

import "testing"

func TestNormalizeHex(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"#87A96B", "#87a96b"},
		{"87a96b", "#87a96b"},
		{" #fff ", "#ffffff"},
	}
	for _, tt := range tests {
		got, err := NormalizeHex(tt.in)
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.in, tt.want, got)
		}
	}

	for _, bad := range []string{"", "#12", "#zzzzzz", "blue"} {
		if _, err := NormalizeHex(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestPaletteUnknownColor(t *testing.T) {
	p := NewPalette(testLogger())
	if got := p.Color("nope"); got != FallbackHex {
		t.Errorf("expected %s, got %s", FallbackHex, got)
	}
	if got := p.Color(FallbackColor); got != FallbackHex {
		t.Errorf("expected fallback entry to exist, got %s", got)
	}
}

func TestPaletteDefineRejectsBadInput(t *testing.T) {
	p := NewPalette(testLogger())
	if err := p.Define("", "#ffffff", ""); err == nil {
		t.Error("expected error for empty name")
	}
	if err := p.Define("mud", "not-a-color", ""); err == nil {
		t.Error("expected error for bad hex")
	}
	if _, ok := p.Lookup("mud"); ok {
		t.Error("rejected color should not be stored")
	}
}

func TestPaletteOnChange(t *testing.T) {
	p := DefaultPalette(testLogger())

	var gotName, gotHex string
	calls := 0
	p.OnChange(func(name, hex string) {
		calls++
		gotName, gotHex = name, hex
	})

	if err := p.SetColor("sage", "#000FFF"); err != nil {
		t.Fatalf("set color: %v", err)
	}
	if calls != 1 || gotName != "sage" || gotHex != "#000fff" {
		t.Errorf("unexpected notification: calls=%d name=%q hex=%q", calls, gotName, gotHex)
	}

	c, _ := p.Lookup("sage")
	if c.Description != "Soft sage green" {
		t.Errorf("SetColor should keep the description, got %q", c.Description)
	}

	_ = p.SetColor("sage", "bad")
	if calls != 1 {
		t.Errorf("failed SetColor should not notify, calls=%d", calls)
	}
}

func TestPalettesAreIndependent(t *testing.T) {
	a := DefaultPalette(testLogger())
	b := DefaultPalette(testLogger())

	if err := a.SetColor("teal", "#010203"); err != nil {
		t.Fatalf("set color: %v", err)
	}
	if b.Color("teal") == "#010203" {
		t.Error("changing one palette leaked into another")
	}
}

func TestPaletteEntriesAndDescribe(t *testing.T) {
	p := NewPalette(testLogger())
	if err := p.Define("Moss", "#6B8E23", "Deep moss"); err != nil {
		t.Fatalf("define: %v", err)
	}

	entries := p.Entries()
	if got := entries["Moss"]; got.Hex != "#6b8e23" || got.Description != "Deep moss" {
		t.Errorf("unexpected entry %+v", got)
	}
	if len(entries) != len(p.Names()) {
		t.Errorf("entries and names disagree: %d vs %d", len(entries), len(p.Names()))
	}

	entries["Moss"] = Color{Hex: "#ffffff"}
	if p.Color("Moss") != "#6b8e23" {
		t.Error("Entries should return a copy")
	}

	if got := p.Describe("Moss"); got != "Deep moss" {
		t.Errorf("expected description, got %q", got)
	}
	if got := p.Describe("nope"); got != "" {
		t.Errorf("unknown color should have no description, got %q", got)
	}
}
