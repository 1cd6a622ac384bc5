package key

import (
	"testing"
)

func TestModifierHas(t *testing.T) {
	tests := []struct {
		mod    Modifier
		check  Modifier
		expect bool
	}{
		{ModNone, ModCtrl, false},
		{ModCtrl, ModCtrl, true},
		{ModCtrl | ModAlt, ModCtrl, true},
		{ModCtrl | ModAlt, ModAlt, true},
		{ModCtrl | ModAlt, ModShift, false},
		{ModCtrl | ModAlt | ModShift | ModMeta, ModMeta, true},
	}

	for _, tt := range tests {
		if got := tt.mod.Has(tt.check); got != tt.expect {
			t.Errorf("Modifier(%d).Has(%d) = %v, want %v", tt.mod, tt.check, got, tt.expect)
		}
	}
}

func TestModifierWithout(t *testing.T) {
	mod := ModCtrl | ModAlt | ModShift
	mod = mod.Without(ModAlt)
	if mod.HasAlt() {
		t.Error("Without(ModAlt) should remove Alt")
	}
	if !mod.HasCtrl() || !mod.HasShift() {
		t.Error("Without(ModAlt) should keep Ctrl and Shift")
	}
}

func TestModifierString(t *testing.T) {
	tests := []struct {
		mod  Modifier
		want string
	}{
		{ModNone, ""},
		{ModCtrl, "Ctrl"},
		{ModAlt, "Alt"},
		{ModShift, "Shift"},
		{ModMeta, "Meta"},
		{ModCtrl | ModAlt | ModShift, "Ctrl+Alt+Shift"},
	}

	for _, tt := range tests {
		if got := tt.mod.String(); got != tt.want {
			t.Errorf("Modifier(%d).String() = %q, want %q", tt.mod, got, tt.want)
		}
	}
}

func TestMatchModifier(t *testing.T) {
	tests := []struct {
		p     Platform
		text  string
		wantN int
		want  Modifier
	}{
		{PC, "C-X", 2, ModCtrl},
		{Mac, "C-X", 2, ModMeta},
		{PC, "^-X", 2, ModCtrl},
		{Mac, "^X", 1, ModCtrl},
		{PC, "CMD-X", 4, ModCtrl},
		{Mac, "COMMAND+X", 8, ModMeta},
		{PC, "CTRL+X", 5, ModCtrl},
		{Mac, "CONTROL-X", 8, ModCtrl},
		{PC, "META-X", 5, ModAlt},
		{Mac, "OPTION-X", 7, ModAlt},
		{PC, "A-X", 2, ModAlt},
		{PC, "S-X", 2, ModShift},
		{PC, "X", 0, ModNone},
		{PC, "-", 0, ModNone},
	}

	for _, tt := range tests {
		n, m := matchModifier(tt.p, tt.text)
		if n != tt.wantN || m != tt.want {
			t.Errorf("matchModifier(%v, %q) = %d, %v, want %d, %v", tt.p, tt.text, n, m, tt.wantN, tt.want)
		}
	}
}

func TestPlatformNormalize(t *testing.T) {
	if got := PC.Normalize(ModMeta | ModShift); got != ModCtrl|ModShift {
		t.Errorf("PC.Normalize(Meta+Shift) = %v, want Ctrl+Shift", got)
	}
	if got := Mac.Normalize(ModMeta); got != ModMeta {
		t.Errorf("Mac.Normalize(Meta) = %v, want Meta", got)
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in   string
		want Platform
	}{
		{"pc", PC},
		{"Linux", PC},
		{"mac", Mac},
		{"darwin", Mac},
		{"auto", DefaultPlatform()},
		{"", DefaultPlatform()},
	}
	for _, tt := range tests {
		got, err := ParsePlatform(tt.in)
		if err != nil {
			t.Errorf("ParsePlatform(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePlatform(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParsePlatform("amiga"); err == nil {
		t.Error("ParsePlatform(amiga) error = nil")
	}
}
