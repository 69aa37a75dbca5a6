// SPDX-License-Identifier: MPL-2.0

package pathpattern

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantKind  Kind
		wantValue string
		wantErr   bool
	}{
		{name: "literal file", raw: "pack.png", wantKind: KindLiteral, wantValue: "pack.png"},
		{name: "literal nested", raw: "assets/minecraft/sounds", wantKind: KindLiteral, wantValue: "assets/minecraft/sounds"},
		{name: "any depth", raw: "*/target.png", wantKind: KindAnyDepth, wantValue: "target.png"},
		{name: "any depth keeps remainder", raw: "*/a/b", wantKind: KindAnyDepth, wantValue: "a/b"},
		{name: "star without slash is literal", raw: "*.png", wantKind: KindLiteral, wantValue: "*.png"},
		{name: "bare marker", raw: "*/", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyPattern) {
					t.Fatalf("Parse(%q) error = %v, want ErrEmptyPattern", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.raw, err)
			}
			if got.Kind() != tt.wantKind || got.Value() != tt.wantValue {
				t.Errorf("Parse(%q) = (%s, %q), want (%s, %q)", tt.raw, got.Kind(), got.Value(), tt.wantKind, tt.wantValue)
			}
			if got.String() != tt.raw {
				t.Errorf("Parse(%q).String() = %q", tt.raw, got.String())
			}
		})
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	list := ParseList("  pack.png */.DS_Store   */  assets/old ")
	want := []string{"pack.png", "*/.DS_Store", "assets/old"}

	if len(list) != len(want) {
		t.Fatalf("ParseList returned %d patterns, want %d: %v", len(list), len(want), list.Strings())
	}
	for i, w := range want {
		if list[i].String() != w {
			t.Errorf("pattern[%d] = %q, want %q", i, list[i].String(), w)
		}
	}

	if got := ParseList("   "); got != nil {
		t.Errorf("ParseList of blanks = %v, want nil", got)
	}
}

func TestList_Exempts(t *testing.T) {
	t.Parallel()

	keep := List{
		Literal("/work/assets-1.20.1/minecraft/optifine"),
		AnyDepth("custom.png"),
	}

	tests := []struct {
		name string
		path string
		base string
		want bool
	}{
		{name: "exact literal", path: "/work/assets-1.20.1/minecraft/optifine", base: "optifine", want: true},
		{name: "literal is not a prefix match", path: "/work/assets-1.20.1/minecraft/optifine/cit", base: "cit", want: false},
		{name: "any depth by basename", path: "/work/assets-1.20.1/x/y/custom.png", base: "custom.png", want: true},
		{name: "any depth ignores parent", path: "/elsewhere/custom.png", base: "custom.png", want: true},
		{name: "no match", path: "/work/assets-1.20.1/minecraft/stale.png", base: "stale.png", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := keep.Exempts(tt.path, tt.base); got != tt.want {
				t.Errorf("Exempts(%q, %q) = %v, want %v", tt.path, tt.base, got, tt.want)
			}
		})
	}

	var empty List
	if empty.Exempts("a", "a") {
		t.Error("empty list must not exempt anything")
	}
}

func TestZeroPatternMatchesNothing(t *testing.T) {
	t.Parallel()

	var p Pattern
	if !p.IsZero() {
		t.Error("zero Pattern should report IsZero")
	}
	if p.Matches("", "") {
		t.Error("zero Pattern must not match")
	}
}
