package ui

import (
	"reflect"
	"testing"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() returned %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Nightfox": "Kanagawa",
		"Kanagawa": "Slate",
		"Slate":    "Nightfox",
		"Unknown":  "Nightfox",
	}
	for in, want := range cases {
		if got := NextTheme(in); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestStatusColor_CoversLiveStates(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range []string{"connected", "connecting", "disconnected", "active", "stopped", "comment", "join", "system"} {
			if th.StatusColors[status] == "" {
				t.Fatalf("%s: no color for %q", name, status)
			}
		}
		if got := th.StatusColor("  Connected "); got != th.StatusColors["connected"] {
			t.Fatalf("%s: StatusColor normalizes input, got %q", name, got)
		}
		if got := th.StatusColor("unknown"); got != th.Muted {
			t.Fatalf("%s: StatusColor(unknown) = %q, want muted %q", name, got, th.Muted)
		}
	}
}

func TestThemes_SetEveryColor(t *testing.T) {
	for _, name := range ThemeNames() {
		v := reflect.ValueOf(GetTheme(name))
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if field.Type.Kind() == reflect.String && v.Field(i).String() == "" {
				t.Fatalf("%s: %s is empty", name, field.Name)
			}
		}
	}
}
