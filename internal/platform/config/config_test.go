package config

import (
	"testing"
	"time"

	kit "reaper/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	c := New().Prefix("CLOUDTASKS_").Prefix("OIDC_")
	if got := c.Key("AUDIENCE"); got != "CLOUDTASKS_OIDC_AUDIENCE" {
		t.Fatalf("Key() = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("ACCOUNTDELETE_")
	t.Setenv("ACCOUNTDELETE_PUBLIC_URL", "  https://accounts.example.com ")
	if got := c.MustString("PUBLIC_URL"); got != "https://accounts.example.com" {
		t.Fatalf("MustString = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustInt(t *testing.T) {
	c := New().Prefix("SVC_")
	t.Setenv("SVC_N", " 8 ")
	if got := c.MustInt("N"); got != 8 {
		t.Fatalf("MustInt = %d", got)
	}
	t.Setenv("SVC_BAD", "x")
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

func TestMustURL(t *testing.T) {
	c := New().Prefix("U_")
	t.Setenv("U_OK", "https://paypal.example/nvp")
	if u := c.MustURL("OK"); u.Host != "paypal.example" {
		t.Fatalf("MustURL host = %q", u.Host)
	}
	t.Setenv("U_REL", "/relative")
	kit.MustPanic(t, func() { _ = c.MustURL("REL") })
}

func TestRequire(t *testing.T) {
	c := New().Prefix("R_")
	t.Setenv("R_A", "1")
	t.Setenv("R_B", "   ")
	kit.MustNotPanic(t, func() { c.Require("A") })
	kit.MustPanic(t, func() { c.Require("A", "B") })
}

func TestMayFallbacks(t *testing.T) {
	c := New().Prefix("M_")
	t.Setenv("M_INT_BAD", "nope")
	t.Setenv("M_BOOL", "true")
	t.Setenv("M_DUR", "250ms")
	t.Setenv("M_DUR_BAD", "soon")

	if got := c.MayString("NONE", "dflt"); got != "dflt" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayInt("INT_BAD", 7); got != 7 {
		t.Fatalf("MayInt invalid = %d", got)
	}
	if !c.MayBool("BOOL", false) {
		t.Fatalf("MayBool = false")
	}
	if got := c.MayDuration("DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayDuration("DUR_BAD", time.Second); got != time.Second {
		t.Fatalf("MayDuration invalid = %v", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("C_")
	t.Setenv("C_LIST", " a, ,b ,")
	got := c.MayCSV("LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("MayCSV = %#v", got)
	}
	t.Setenv("C_BLANK", " , ")
	if got := c.MayCSV("BLANK", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("MayCSV blank = %#v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	t.Setenv("E_FMT", "JSON")
	if got := c.MayEnum("FMT", "console", "json", "console"); got != "json" {
		t.Fatalf("MayEnum = %q", got)
	}
	if got := c.MayEnum("MISSING", "", "a"); got != "" {
		t.Fatalf("MayEnum empty = %q", got)
	}
	t.Setenv("E_BAD", "xml")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "json", "json", "console") })
}
