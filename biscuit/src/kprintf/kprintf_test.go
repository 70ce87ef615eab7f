package kprintf

import (
	"testing"

	"console"
)

func TestPrintfVerbs(t *testing.T) {
	mc := console.NewMemCons(2, 40)
	console.SetDefault(mc)

	Printf("n=%d u=%u x=%x c=%c s=%s", -5, uint(42), uint(255), 'Z', "hi")
	got := mc.Line(0)
	want := "n=-5 u=42 x=FF c=Z s=hi"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintfLongModifier(t *testing.T) {
	mc := console.NewMemCons(2, 40)
	console.SetDefault(mc)

	Printf("%ld", int64(-123))
	if mc.Line(0) != "-123" {
		t.Fatalf("got %q, want -123", mc.Line(0))
	}
}

func TestPrintfLiteralPercent(t *testing.T) {
	mc := console.NewMemCons(2, 40)
	console.SetDefault(mc)

	Printf("100%%")
	if mc.Line(0) != "100%" {
		t.Fatalf("got %q, want 100%%", mc.Line(0))
	}
}
