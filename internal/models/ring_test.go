package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatGoldInfo(t *testing.T) {
	cases := []struct {
		color string
		karat int
		want  string
	}{
		{"blanco", 14, "Blanco 14K"},
		{"Amarillo", 18, "Amarillo 18K"},
		{"ROSA", 10, "Rosa 10K"},
		{"", 0, "Amarillo 14K"},
	}
	for _, tc := range cases {
		if got := FormatGoldInfo(tc.color, tc.karat); got != tc.want {
			t.Errorf("FormatGoldInfo(%q, %d) = %q, want %q", tc.color, tc.karat, got, tc.want)
		}
	}
}

func TestParseMetalColor(t *testing.T) {
	if c, ok := ParseMetalColor(" BLANCO "); !ok || c != MetalBlanco {
		t.Errorf("expected Blanco, got %q %v", c, ok)
	}
	if _, ok := ParseMetalColor("rose"); ok {
		t.Error("rose is not part of the vocabulary")
	}
}

func TestRingIsListable(t *testing.T) {
	r := Ring{Slug: "anillo-0100", Code: "Anillo 0100", ImageURL: "/placeholder.svg", Price: decimal.NewFromInt(5000)}
	if !r.IsListable() {
		t.Error("expected ring to be listable")
	}
	r.ImageURL = ""
	if r.IsListable() {
		t.Error("ring without image must not be listable")
	}
}

func TestSummaryFail(t *testing.T) {
	var s ImportSummary
	s.Fail("Anillo 0100", "boom")
	if s.Skipped != 1 || len(s.Failures) != 1 || s.Failures[0].Code != "Anillo 0100" {
		t.Errorf("unexpected summary %+v", s)
	}
}
