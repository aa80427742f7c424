package main

import (
	"testing"

	"github.com/quaystone/dwellwatch/internal/config"
)

func TestParseClasses(t *testing.T) {
	cfg := config.Empty()

	f, err := parseClasses("2, 5,7", cfg)
	if err != nil {
		t.Fatalf("parseClasses() error: %v", err)
	}
	for _, id := range []int{2, 5, 7} {
		if !f.Allows(id) {
			t.Errorf("filter should allow class %d", id)
		}
	}
	if f.Allows(0) {
		t.Error("filter should reject class 0")
	}
}

func TestParseClassesInvalid(t *testing.T) {
	if _, err := parseClasses("2,banana", config.Empty()); err == nil {
		t.Error("parseClasses() should reject non-numeric ids")
	}
}

func TestParseClassesFallsBackToConfig(t *testing.T) {
	cfg := config.Empty()
	cfg.AllowedClasses = []int{3}

	f, err := parseClasses("", cfg)
	if err != nil {
		t.Fatalf("parseClasses() error: %v", err)
	}
	if !f.Allows(3) || f.Allows(4) {
		t.Error("empty flag should fall back to config allow-list")
	}
}

func TestHeaderFlags(t *testing.T) {
	var h headerFlags
	if err := h.Set("Authorization: Bearer x"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := h.Set("X-Camera-Id: 7"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if len(h) != 2 {
		t.Errorf("headerFlags length = %d, want 2", len(h))
	}
}
