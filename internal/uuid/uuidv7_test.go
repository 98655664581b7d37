package uuid

import (
	"strings"
	"testing"
)

func TestNewIsVersion7(t *testing.T) {
	id := New()
	if !IsValid(id) {
		t.Fatalf("expected valid uuid, got %q", id)
	}
	if id[14] != '7' {
		t.Errorf("expected version nibble 7, got %q", id)
	}
}

func TestNewIsTimeOrdered(t *testing.T) {
	a := New()
	b := New()
	if strings.Compare(a[:13], b[:13]) > 0 {
		t.Errorf("expected %q to sort before or with %q", a, b)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("0190F0D2-7C3A-7ABC-8DEF-0123456789AB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0190f0d2-7c3a-7abc-8def-0123456789ab" {
		t.Errorf("expected canonical lower-case form, got %q", got)
	}

	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid input")
	}
}
