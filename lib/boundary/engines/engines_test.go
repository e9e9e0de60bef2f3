package engines

import (
	"testing"
)

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		engine, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if engine.Name() != name {
			t.Errorf("Expected engine %q, got %q", name, engine.Name())
		}
	}

	if _, err := Lookup("sled"); err == nil {
		t.Errorf("Expected an error for an unknown engine")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 3 || names[0] != "bolt" || names[1] != "mem" || names[2] != "sqlite" {
		t.Errorf("Expected [bolt mem sqlite], got %v", names)
	}
}
