package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id, err := GenerateID(8)
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	if len(id) != 8 {
		t.Errorf("len = %d, want 8", len(id))
	}
	for _, r := range id {
		if !strings.ContainsRune(idAlphabet, r) {
			t.Errorf("id %q contains %q outside the alphabet", id, r)
		}
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateID(16)
		if err != nil {
			t.Fatalf("GenerateID: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestGenerateIDInvalidLength(t *testing.T) {
	for _, length := range []int{0, -1} {
		if _, err := GenerateID(length); !errors.Is(err, ErrIDLengthInvalid) {
			t.Errorf("GenerateID(%d) error = %v, want ErrIDLengthInvalid", length, err)
		}
	}
}
