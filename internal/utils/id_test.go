package utils

import (
	"regexp"
	"testing"
)

var connIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{20}$`)

func TestNewConnIDFormatAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := NewConnID()
		if !connIDPattern.MatchString(id) {
			t.Fatalf("unexpected id format: %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
