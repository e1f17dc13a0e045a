package id

import (
	"testing"

	"github.com/google/uuid"
)

type fixedGenerator struct{}

func (fixedGenerator) NewID() string { return "generated" }

func TestNormalize(t *testing.T) {
	valid := uuid.NewString()
	if got := Normalize(fixedGenerator{}, " "+valid+" "); got != valid {
		t.Fatalf("expected valid id to be kept, got %s", got)
	}
	if got := Normalize(fixedGenerator{}, "not-a-uuid"); got != "generated" {
		t.Fatalf("expected generated id, got %s", got)
	}
	if _, err := uuid.Parse(NewUUIDGenerator().NewID()); err != nil {
		t.Fatalf("generator must return uuids: %v", err)
	}
}
