package id

import (
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque ids for request correlation.
type Generator interface {
	NewID() string
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Normalize returns raw when it is a valid UUID, otherwise a fresh one.
func Normalize(gen Generator, raw string) string {
	raw = strings.TrimSpace(raw)
	if parsed, err := uuid.Parse(raw); err == nil {
		return parsed.String()
	}
	return gen.NewID()
}
