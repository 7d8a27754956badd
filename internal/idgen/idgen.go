// Package idgen supplies identifiers for test cases and test steps.
package idgen

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator hands out a new identifier on every call.
type Generator interface {
	Next() string
}

// Incrementing yields "0", "1", "2", ... and is used where output must be
// reproducible. The zero value is ready to use.
type Incrementing struct {
	next atomic.Uint64
}

func NewIncrementing() *Incrementing { return &Incrementing{} }

func (g *Incrementing) Next() string {
	return strconv.FormatUint(g.next.Add(1)-1, 10)
}

// UUID yields random version 4 UUIDs.
type UUID struct{}

func (UUID) Next() string { return uuid.NewString() }

// Strategy names accepted by FromName.
const (
	StrategyIncrementing = "incrementing"
	StrategyUUID         = "uuid"
)

// FromName returns a fresh generator for a configured strategy name.
func FromName(name string) (Generator, error) {
	switch name {
	case StrategyIncrementing:
		return NewIncrementing(), nil
	case StrategyUUID, "":
		return UUID{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q (use %s or %s)", name, StrategyIncrementing, StrategyUUID)
	}
}
