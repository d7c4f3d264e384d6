// Package idgen hands out unique, roughly time-ordered comment ids.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Generator produces a new unique id on every call
type Generator interface {
	NewID() string
}

// UUIDGenerator issues UUIDv7 ids, which sort by creation time
type UUIDGenerator struct{}

// NewID implements Generator
func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 only fails when the random source does
		return uuid.NewString()
	}
	return id.String()
}

// SnowflakeGenerator issues 64-bit snowflake ids rendered in base 10
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a generator for the given node number (0-1023)
func NewSnowflakeGenerator(node int64) (*SnowflakeGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &SnowflakeGenerator{node: n}, nil
}

// NewID implements Generator
func (g *SnowflakeGenerator) NewID() string {
	return g.node.Generate().String()
}

// New picks a generator by name: "uuid" or "snowflake"
func New(kind string, node int64) (Generator, error) {
	switch kind {
	case "", "uuid":
		return UUIDGenerator{}, nil
	case "snowflake":
		return NewSnowflakeGenerator(node)
	default:
		return nil, fmt.Errorf("unknown id generator %q", kind)
	}
}
