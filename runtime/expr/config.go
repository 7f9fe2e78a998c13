package expr

import (
	"fmt"

	"github.com/brimdata/openrec/rerr"
)

const DefaultMaxDepth = 64

type Config struct {
	// PruneEmpty makes remove_fields drop a nested record that it empties,
	// unless the output type declares that record as a closed field.
	PruneEmpty bool `yaml:"prune_empty"`
	// MaxDepth bounds the record nesting the operators will walk.
	MaxDepth int `yaml:"max_depth"`
}

func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth}
}

func (c Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive: %d", c.MaxDepth)
	}
	return nil
}

// CheckDepth fails with an UnsupportedShape error when depth exceeds the
// configured maximum.
func (c Config) CheckDepth(depth int) error {
	max := c.MaxDepth
	if max <= 0 {
		max = DefaultMaxDepth
	}
	if depth > max {
		return rerr.E(rerr.UnsupportedShape, "records nested deeper than %d", max)
	}
	return nil
}
