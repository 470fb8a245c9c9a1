package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// IterationStream creates a deterministic generator for one Monte Carlo
	// iteration. Streams depend only on (baseSeed, iteration), never on run
	// identity, so a fixed seed reproduces a run bit-for-bit under any worker
	// count and across invocations.
	IterationStream(ctx context.Context, iteration int, baseSeed int64) (*rand.Rand, error)
}
