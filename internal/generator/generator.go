// Package generator draws target words from word pools.
package generator

import (
	"math/rand"
	"time"
)

// Generator picks words uniformly at random.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pick returns a uniformly chosen word. Consecutive picks may repeat.
func (g *Generator) Pick(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[g.rnd.Intn(len(words))]
}
