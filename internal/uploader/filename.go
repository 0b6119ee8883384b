package uploader

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	filenameCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	filenameLength  = 10
)

// FilenameGenerator produces fallback names for uploads that arrive without
// a client supplied filename.
type FilenameGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFilenameGenerator creates a generator reading from src. A nil src
// uses a PCG source seeded once for the process.
func NewFilenameGenerator(src rand.Source) *FilenameGenerator {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>32|seed<<32)
	}
	return &FilenameGenerator{rng: rand.New(src)}
}

// Generate returns a 10 character alphanumeric string.
func (g *FilenameGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	result := make([]byte, filenameLength)
	for i := range result {
		result[i] = filenameCharset[g.rng.IntN(len(filenameCharset))]
	}
	return string(result)
}
