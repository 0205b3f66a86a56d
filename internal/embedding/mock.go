package embedding

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/quorumlabs/quorum/internal/vecmath"
)

// MockClient is a deterministic embedding client for tests and offline runs.
// It hashes each token into a dimension bucket, so identical texts always map
// to identical unit vectors and overlapping texts land near each other.
type MockClient struct {
	dim int

	// Call tracking for assertions
	EmbedCalls []string
}

func NewMockClient(dim int) *MockClient {
	if dim <= 0 {
		dim = 256
	}
	return &MockClient{dim: dim}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.EmbedCalls = append(c.EmbedCalls, text)

	vec := make([]float32, c.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%c.dim]++
	}
	return vecmath.Normalize(vec), nil
}
