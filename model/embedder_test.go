package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedEmbedderInitializesOnce(t *testing.T) {
	t.Setenv("EMBEDDING_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("EMBEDDING_MODEL", "all-minilm")

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Embedder, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = SharedEmbedder()
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NotNil(t, results[0])
	for i := 1; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.Same(t, results[0], results[i], "concurrent first use must share one instance")
	}
}
