package indexer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"docchat/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns a fixed-dimension vector and fails for segments
// containing failOn.
type stubEmbedder struct {
	failOn string
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, fmt.Errorf("embedding unavailable")
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

// memoryIndex is a brute-force in-memory VectorIndex scoped by session id.
type memoryIndex struct {
	mu       sync.Mutex
	segments map[string]types.Segment
	failOn   string
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{segments: make(map[string]types.Segment)}
}

func (m *memoryIndex) Upsert(_ context.Context, seg types.Segment) error {
	if m.failOn != "" && strings.Contains(seg.Content, m.failOn) {
		return fmt.Errorf("index unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.segments[seg.ID] = seg
	return nil
}

func (m *memoryIndex) Search(_ context.Context, vector []float32, topK int, sessionID string) ([]types.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []types.Match
	for _, seg := range m.segments {
		if seg.SessionID != sessionID {
			continue
		}
		var score float64
		for i := range vector {
			if i < len(seg.Embedding) {
				score += float64(vector[i]) * float64(seg.Embedding[i])
			}
		}
		matches = append(matches, types.Match{
			ID:        seg.ID,
			SessionID: seg.SessionID,
			Position:  seg.Position,
			Content:   seg.Content,
			Score:     score,
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func passthroughExtract(data []byte) (string, error) {
	return string(data), nil
}

func newTestIndexer(t *testing.T, index *memoryIndex, embedder *stubEmbedder) *Indexer {
	t.Helper()
	ix, err := New(embedder, index, Config{
		SegmentWidth: 10,
		Workers:      2,
		Extract:      passthroughExtract,
	})
	require.NoError(t, err)
	t.Cleanup(ix.Release)
	return ix
}

func TestIndexWritesAllSegments(t *testing.T) {
	index := newMemoryIndex()
	ix := newTestIndexer(t, index, &stubEmbedder{})

	doc := []byte(strings.Repeat("0123456789", 4)) // 4 segments of width 10
	report, text, err := ix.Index(context.Background(), "sess-a", doc)
	require.NoError(t, err)

	assert.Equal(t, string(doc), text)
	assert.Equal(t, Report{Indexed: 4, Failed: 0}, report)

	for i := 0; i < 4; i++ {
		seg, ok := index.segments[fmt.Sprintf("sess-a-%d", i)]
		require.True(t, ok, "segment %d missing", i)
		assert.Equal(t, "sess-a", seg.SessionID)
		assert.Equal(t, i, seg.Position)
		assert.Equal(t, "0123456789", seg.Content)
		assert.Len(t, seg.Embedding, 3)
	}
}

func TestIndexEmptyDocumentStillIndexesOneSegment(t *testing.T) {
	index := newMemoryIndex()
	ix := newTestIndexer(t, index, &stubEmbedder{})

	report, _, err := ix.Index(context.Background(), "sess-empty", nil)
	require.NoError(t, err)
	assert.Equal(t, Report{Indexed: 1}, report)

	matches, err := index.Search(context.Background(), []float32{0, 0, 0}, 1, "sess-empty")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestIndexPartialFailureContinues(t *testing.T) {
	index := newMemoryIndex()
	ix := newTestIndexer(t, index, &stubEmbedder{failOn: "BADSEGMENT"})

	doc := []byte("aaaaaaaaaa" + "BADSEGMENT" + "cccccccccc")
	report, _, err := ix.Index(context.Background(), "sess-b", doc)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 1, report.Failed)
	_, ok := index.segments["sess-b-1"]
	assert.False(t, ok, "failed segment must not be written")
	_, ok = index.segments["sess-b-2"]
	assert.True(t, ok, "later segments still indexed")
}

func TestIndexUpsertFailureCounted(t *testing.T) {
	index := newMemoryIndex()
	index.failOn = "BADSEGMENT"
	ix := newTestIndexer(t, index, &stubEmbedder{})

	doc := []byte("aaaaaaaaaa" + "BADSEGMENT")
	report, _, err := ix.Index(context.Background(), "sess-c", doc)
	require.NoError(t, err)
	assert.Equal(t, Report{Indexed: 1, Failed: 1}, report)
}

func TestIndexExtractionFailureIsTerminal(t *testing.T) {
	index := newMemoryIndex()
	embedder := &stubEmbedder{}
	ix, err := New(embedder, index, Config{
		Extract: func([]byte) (string, error) { return "", fmt.Errorf("not a pdf") },
	})
	require.NoError(t, err)
	t.Cleanup(ix.Release)

	_, _, err = ix.Index(context.Background(), "sess-d", []byte("garbage"))
	require.Error(t, err)
	assert.Empty(t, index.segments, "no segments written on extraction failure")
}

func TestSearchScopedBySession(t *testing.T) {
	index := newMemoryIndex()
	ix := newTestIndexer(t, index, &stubEmbedder{})

	_, _, err := ix.Index(context.Background(), "sess-a", []byte("document one"))
	require.NoError(t, err)
	_, _, err = ix.Index(context.Background(), "sess-b", []byte("document two"))
	require.NoError(t, err)

	matches, err := index.Search(context.Background(), []float32{0, 0, 0}, 10, "sess-a")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Equal(t, "sess-a", m.SessionID)
	}

	// unknown session id: nothing, i.e. "not ready"
	matches, err = index.Search(context.Background(), []float32{0, 0, 0}, 1, "sess-unknown")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
