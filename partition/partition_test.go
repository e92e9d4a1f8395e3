package partition

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunlightlabs/cluster-explorer/edgefile"
)

func newPartition(t *testing.T, values ...int32) *Partition {
	p, err := New(values)
	require.NoError(t, err)
	return p
}

func sameClass(t *testing.T, p *Partition, a, b int32) bool {
	ra, err := p.FindByValue(a)
	require.NoError(t, err)
	rb, err := p.FindByValue(b)
	require.NoError(t, err)
	return ra == rb
}

func writeEdges(t *testing.T, pairs ...edgefile.Pair) string {
	path := filepath.Join(t.TempDir(), "edges.lz4")
	require.NoError(t, edgefile.WriteFile(path, pairs))
	return path
}

func TestNewPartition(t *testing.T) {
	values := []int32{5, 3, 9, -1}
	p := newPartition(t, values...)
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, 4, p.Count())
	for i, v := range values {
		root, err := p.FindByValue(v)
		require.NoError(t, err)
		assert.Equal(t, i, root)
		again, err := p.FindByValue(v)
		require.NoError(t, err)
		assert.Equal(t, root, again)
		assert.Equal(t, i, p.Find(i))
	}

	// The partition keeps its own copy.
	values[0] = 100
	assert.Equal(t, []int32{5, 3, 9, -1}, p.Values())
}

func TestNewPartitionDuplicate(t *testing.T) {
	_, err := New([]int32{1, 2, 1})
	require.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestMerge(t *testing.T) {
	p := newPartition(t, 1, 2, 3, 4, 5)
	require.NoError(t, p.Merge(1, 2))
	assert.True(t, sameClass(t, p, 1, 2))
	assert.False(t, sameClass(t, p, 1, 3))
	assert.Equal(t, 4, p.Count())

	// Transitivity.
	require.NoError(t, p.Merge(2, 3))
	assert.True(t, sameClass(t, p, 1, 3))
	assert.Equal(t, 3, p.Count())

	// Idempotence.
	before := p.Sets()
	require.NoError(t, p.Merge(1, 2))
	require.NoError(t, p.Merge(3, 1))
	assert.Equal(t, before, p.Sets())

	// Self merge is a no-op.
	require.NoError(t, p.Merge(5, 5))
	assert.Equal(t, before, p.Sets())
}

func TestMergeOrderInsensitive(t *testing.T) {
	p1 := newPartition(t, 1, 2, 3, 4, 5, 6)
	require.NoError(t, p1.Merge(1, 2))
	require.NoError(t, p1.Merge(3, 4))

	p2 := newPartition(t, 1, 2, 3, 4, 5, 6)
	require.NoError(t, p2.Merge(3, 4))
	require.NoError(t, p2.Merge(1, 2))

	assert.Equal(t, p1.Sets(), p2.Sets())
	assert.Equal(t, [][]int32{{1, 2}, {3, 4}, {5}, {6}}, p1.Sets())
}

func TestMergeUnknown(t *testing.T) {
	p := newPartition(t, 1, 2, 3)
	err := p.Merge(1, 4)
	require.ErrorIs(t, err, ErrUnknownIdentifier)
	err = p.Merge(4, 1)
	require.ErrorIs(t, err, ErrUnknownIdentifier)
	assert.Equal(t, 3, p.Count())

	_, err = p.FindByValue(42)
	require.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = p.Representative(42)
	require.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = p.Group(42)
	require.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestQueries(t *testing.T) {
	p := newPartition(t, 10, 20, 30, 40, 50)
	require.NoError(t, p.Merge(10, 20))
	require.NoError(t, p.Merge(40, 20))

	group, err := p.Group(40)
	require.NoError(t, err)
	assert.Equal(t, []int32{10, 20, 40}, group)

	rep, err := p.Representative(40)
	require.NoError(t, err)
	assert.Equal(t, int32(10), rep)

	assert.Equal(t, map[int32]int{10: 3, 30: 1, 50: 1}, p.SetSizes())
	assert.Equal(t, [][]int32{{10, 20, 40}, {30}, {50}}, p.Sets())
}

func TestMergeFromFile(t *testing.T) {
	p := newPartition(t, 10, 20, 30, 40)
	path := writeEdges(t, edgefile.Pair{A: 10, B: 20}, edgefile.Pair{A: 30, B: 40})
	require.NoError(t, p.MergeFromFile(path))
	assert.Equal(t, [][]int32{{10, 20}, {30, 40}}, p.Sets())

	require.NoError(t, p.Merge(20, 30))
	assert.Equal(t, [][]int32{{10, 20, 30, 40}}, p.Sets())
	assert.Equal(t, 1, p.Count())
}

func TestMergeFromHandcraftedFile(t *testing.T) {
	payload := make([]byte, 16)
	for i, v := range []int32{10, 20, 30, 40} {
		binary.LittleEndian.PutUint32(payload[4*i:], uint32(v))
	}
	data := []byte{16, 0, 0, 0, 0xf0, 1}
	data = append(data, payload...)
	path := filepath.Join(t.TempDir(), "edges.lz4")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p := newPartition(t, 10, 20, 30, 40)
	require.NoError(t, p.MergeFromFile(path))
	assert.Equal(t, [][]int32{{10, 20}, {30, 40}}, p.Sets())
}

func TestMergeFromFileMisaligned(t *testing.T) {
	// 12 literal bytes: one and a half records.
	data := []byte{12, 0, 0, 0, 0xc0}
	data = append(data, bytes.Repeat([]byte{1, 0, 0, 0}, 3)...)
	path := filepath.Join(t.TempDir(), "edges.lz4")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p := newPartition(t, 1, 2, 3)
	require.NoError(t, p.Merge(2, 3))
	before := p.Sets()
	err := p.MergeFromFile(path)
	require.ErrorIs(t, err, ErrTruncatedStream)
	assert.Equal(t, before, p.Sets())
	assert.Equal(t, 2, p.Count())
}

func TestMergeFromFileUnreadable(t *testing.T) {
	p := newPartition(t, 1, 2)
	err := p.MergeFromFile(filepath.Join(t.TempDir(), "missing.lz4"))
	require.ErrorIs(t, err, ErrUnreadableFile)
	assert.Equal(t, 2, p.Count())
}

func TestMergeFileAbortOnUnknown(t *testing.T) {
	p := newPartition(t, 1, 2, 3, 4)
	path := writeEdges(t,
		edgefile.Pair{A: 1, B: 2},
		edgefile.Pair{A: 3, B: 99},
		edgefile.Pair{A: 3, B: 4},
	)
	stats, err := p.MergeFile(path, IngestOptions{OnUnknown: AbortOnUnknown})
	require.ErrorIs(t, err, ErrUnknownIdentifier)
	assert.Contains(t, err.Error(), "pair 1")
	assert.Equal(t, IngestStats{}, stats)
	assert.Equal(t, 4, p.Count())
	assert.False(t, sameClass(t, p, 1, 2))
}

func TestMergeFileSkipUnknown(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	p := newPartition(t, 1, 2, 3, 4)
	path := writeEdges(t,
		edgefile.Pair{A: 1, B: 2},
		edgefile.Pair{A: 3, B: 99},
		edgefile.Pair{A: -5, B: 4},
		edgefile.Pair{A: 3, B: 4},
		edgefile.Pair{A: 2, B: 1},
	)
	stats, err := p.MergeFile(path, IngestOptions{
		OnUnknown: SkipUnknown,
		Logger:    logger,
	})
	require.NoError(t, err)
	assert.Equal(t, IngestStats{Pairs: 5, Merged: 2, Skipped: 2}, stats)
	assert.Equal(t, [][]int32{{1, 2}, {3, 4}}, p.Sets())

	require.Len(t, hook.AllEntries(), 2)
	entry := hook.AllEntries()[0]
	assert.Equal(t, "skipping edge", entry.Message)
	assert.Equal(t, 1, entry.Data["pair"])
	assert.Equal(t, int32(99), entry.Data["right"])
}

func TestIngestInvalidPolicy(t *testing.T) {
	p := newPartition(t, 1, 2)
	data, err := edgefile.NewWriter().Bytes()
	require.NoError(t, err)
	r, err := edgefile.Decode(data)
	require.NoError(t, err)
	_, err = p.Ingest(r, IngestOptions{OnUnknown: UnknownPolicy(7)})
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	p := newPartition(t, 1, 2)
	require.NoError(t, p.Merge(1, 2))
	p.Close()
	assert.Equal(t, 0, p.Len())
	_, err := p.FindByValue(1)
	require.ErrorIs(t, err, ErrUnknownIdentifier)
	require.ErrorIs(t, p.Merge(1, 2), ErrUnknownIdentifier)
	assert.Empty(t, p.Sets())
}

func TestLargeChainOfMerges(t *testing.T) {
	const count = 100000
	values := make([]int32, count)
	for i := range values {
		values[i] = int32(i * 3)
	}
	p := newPartition(t, values...)
	w := edgefile.NewWriter()
	for i := count - 1; i > 0; i-- {
		w.Add(values[i], values[i-1])
	}
	data, err := w.Bytes()
	require.NoError(t, err)
	r, err := edgefile.Decode(data)
	require.NoError(t, err)
	stats, err := p.Ingest(r, IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, count-1, stats.Merged)
	assert.Equal(t, 1, p.Count())
	assert.True(t, sameClass(t, p, 0, int32((count-1)*3)))
}
