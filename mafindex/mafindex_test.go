package mafindex_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aligntool/aligntool/mafindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMAF = `##maf version=1
a score=100
s ref.chr1 0 10 + 1000 ACGTACGTAA
s qry.chr1 0 10 + 1000 ACGTAACGTA

a score=50
s ref.chr1 20 5 + 1000 ACGTA
s qry.chr1 5 5 + 1000 ACGTA
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "x.maf")
	require.NoError(t, os.WriteFile(path, []byte(sampleMAF), 0644))
	return path
}

func TestBuildAndQuery(t *testing.T) {
	path := writeSample(t)
	idx, err := mafindex.Build(path)
	require.NoError(t, err)
	require.Len(t, idx.Entries(), 2)

	e0 := idx.Entries()[0]
	assert.Equal(t, "ref.chr1", e0.Name)
	assert.Equal(t, 0, e0.Start)
	assert.Equal(t, 10, e0.End)

	hits := idx.Query("ref.chr1", 5, 8)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].Start)

	hits = idx.Query("ref.chr1", 22, 24)
	require.Len(t, hits, 1)
	assert.Equal(t, 20, hits[0].Start)

	assert.Nil(t, idx.Query("ref.chr1", 10, 20))
	assert.Nil(t, idx.Query("unknown", 0, 1))
	assert.Nil(t, idx.Query("ref.chr1", 5, 5))
}

func TestVerify(t *testing.T) {
	path := writeSample(t)
	idx, err := mafindex.Build(path)
	require.NoError(t, err)

	stale, err := mafindex.Verify(path, idx)
	require.NoError(t, err)
	assert.Empty(t, stale)

	// Corrupt a byte inside the first block, in place, without changing file
	// length, to simulate a stale index.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[idx.Entries()[0].Offset+5] = 'X'
	require.NoError(t, os.WriteFile(path, data, 0644))

	stale, err = mafindex.Verify(path, idx)
	require.NoError(t, err)
	assert.NotEmpty(t, stale)
}

func TestExtractClips(t *testing.T) {
	path := writeSample(t)
	idx, err := mafindex.Build(path)
	require.NoError(t, err)

	hits := idx.Query("ref.chr1", 2, 6)
	require.Len(t, hits, 1)

	block, err := mafindex.Extract(path, hits[0], 2, 6)
	require.NoError(t, err)
	require.Len(t, block.Lines, 2)
	assert.Equal(t, 2, block.Lines[0].Start)
	assert.Equal(t, 4, block.Lines[0].Size)
}
