package aux_test

import (
	"testing"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/auxpass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSplitsOnColumnBoundary(t *testing.T) {
	b := &align.MAFBlock{
		Lines: []align.MAFSeqLine{
			{Name: "ref", Start: 100, Size: 10, Strand: align.Forward, SrcSize: 1000, Seq: "ACGTACGTAA"},
			{Name: "qry", Start: 200, Size: 10, Strand: align.Forward, SrcSize: 1000, Seq: "ACGTAACGTA"},
		},
	}
	chunks := aux.Chunk(b, 4)
	require.Len(t, chunks, 3)

	assert.Equal(t, 100, chunks[0].Lines[0].Start)
	assert.Equal(t, "ACGT", chunks[0].Lines[0].Seq)
	assert.Equal(t, 4, chunks[0].Lines[0].Size)

	assert.Equal(t, 104, chunks[1].Lines[0].Start)
	assert.Equal(t, "ACGT", chunks[1].Lines[0].Seq)

	assert.Equal(t, 108, chunks[2].Lines[0].Start)
	assert.Equal(t, "AA", chunks[2].Lines[0].Seq)
	assert.Equal(t, 2, chunks[2].Lines[0].Size)
}

func TestChunkNoSplitWhenUnderLimit(t *testing.T) {
	b := &align.MAFBlock{
		Lines: []align.MAFSeqLine{
			{Name: "ref", Seq: "ACGT"},
			{Name: "qry", Seq: "ACGT"},
		},
	}
	chunks := aux.Chunk(b, 10)
	require.Len(t, chunks, 1)
	assert.Same(t, b, chunks[0])
}
