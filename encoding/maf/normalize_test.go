package maf_test

import (
	"testing"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/encoding/maf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveCIGAR(t *testing.T) {
	ops := maf.DeriveCIGAR("ACGT-A", "ACGTTA")
	assert.Equal(t, "4=1I1=", ops.String())
}

func TestToNormalizedBasic(t *testing.T) {
	score := 100.0
	block := &align.MAFBlock{
		Score: &score,
		Lines: []align.MAFSeqLine{
			{Name: "ref.chr1", Start: 10, Size: 5, Strand: align.Forward, SrcSize: 1000, Seq: "ACGT-A"},
			{Name: "qry.chr1", Start: 20, Size: 6, Strand: align.Forward, SrcSize: 1000, Seq: "ACGTTA"},
		},
	}
	rec, err := maf.ToNormalized(block)
	require.NoError(t, err)
	assert.Equal(t, "ref.chr1", rec.TargetName)
	assert.Equal(t, 10, rec.TargetStart)
	assert.Equal(t, 15, rec.TargetEnd)
	assert.Equal(t, 20, rec.QueryStart)
	assert.Equal(t, 26, rec.QueryEnd)
	assert.Equal(t, "4=1I1=", rec.Cigar.String())
	require.NoError(t, rec.CheckSpans())
}

func TestToNormalizedReverseQuery(t *testing.T) {
	block := &align.MAFBlock{
		Lines: []align.MAFSeqLine{
			{Name: "ref.chr1", Start: 0, Size: 4, Strand: align.Forward, SrcSize: 100, Seq: "ACGT"},
			{Name: "qry.chr1", Start: 10, Size: 4, Strand: align.Reverse, SrcSize: 100, Seq: "ACGT"},
		},
	}
	rec, err := maf.ToNormalized(block)
	require.NoError(t, err)
	// SrcSize=100, MAF start=10 size=4 on reverse strand => reverse-origin
	// interval [10,14); forward-strand projection is [100-14, 100-10) = [86,90).
	assert.Equal(t, 86, rec.QueryStart)
	assert.Equal(t, 90, rec.QueryEnd)
}

func TestFromNormalizedRoundTrip(t *testing.T) {
	block := &align.MAFBlock{
		Lines: []align.MAFSeqLine{
			{Name: "ref.chr1", Start: 10, Size: 5, Strand: align.Forward, SrcSize: 1000, Seq: "ACGT-A"},
			{Name: "qry.chr1", Start: 20, Size: 6, Strand: align.Forward, SrcSize: 1000, Seq: "ACGTTA"},
		},
	}
	rec, err := maf.ToNormalized(block)
	require.NoError(t, err)

	back, err := maf.FromNormalized(rec, "ACGTA", "ACGTTA")
	require.NoError(t, err)
	assert.Equal(t, block.Lines[0].Seq, back.Lines[0].Seq)
	assert.Equal(t, block.Lines[1].Seq, back.Lines[1].Seq)
	assert.Equal(t, block.Lines[0].Start, back.Lines[0].Start)
	assert.Equal(t, block.Lines[1].Start, back.Lines[1].Start)
}

func TestToNormalizedTargetReverseRejected(t *testing.T) {
	block := &align.MAFBlock{
		Lines: []align.MAFSeqLine{
			{Name: "ref.chr1", Start: 0, Size: 4, Strand: align.Reverse, SrcSize: 100, Seq: "ACGT"},
			{Name: "qry.chr1", Start: 0, Size: 4, Strand: align.Forward, SrcSize: 100, Seq: "ACGT"},
		},
	}
	_, err := maf.ToNormalized(block)
	assert.Equal(t, maf.ErrTargetReverseStrand, err)
}
