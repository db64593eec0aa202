package variant_test

import (
	"testing"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/cigar"
	"github.com/aligntool/aligntool/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(tStart, tEnd, qStart, qEnd int, strand align.Strand, ops string) *align.Record {
	o, err := cigar.Parse(ops)
	if err != nil {
		panic(err)
	}
	return &align.Record{
		TargetName: "chr1", TargetLen: 1000, TargetStart: tStart, TargetEnd: tEnd,
		QueryName: "q1", QueryLen: 1000, QueryStart: qStart, QueryEnd: qEnd, QueryStrand: strand,
		Cigar: o,
	}
}

func TestCallRecordExactMatchNoVariants(t *testing.T) {
	r := rec(0, 10, 0, 10, align.Forward, "10=")
	vs := variant.CallRecord(r, "ACGTACGTAC", "ACGTACGTAC", variant.Options{})
	assert.Empty(t, vs)
}

func TestCallRecordSingleSNPViaMismatchOp(t *testing.T) {
	r := rec(0, 10, 0, 10, align.Forward, "4=1X5=")
	vs := variant.CallRecord(r, "ACGTACGTAC", "ACGTTCGTAC", variant.Options{})
	require.Len(t, vs, 1)
	assert.Equal(t, variant.SNP, vs[0].Kind)
	assert.Equal(t, 5, vs[0].Pos)
	assert.Equal(t, "A", vs[0].Ref)
	assert.Equal(t, "T", vs[0].Alt)
}

func TestCallRecordSNPViaAlnMatchOp(t *testing.T) {
	// "M" ops require base-by-base comparison; exercises the fixed per-column
	// ti/qi bookkeeping.
	r := rec(0, 10, 0, 10, align.Forward, "10M")
	vs := variant.CallRecord(r, "ACGTACGTAC", "ACGTTCGTAC", variant.Options{})
	require.Len(t, vs, 1)
	assert.Equal(t, variant.SNP, vs[0].Kind)
	assert.Equal(t, 5, vs[0].Pos)
	assert.Equal(t, "A", vs[0].Ref)
	assert.Equal(t, "T", vs[0].Alt)
}

func TestCallRecordTwoSeparatedSNPsViaAlnMatch(t *testing.T) {
	r := rec(0, 10, 0, 10, align.Forward, "10M")
	vs := variant.CallRecord(r, "AAAAAAAAAA", "ATAAATAAAA", variant.Options{})
	require.Len(t, vs, 2)
	assert.Equal(t, 2, vs[0].Pos)
	assert.Equal(t, 6, vs[1].Pos)
}

func TestCallRecordCoalesceMNV(t *testing.T) {
	r := rec(0, 10, 0, 10, align.Forward, "10M")
	vs := variant.CallRecord(r, "AAAAAAAAAA", "ATTAAAAAAA", variant.Options{CoalesceMNV: true})
	require.Len(t, vs, 1)
	assert.Equal(t, variant.SNP, vs[0].Kind)
	assert.Equal(t, 2, vs[0].Pos)
	assert.Equal(t, "AA", vs[0].Ref)
	assert.Equal(t, "TT", vs[0].Alt)
}

func TestCallRecordSuppressSNP(t *testing.T) {
	r := rec(0, 10, 0, 10, align.Forward, "4=1X5=")
	vs := variant.CallRecord(r, "ACGTACGTAC", "ACGTTCGTAC", variant.Options{SuppressSNP: true})
	assert.Empty(t, vs)
}

func TestCallRecordInsertion(t *testing.T) {
	r := rec(0, 8, 0, 10, align.Forward, "4=2I4=")
	vs := variant.CallRecord(r, "ACGTACGT", "ACGTTTACGT", variant.Options{})
	require.Len(t, vs, 1)
	assert.Equal(t, variant.INS, vs[0].Kind)
	assert.Equal(t, "T", vs[0].Ref)
	assert.Equal(t, "TTT", vs[0].Alt)
	assert.Equal(t, 2, vs[0].SVLen)
	assert.Equal(t, 4, vs[0].Pos)
}

func TestCallRecordDeletion(t *testing.T) {
	r := rec(0, 10, 0, 8, align.Forward, "4=2D4=")
	vs := variant.CallRecord(r, "ACGTGGACGT", "ACGTACGT", variant.Options{})
	require.Len(t, vs, 1)
	assert.Equal(t, variant.DEL, vs[0].Kind)
	assert.Equal(t, "TGG", vs[0].Ref)
	assert.Equal(t, "T", vs[0].Alt)
	assert.Equal(t, -2, vs[0].SVLen)
	assert.Equal(t, 4, vs[0].Pos)
}

func TestCallRecordSuppressShortIndel(t *testing.T) {
	r := rec(0, 8, 0, 10, align.Forward, "4=2I4=")
	vs := variant.CallRecord(r, "ACGTACGT", "ACGTTTACGT", variant.Options{SuppressShortIndel: true, MinSVLen: 10})
	assert.Empty(t, vs)
}

func TestCallRecordMinSVLenKeepsLargeIndel(t *testing.T) {
	r := rec(0, 4, 0, 20, align.Forward, "4=16I")
	vs := variant.CallRecord(r, "ACGT", "ACGT"+"TTTTTTTTTTTTTTTT", variant.Options{SuppressShortIndel: true, MinSVLen: 10})
	require.Len(t, vs, 1)
	assert.Equal(t, 16, vs[0].SVLen)
}

func TestDetectInversionsNestsContainedVariant(t *testing.T) {
	fwd := rec(0, 100, 0, 100, align.Forward, "100=")
	rev := rec(20, 60, 0, 40, align.Reverse, "40=")

	snp := &variant.Variant{Chrom: "chr1", Pos: 31, Kind: variant.SNP}
	fwdVariants := []*variant.Variant{snp}

	invs := variant.DetectInversions([]*align.Record{fwd, rev}, [][]*variant.Variant{fwdVariants, nil})
	require.Len(t, invs, 1)
	assert.Equal(t, variant.INV, invs[0].Kind)
	assert.Equal(t, 21, invs[0].Pos)
}

func TestMergeSortedKWayMerge(t *testing.T) {
	a := []*variant.Variant{{Chrom: "chr1", Pos: 10}, {Chrom: "chr1", Pos: 30}}
	b := []*variant.Variant{{Chrom: "chr1", Pos: 20}, {Chrom: "chr2", Pos: 5}}
	merged := variant.MergeSorted([][]*variant.Variant{a, b})
	require.Len(t, merged, 4)
	assert.Equal(t, "chr1", merged[0].Chrom)
	assert.Equal(t, 10, merged[0].Pos)
	assert.Equal(t, 20, merged[1].Pos)
	assert.Equal(t, 30, merged[2].Pos)
	assert.Equal(t, "chr2", merged[3].Chrom)
}
