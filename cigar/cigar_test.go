package cigar_test

import (
	"testing"

	"github.com/aligntool/aligntool/cigar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want cigar.Ops
	}{
		{"", cigar.Ops{}},
		{"4=", cigar.Ops{{Kind: cigar.Match, Len: 4}}},
		{"4=1I1=", cigar.Ops{
			{Kind: cigar.Match, Len: 4},
			{Kind: cigar.Insertion, Len: 1},
			{Kind: cigar.Match, Len: 1},
		}},
		{"10M2D3M", cigar.Ops{
			{Kind: cigar.AlnMatch, Len: 10},
			{Kind: cigar.Deletion, Len: 2},
			{Kind: cigar.AlnMatch, Len: 3},
		}},
	} {
		got, err := cigar.Parse(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.in, got.String())
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"M", "4", "0=", "4Q", "-4="} {
		_, err := cigar.Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestSpans(t *testing.T) {
	ops, err := cigar.Parse("5=1X3=2I4=1D3=")
	require.NoError(t, err)
	assert.Equal(t, 5+1+3+4+1+3, ops.TargetSpan())
	assert.Equal(t, 5+1+3+2+4+3, ops.QuerySpan())
}

func TestCursorAdvance(t *testing.T) {
	ops, err := cigar.Parse("4=1I1=")
	require.NoError(t, err)
	c := cigar.NewCursor(10, 20)
	var tBegins, qBegins []int
	for _, o := range ops {
		tb, qb := c.Advance(o)
		tBegins = append(tBegins, tb)
		qBegins = append(qBegins, qb)
	}
	assert.Equal(t, []int{10, 14, 14}, tBegins)
	assert.Equal(t, []int{20, 24, 25}, qBegins)
	assert.Equal(t, 15, c.TPos)
	assert.Equal(t, 26, c.QPos)
}

func TestRenormalize(t *testing.T) {
	ops, err := cigar.Parse("4=1X3=2I4=")
	require.NoError(t, err)
	got := cigar.Renormalize(ops)
	want, err := cigar.Parse("8M2I4M")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, cigar.Validate(cigar.Ops{{Kind: cigar.Match, Len: 1}}))
	assert.Error(t, cigar.Validate(cigar.Ops{{Kind: cigar.Match, Len: 0}}))
	assert.Error(t, cigar.Validate(cigar.Ops{{Kind: 'Z', Len: 1}}))
}
