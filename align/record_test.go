package align_test

import (
	"testing"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/cigar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrandProject(t *testing.T) {
	s, e := align.StrandProject(10, 15, 1000, align.Forward)
	assert.Equal(t, 10, s)
	assert.Equal(t, 15, e)

	s, e = align.StrandProject(10, 15, 1000, align.Reverse)
	assert.Equal(t, 985, s)
	assert.Equal(t, 990, e)
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "TGCA", align.ReverseComplement("TGCA"))
	assert.Equal(t, "T-CGT", align.ReverseComplement("ACG-A"))
	assert.Equal(t, "", align.ReverseComplement(""))
}

func TestCheckSpans(t *testing.T) {
	ops, err := cigar.Parse("4=1I1=")
	require.NoError(t, err)
	r := &align.Record{
		TargetStart: 10, TargetEnd: 15,
		QueryStart: 20, QueryEnd: 26,
		Cigar: ops,
	}
	assert.NoError(t, r.CheckSpans())

	r.QueryEnd = 25
	err = r.CheckSpans()
	assert.Error(t, err)
}
