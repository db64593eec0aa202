package paf_test

import (
	"testing"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/encoding/paf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLine = "qry.chr1\t1000\t20\t26\t+\tref.chr1\t1000\t10\t15\t5\t6\t255\tcg:Z:4=1I1="

func TestParseRecord(t *testing.T) {
	r, err := paf.ParseRecord(sampleLine)
	require.NoError(t, err)
	assert.Equal(t, "qry.chr1", r.QueryName)
	assert.Equal(t, 1000, r.QueryLen)
	assert.Equal(t, align.Forward, r.Strand)
	assert.Equal(t, "ref.chr1", r.TargetName)
	assert.Equal(t, 255, r.MapQ)
	cig, err := r.Cigar()
	require.NoError(t, err)
	assert.Equal(t, "4=1I1=", cig.String())
}

func TestStringRoundTrip(t *testing.T) {
	r, err := paf.ParseRecord(sampleLine)
	require.NoError(t, err)
	assert.Equal(t, sampleLine, r.String())
}

func TestMissingCigar(t *testing.T) {
	line := "qry\t100\t0\t10\t+\tref\t100\t0\t10\t10\t10\t0"
	r, err := paf.ParseRecord(line)
	require.NoError(t, err)
	_, err = r.Cigar()
	assert.Equal(t, paf.ErrMissingCigar, err)
	_, err = r.ToNormalized()
	assert.Equal(t, paf.ErrMissingCigar, err)
}

func TestFromNormalized(t *testing.T) {
	r, err := paf.ParseRecord(sampleLine)
	require.NoError(t, err)
	norm, err := r.ToNormalized()
	require.NoError(t, err)
	back := paf.FromNormalized(norm)
	assert.Equal(t, r.Matches, back.Matches)
	assert.Equal(t, r.BlockLen, back.BlockLen)
	assert.Equal(t, 255, back.MapQ)
}
