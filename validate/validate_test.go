package validate_test

import (
	"testing"

	"github.com/aligntool/aligntool/encoding/paf"
	"github.com/aligntool/aligntool/iox"
	"github.com/aligntool/aligntool/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S2 of spec §8: qStart=100 qEnd=150, cg:Z:40=2I8=, consuming query 50.
func validRecord(t *testing.T) *paf.Record {
	t.Helper()
	r, err := paf.ParseRecord("qry\t1000\t100\t150\t+\tref\t1000\t0\t48\t48\t50\t255\tcg:Z:40=2I8=\n")
	require.NoError(t, err)
	return r
}

func TestCheckValidRecord(t *testing.T) {
	r := validRecord(t)
	res, err := validate.Check(r)
	require.NoError(t, err)
	assert.False(t, res.Invalid())
}

func TestCheckQueryInvalid(t *testing.T) {
	// cg:Z:40=2I7= consumes query 49, but header declares qEnd=150 (span 50).
	r, err := paf.ParseRecord("qry\t1000\t100\t150\t+\tref\t1000\t0\t47\t47\t49\t255\tcg:Z:40=2I7=\n")
	require.NoError(t, err)
	res, err := validate.Check(r)
	require.NoError(t, err)
	assert.True(t, res.QueryInvalid)
	assert.False(t, res.TargetInvalid)
	assert.Equal(t, 149, res.WantQueryEnd)
}

func TestFixRewritesSpan(t *testing.T) {
	r, err := paf.ParseRecord("qry\t1000\t100\t150\t+\tref\t1000\t0\t47\t47\t49\t255\tcg:Z:40=2I7=\n")
	require.NoError(t, err)
	res, err := validate.Check(r)
	require.NoError(t, err)
	validate.Fix(res)
	assert.Equal(t, 149, r.QueryEnd)

	// idempotent: checking/fixing again makes no further change.
	res2, err := validate.Check(r)
	require.NoError(t, err)
	assert.False(t, res2.Invalid())
	validate.Fix(res2)
	assert.Equal(t, 149, r.QueryEnd)
}

func TestRunAggregatesSummary(t *testing.T) {
	content := "qry\t1000\t100\t150\t+\tref\t1000\t0\t48\t48\t50\t255\tcg:Z:40=2I8=\n" +
		"qry\t1000\t100\t150\t+\tref\t1000\t0\t47\t47\t49\t255\tcg:Z:40=2I7=\n"
	path := t.TempDir() + "/in.paf"
	sink, err := iox.OpenWrite(path, false)
	require.NoError(t, err)
	_, err = sink.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	src, err := iox.OpenRead(path)
	require.NoError(t, err)
	defer src.Close()

	var results []validate.Result
	sum, err := validate.Run(paf.NewReader(src), nil, func(r validate.Result) { results = append(results, r) })
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 0, sum.TargetInvalid)
	assert.Equal(t, 1, sum.QueryInvalid)
	assert.Len(t, results, 2)
}
