package maf_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/encoding/maf"
	"github.com/aligntool/aligntool/iox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# header comment
a score=100
s ref.chr1 10 5 + 1000 ACGT-A
s qry.chr1 20 6 + 1000 ACGTTA
i qry.chr1 C 0 I 1

a score=50
s ref.chr1 20 4 + 1000 ACGT
s qry.chr1 30 4 - 1000 TGCA
`

func writeSample(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.maf")
	sink, err := iox.OpenWrite(path, false)
	require.NoError(t, err)
	_, err = sink.WriteString(sample)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	return path
}

func TestReadBlocks(t *testing.T) {
	path := writeSample(t)
	src, err := iox.OpenRead(path)
	require.NoError(t, err)
	defer src.Close()

	r := maf.NewReader(src)

	b1, err := r.ReadBlock()
	require.NoError(t, err)
	assert.Equal(t, []string{"# header comment"}, r.Header())
	require.Len(t, b1.Lines, 2)
	assert.Equal(t, "ref.chr1", b1.Lines[0].Name)
	assert.Equal(t, 5, b1.Lines[0].Size)
	assert.Equal(t, "ACGT-A", b1.Lines[0].Seq)
	require.Len(t, b1.Info, 1)
	assert.Equal(t, byte('C'), b1.Info[0].LeftStatus)

	b2, err := r.ReadBlock()
	require.NoError(t, err)
	assert.Equal(t, align.Reverse, b2.Lines[1].Strand)

	_, err = r.ReadBlock()
	assert.Equal(t, io.EOF, err)
}

func TestWriteRoundTrip(t *testing.T) {
	path := writeSample(t)
	src, err := iox.OpenRead(path)
	require.NoError(t, err)
	r := maf.NewReader(src)
	b1, err := r.ReadBlock()
	require.NoError(t, err)
	b2, err := r.ReadBlock()
	require.NoError(t, err)
	require.NoError(t, src.Close())

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.maf")
	sink, err := iox.OpenWrite(outPath, false)
	require.NoError(t, err)
	w := maf.NewWriter(sink)
	require.NoError(t, w.WriteBlock(b1))
	require.NoError(t, w.WriteBlock(b2))
	require.NoError(t, sink.Close())

	out2, err := iox.OpenRead(outPath)
	require.NoError(t, err)
	defer out2.Close()
	r2 := maf.NewReader(out2)
	rb1, err := r2.ReadBlock()
	require.NoError(t, err)
	assert.Equal(t, b1.Lines, rb1.Lines)
}
