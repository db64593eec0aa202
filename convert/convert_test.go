package convert_test

import (
	"strings"
	"testing"

	"github.com/aligntool/aligntool/convert"
	"github.com/aligntool/aligntool/encoding/chain"
	"github.com/aligntool/aligntool/encoding/maf"
	"github.com/aligntool/aligntool/encoding/paf"
	"github.com/aligntool/aligntool/fetcher"
	"github.com/aligntool/aligntool/iox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Modeled on S1 of spec §8's testable-properties section, with the query
// line's declared size corrected to match its (gapless) sequence's actual
// ungapped length of 6, as invariant 2 of spec §8 requires.
const s1MAF = `a score=100
s ref.chr1 10 5 + 1000 ACGT-A
s qry.chr1 20 6 + 1000 ACGTTA
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := t.TempDir() + "/" + name
	sink, err := iox.OpenWrite(path, false)
	require.NoError(t, err)
	_, err = sink.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	return path
}

func TestMAF2PAFBasic(t *testing.T) {
	mafPath := writeTemp(t, "in.maf", s1MAF)
	pafPath := t.TempDir() + "/out.paf"

	src, err := iox.OpenRead(mafPath)
	require.NoError(t, err)
	defer src.Close()
	sink, err := iox.OpenWrite(pafPath, false)
	require.NoError(t, err)

	require.NoError(t, convert.MAF2PAF(maf.NewReader(src), paf.NewWriter(sink), 2))
	require.NoError(t, sink.Close())

	out, err := iox.OpenRead(pafPath)
	require.NoError(t, err)
	defer out.Close()
	line, err := out.Next()
	require.NoError(t, err)
	assert.Equal(t, "qry.chr1\t1000\t20\t26\t+\tref.chr1\t1000\t10\t15\t5\t6\t255\tcg:Z:4=1I1=", line)
}

func TestMAF2ChainAndBack(t *testing.T) {
	mafPath := writeTemp(t, "in.maf", s1MAF)
	chainPath := t.TempDir() + "/out.chain"

	src, err := iox.OpenRead(mafPath)
	require.NoError(t, err)
	sink, err := iox.OpenWrite(chainPath, false)
	require.NoError(t, err)
	require.NoError(t, convert.MAF2Chain(maf.NewReader(src), chain.NewWriter(sink), 1))
	require.NoError(t, sink.Close())
	require.NoError(t, src.Close())

	csrc, err := iox.OpenRead(chainPath)
	require.NoError(t, err)
	defer csrc.Close()
	c, err := chain.NewReader(csrc).ReadChain()
	require.NoError(t, err)
	require.NoError(t, c.CheckSpans())
	assert.Equal(t, "ref.chr1", c.TargetName)
	assert.Equal(t, "qry.chr1", c.QueryName)
}

func TestPAF2MAFRequiresFetcher(t *testing.T) {
	pafLine := "qry.chr1\t1000\t20\t26\t+\tref.chr1\t1000\t10\t15\t5\t6\t255\tcg:Z:4=1I1=\n"
	pafPath := writeTemp(t, "in.paf", pafLine)
	mafPath := t.TempDir() + "/out.maf"

	src, err := iox.OpenRead(pafPath)
	require.NoError(t, err)
	defer src.Close()
	sink, err := iox.OpenWrite(mafPath, false)
	require.NoError(t, err)

	targetFasta := ">ref.chr1\n" + strings.Repeat("N", 10) + "ACGTA" + strings.Repeat("N", 985) + "\n"
	queryFasta := ">qry.chr1\n" + strings.Repeat("N", 20) + "ACGTTA" + strings.Repeat("N", 974) + "\n"
	tf, err := fetcher.NewInMemory(strings.NewReader(targetFasta))
	require.NoError(t, err)
	qf, err := fetcher.NewInMemory(strings.NewReader(queryFasta))
	require.NoError(t, err)

	require.NoError(t, convert.PAF2MAF(paf.NewReader(src), maf.NewWriter(sink), tf, qf, 1))
	require.NoError(t, sink.Close())

	out, err := iox.OpenRead(mafPath)
	require.NoError(t, err)
	defer out.Close()
	block, err := maf.NewReader(out).ReadBlock()
	require.NoError(t, err)
	assert.Equal(t, "ref.chr1", block.Lines[0].Name)
	assert.Equal(t, 10, block.Lines[0].Start)
	assert.Equal(t, "qry.chr1", block.Lines[1].Name)
}

func TestPAF2ChainAndChain2PAFRoundTrip(t *testing.T) {
	pafLine := "qry.chr1\t1000\t20\t26\t+\tref.chr1\t1000\t10\t15\t5\t6\t255\tcg:Z:4=1I1=\n"
	pafPath := writeTemp(t, "in.paf", pafLine)
	chainPath := t.TempDir() + "/mid.chain"
	outPafPath := t.TempDir() + "/out.paf"

	src, err := iox.OpenRead(pafPath)
	require.NoError(t, err)
	sink, err := iox.OpenWrite(chainPath, false)
	require.NoError(t, err)
	require.NoError(t, convert.PAF2Chain(paf.NewReader(src), chain.NewWriter(sink), 1))
	require.NoError(t, sink.Close())
	require.NoError(t, src.Close())

	csrc, err := iox.OpenRead(chainPath)
	require.NoError(t, err)
	osink, err := iox.OpenWrite(outPafPath, false)
	require.NoError(t, err)
	require.NoError(t, convert.Chain2PAF(chain.NewReader(csrc), paf.NewWriter(osink), 1))
	require.NoError(t, osink.Close())
	require.NoError(t, csrc.Close())

	out, err := iox.OpenRead(outPafPath)
	require.NoError(t, err)
	defer out.Close()
	line, err := out.Next()
	require.NoError(t, err)
	r, err := paf.ParseRecord(line)
	require.NoError(t, err)
	assert.Equal(t, 10, r.TargetStart)
	assert.Equal(t, 15, r.TargetEnd)
	assert.Equal(t, 20, r.QueryStart)
	assert.Equal(t, 26, r.QueryEnd)
}
