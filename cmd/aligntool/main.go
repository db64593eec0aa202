// Command aligntool is the CLI surface of spec §6: format converters, the
// MAF index builder/extractor, the variant caller, the PAF validator, and
// the auxiliary MAF/PAF passes, dispatched via v.io/x/lib/cmdline the same
// way cmd/bio-pamtool/cmd does.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"v.io/x/lib/cmdline"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/auxpass"
	"github.com/aligntool/aligntool/convert"
	"github.com/aligntool/aligntool/encoding/chain"
	"github.com/aligntool/aligntool/encoding/maf"
	"github.com/aligntool/aligntool/encoding/paf"
	"github.com/aligntool/aligntool/fetcher"
	"github.com/aligntool/aligntool/iox"
	"github.com/aligntool/aligntool/mafindex"
	"github.com/aligntool/aligntool/validate"
	"github.com/aligntool/aligntool/variant"
)

// ioFlags holds the global -o/-r/-t flags common to every data-moving
// subcommand (spec §6 "Global flags").
type ioFlags struct {
	out     *string
	rewrite *bool
	threads *int
}

func addIOFlags(cmd *cmdline.Command) ioFlags {
	return ioFlags{
		out:     cmd.Flags.String("o", "-", `Output path, or "-" for stdout`),
		rewrite: cmd.Flags.Bool("r", false, "Allow overwriting an existing output file"),
		threads: cmd.Flags.Int("t", 1, "Worker threads"),
	}
}

func (f ioFlags) openSink() (*iox.Sink, error) {
	return iox.OpenWrite(*f.out, *f.rewrite)
}

func openFetcher(path string) (fetcher.Fetcher, error) {
	src, err := iox.OpenRead(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	var fasta strings.Builder
	for {
		line, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		fasta.WriteString(line)
		fasta.WriteByte('\n')
	}
	return fetcher.NewInMemory(strings.NewReader(fasta.String()))
}

func newConverterCmd(name, short string, run func(argv []string, iof ioFlags) error) *cmdline.Command {
	cmd := &cmdline.Command{Name: name, Short: short, ArgsName: "input-path"}
	iof := addIOFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("%s takes one input path, got %v", name, argv)
		}
		return run(argv, iof)
	})
	return cmd
}

func newCmdMAF2PAF() *cmdline.Command {
	return newConverterCmd("maf2paf", "Convert MAF to PAF", func(argv []string, iof ioFlags) error {
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		return convert.MAF2PAF(maf.NewReader(src), paf.NewWriter(sink), *iof.threads)
	})
}

func newCmdMAF2Chain() *cmdline.Command {
	return newConverterCmd("maf2chain", "Convert MAF to CHAIN", func(argv []string, iof ioFlags) error {
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		return convert.MAF2Chain(maf.NewReader(src), chain.NewWriter(sink), *iof.threads)
	})
}

func newCmdPAF2Chain() *cmdline.Command {
	return newConverterCmd("paf2chain", "Convert PAF to CHAIN", func(argv []string, iof ioFlags) error {
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		return convert.PAF2Chain(paf.NewReader(src), chain.NewWriter(sink), *iof.threads)
	})
}

func newCmdChain2PAF() *cmdline.Command {
	return newConverterCmd("chain2paf", "Convert CHAIN to PAF", func(argv []string, iof ioFlags) error {
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		return convert.Chain2PAF(chain.NewReader(src), paf.NewWriter(sink), *iof.threads)
	})
}

// newFetcherConverterCmd builds paf2maf/chain2maf, both of which need a
// target and a query multi-FASTA to materialize MAF's gapped bases.
func newFetcherConverterCmd(name, short string, run func(argv []string, iof ioFlags, tf, qf fetcher.Fetcher) error) *cmdline.Command {
	cmd := &cmdline.Command{Name: name, Short: short, ArgsName: "input-path"}
	iof := addIOFlags(cmd)
	targetFasta := cmd.Flags.String("target", "", "Target multi-FASTA path (required)")
	queryFasta := cmd.Flags.String("query", "", "Query multi-FASTA path (required)")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("%s takes one input path, got %v", name, argv)
		}
		if *targetFasta == "" || *queryFasta == "" {
			return fmt.Errorf("%s requires --target and --query", name)
		}
		tf, err := openFetcher(*targetFasta)
		if err != nil {
			return err
		}
		qf, err := openFetcher(*queryFasta)
		if err != nil {
			return err
		}
		return run(argv, iof, tf, qf)
	})
	return cmd
}

func newCmdPAF2MAF() *cmdline.Command {
	return newFetcherConverterCmd("paf2maf", "Convert PAF to MAF", func(argv []string, iof ioFlags, tf, qf fetcher.Fetcher) error {
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		w := maf.NewWriter(sink)
		if err := w.WriteHeader([]string{"##maf version=1"}); err != nil {
			return err
		}
		return convert.PAF2MAF(paf.NewReader(src), w, tf, qf, *iof.threads)
	})
}

func newCmdChain2MAF() *cmdline.Command {
	return newFetcherConverterCmd("chain2maf", "Convert CHAIN to MAF", func(argv []string, iof ioFlags, tf, qf fetcher.Fetcher) error {
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		w := maf.NewWriter(sink)
		if err := w.WriteHeader([]string{"##maf version=1"}); err != nil {
			return err
		}
		return convert.Chain2MAF(chain.NewReader(src), w, tf, qf, *iof.threads)
	})
}

func newCmdMAFIndex() *cmdline.Command {
	cmd := &cmdline.Command{Name: "maf-index", Short: "Build or verify a MAF random-access index table", ArgsName: "maf-path"}
	iof := addIOFlags(cmd)
	table := cmd.Flags.String("table", "", "Index table path, for --verify (defaults to -o for building)")
	verify := cmd.Flags.Bool("verify", false, "Verify an existing index table against the MAF file instead of building one")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("maf-index takes one MAF path, got %v", argv)
		}
		if *verify {
			if *table == "" {
				return fmt.Errorf("maf-index --verify requires --table")
			}
			tableSrc, err := iox.OpenRead(*table)
			if err != nil {
				return err
			}
			defer tableSrc.Close()
			idx, err := mafindex.ReadTable(tableSrc)
			if err != nil {
				return err
			}
			stale, err := mafindex.Verify(argv[0], idx)
			if err != nil {
				return err
			}
			if len(stale) > 0 {
				return fmt.Errorf("maf-index: %d stale entries", len(stale))
			}
			log.Debug.Printf("maf-index: %s is up to date", argv[0])
			return nil
		}
		idx, err := mafindex.Build(argv[0])
		if err != nil {
			return err
		}
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		return mafindex.WriteTable(sink, idx)
	})
	return cmd
}

func newCmdMAFExt() *cmdline.Command {
	cmd := &cmdline.Command{Name: "maf-ext", Short: "Extract a MAF block range via a maf-index table", ArgsName: "maf-path table-path name start end"}
	iof := addIOFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 5 {
			return fmt.Errorf("maf-ext takes maf-path table-path name start end, got %v", argv)
		}
		tableSrc, err := iox.OpenRead(argv[1])
		if err != nil {
			return err
		}
		defer tableSrc.Close()
		idx, err := mafindex.ReadTable(tableSrc)
		if err != nil {
			return err
		}
		var start, end int
		if _, err := fmt.Sscanf(argv[3], "%d", &start); err != nil {
			return err
		}
		if _, err := fmt.Sscanf(argv[4], "%d", &end); err != nil {
			return err
		}
		entries := idx.Query(argv[2], start, end)
		if len(entries) == 0 {
			log.Error.Printf("maf-ext: %s:%d-%d matches no indexed block, skipping", argv[2], start, end)
			return nil
		}
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		w := maf.NewWriter(sink)
		if err := w.WriteHeader([]string{"##maf version=1"}); err != nil {
			return err
		}
		for _, e := range entries {
			block, err := mafindex.Extract(argv[0], e, start, end)
			if err != nil {
				return err
			}
			if err := w.WriteBlock(block); err != nil {
				return err
			}
		}
		return nil
	})
	return cmd
}

func newCmdChunk() *cmdline.Command {
	cmd := &cmdline.Command{Name: "chunk", Short: "Split MAF blocks into sub-blocks of at most -l aligned columns", ArgsName: "maf-path"}
	iof := addIOFlags(cmd)
	maxCols := cmd.Flags.Int("l", 10000, "Maximum aligned columns per sub-block")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("chunk takes one MAF path, got %v", argv)
		}
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		r := maf.NewReader(src)
		w := maf.NewWriter(sink)
		if err := w.WriteHeader([]string{"##maf version=1"}); err != nil {
			return err
		}
		for {
			block, err := r.ReadBlock()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			for _, sub := range aux.Chunk(block, *maxCols) {
				if err := w.WriteBlock(sub); err != nil {
					return err
				}
			}
		}
	})
	return cmd
}

func newCmdCall() *cmdline.Command {
	cmd := &cmdline.Command{Name: "call", Short: "Call variants from a normalized MAF alignment", ArgsName: "maf-path"}
	iof := addIOFlags(cmd)
	suppressSNP := cmd.Flags.Bool("s", false, "Suppress SNP calls")
	suppressShortIndel := cmd.Flags.Bool("short-indel", false, "Suppress indels below -l")
	minSVLen := cmd.Flags.Int("l", 50, "Minimum structural-variant length")
	coalesceMNV := cmd.Flags.Bool("mnv", false, "Coalesce consecutive SNP columns into one MNV")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("call takes one MAF path, got %v", argv)
		}
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()

		opts := variant.Options{
			SuppressSNP: *suppressSNP, SuppressShortIndel: *suppressShortIndel,
			MinSVLen: *minSVLen, CoalesceMNV: *coalesceMNV,
		}
		r := maf.NewReader(src)
		var records []*align.Record
		var perRecord [][]*variant.Variant
		for {
			block, err := r.ReadBlock()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			norm, err := maf.ToNormalized(block)
			if err != nil {
				return err
			}
			vs := variant.CallRecord(norm, block.Lines[0].Seq, block.Lines[1].Seq, opts)
			records = append(records, norm)
			perRecord = append(perRecord, vs)
		}
		var all []*variant.Variant
		for _, vs := range perRecord {
			all = append(all, vs...)
		}
		all = append(all, variant.DetectInversions(records, perRecord)...)

		w := variant.NewWriter(sink)
		if err := w.WriteHeader("SAMPLE"); err != nil {
			return err
		}
		for _, v := range variant.MergeSorted([][]*variant.Variant{all}) {
			if err := w.WriteVariant(v); err != nil {
				return err
			}
		}
		return nil
	})
	return cmd
}

func newCmdValidate() *cmdline.Command {
	cmd := &cmdline.Command{Name: "validate", Short: "Validate (and optionally fix) PAF coordinate spans against the CIGAR", ArgsName: "paf-path"}
	iof := addIOFlags(cmd)
	fix := cmd.Flags.String("f", "", "Write fixed records to this path instead of reporting only")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("validate takes one PAF path, got %v", argv)
		}
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		var w *paf.Writer
		if *fix != "" {
			sink, err := iox.OpenWrite(*fix, *iof.rewrite)
			if err != nil {
				return err
			}
			defer sink.Close()
			w = paf.NewWriter(sink)
		}
		sum, err := validate.Run(paf.NewReader(src), w, nil)
		if err != nil {
			return err
		}
		log.Debug.Printf("validate: %d records, %d target-invalid, %d query-invalid", sum.Total, sum.TargetInvalid, sum.QueryInvalid)
		return nil
	})
	return cmd
}

func newCmdStat() *cmdline.Command {
	cmd := &cmdline.Command{Name: "stat", Short: "Report per-record and aggregate alignment statistics", ArgsName: "maf-path"}
	checksum := cmd.Flags.Bool("checksum", false, "Also print a per-record checksum")
	lenient := cmd.Flags.Bool("lenient", false, "Skip and warn on malformed records instead of failing")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("stat takes one MAF path, got %v", argv)
		}
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		r := maf.NewReader(src)
		th := aux.FilterThresholds{Lenient: *lenient}
		var total aux.RecordStat
		for {
			block, err := r.ReadBlock()
			if err == io.EOF {
				break
			}
			if err != nil {
				if th.Degrade(argv[0], err) {
					continue
				}
				return err
			}
			norm, err := maf.ToNormalized(block)
			if err != nil {
				if th.Degrade(argv[0], err) {
					continue
				}
				return err
			}
			s := aux.StatRecord(norm, block.Lines[0].Seq, block.Lines[1].Seq)
			total.Add(s)
			if *checksum {
				log.Debug.Printf("%s:%d-%d checksum=%x", norm.TargetName, norm.TargetStart, norm.TargetEnd, aux.Checksum(aux.ChecksumFarm, norm))
			}
		}
		fmt.Printf("matches=%d mismatches=%d insertions=%d deletions=%d identity=%.4f alignedLength=%d\n",
			total.Matches, total.Mismatches, total.Insertions, total.Deletions, total.Identity(), total.AlignedLength)
		return nil
	})
	return cmd
}

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{Name: "filter", Short: "Drop MAF blocks below length thresholds", ArgsName: "maf-path"}
	iof := addIOFlags(cmd)
	minBlockLen := cmd.Flags.Int("block-length", 0, "Minimum gapped block length")
	minQuerySize := cmd.Flags.Int("q", 0, "Minimum ungapped query size")
	minAlignSize := cmd.Flags.Int("a", 0, "Minimum ungapped target (alignment) size")
	lenient := cmd.Flags.Bool("lenient", false, "Skip and warn on malformed records instead of failing")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("filter takes one MAF path, got %v", argv)
		}
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		r := maf.NewReader(src)
		w := maf.NewWriter(sink)
		if err := w.WriteHeader([]string{"##maf version=1"}); err != nil {
			return err
		}
		th := aux.FilterThresholds{MinBlockLength: *minBlockLen, MinQuerySize: *minQuerySize, MinAlignSize: *minAlignSize, Lenient: *lenient}
		for {
			block, err := r.ReadBlock()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				if th.Degrade(argv[0], err) {
					continue
				}
				return err
			}
			querySize := 0
			for _, l := range block.Lines[1:] {
				querySize += l.Size
			}
			p := aux.Passable{BlockLength: block.GappedLen(), QuerySize: querySize, AlignSize: block.Lines[0].Size}
			if !th.Keep(p) {
				continue
			}
			if err := w.WriteBlock(block); err != nil {
				return err
			}
		}
	})
	return cmd
}

func newCmdRename() *cmdline.Command {
	cmd := &cmdline.Command{Name: "rename", Short: "Prepend prefixes to target/query sequence names", ArgsName: "maf-path"}
	iof := addIOFlags(cmd)
	prefixes := cmd.Flags.String("prefixs", "", "Comma-separated target,query prefixes, e.g. REF.,QUERY.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("rename takes one MAF path, got %v", argv)
		}
		parts := strings.SplitN(*prefixes, ",", 2)
		if len(parts) != 2 {
			return fmt.Errorf("rename: --prefixs wants REF.,QUERY., got %q", *prefixes)
		}
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		r := maf.NewReader(src)
		w := maf.NewWriter(sink)
		if err := w.WriteHeader([]string{"##maf version=1"}); err != nil {
			return err
		}
		for {
			block, err := r.ReadBlock()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := aux.Rename(block, parts[0], parts[1]); err != nil {
				return err
			}
			if err := w.WriteBlock(block); err != nil {
				return err
			}
		}
	})
	return cmd
}

func newCmdPafCov() *cmdline.Command {
	cmd := &cmdline.Command{Name: "pafcov", Short: "Emit BED-style per-base target coverage from a PAF", ArgsName: "paf-path"}
	iof := addIOFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("pafcov takes one PAF path, got %v", argv)
		}
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		sink, err := iof.openSink()
		if err != nil {
			return err
		}
		defer sink.Close()
		byChrom := map[string][][2]int{}
		r := paf.NewReader(src)
		for {
			rec, err := r.ReadRecord()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			byChrom[rec.TargetName] = append(byChrom[rec.TargetName], [2]int{rec.TargetStart, rec.TargetEnd})
		}
		for chrom, ivs := range byChrom {
			for _, c := range aux.Coverage(chrom, ivs) {
				if _, err := sink.WriteString(c.BEDLine() + "\n"); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return cmd
}

func newCmdPafPseudo() *cmdline.Command {
	cmd := &cmdline.Command{Name: "pafpseudo", Short: "Bucket an all-vs-all PAF into one pseudo-MAF per reference", ArgsName: "paf-path"}
	fastaPath := cmd.Flags.String("fasta", "", "Multi-FASTA covering both target and query sequences (required)")
	outDir := cmd.Flags.String("out-dir", ".", "Directory to write one <ref>.maf file per reference into")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("pafpseudo takes one PAF path, got %v", argv)
		}
		if *fastaPath == "" {
			return fmt.Errorf("pafpseudo requires --fasta")
		}
		f, err := openFetcher(*fastaPath)
		if err != nil {
			return err
		}
		src, err := iox.OpenRead(argv[0])
		if err != nil {
			return err
		}
		defer src.Close()
		buckets, err := aux.PseudoMAF(paf.NewReader(src), f, f)
		if err != nil {
			return err
		}
		return aux.WriteBuckets(buckets, func(ref string) (*maf.Writer, io.Closer, error) {
			sink, err := iox.OpenWrite(*outDir+"/"+ref+".maf", true)
			if err != nil {
				return nil, nil, err
			}
			return maf.NewWriter(sink), sink, nil
		})
	})
	return cmd
}

func newOutOfScopeStub(name string) *cmdline.Command {
	cmd := &cmdline.Command{Name: name, Short: "Not part of the core engine"}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return fmt.Errorf("%s is not part of the core engine", name)
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:  "aligntool",
		Short: "Whole-genome pairwise alignment format converters, variant caller, and validator",
		Children: []*cmdline.Command{
			newCmdMAF2PAF(),
			newCmdMAF2Chain(),
			newCmdPAF2MAF(),
			newCmdPAF2Chain(),
			newCmdChain2MAF(),
			newCmdChain2PAF(),
			newCmdMAFIndex(),
			newCmdMAFExt(),
			newCmdChunk(),
			newCmdCall(),
			newCmdStat(),
			newCmdFilter(),
			newCmdRename(),
			newCmdValidate(),
			newCmdPafCov(),
			newCmdPafPseudo(),
			newOutOfScopeStub("tview"),
			newOutOfScopeStub("dotplot"),
			newOutOfScopeStub("maf2sam"),
			newOutOfScopeStub("gen-completion"),
		},
	})
}
