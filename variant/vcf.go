package variant

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/iox"
	"github.com/biogo/store/llrb"
)

// contigInterval is one '+' strand sibling record's target envelope, used to
// detect '-' strand records overlapping it (spec §4.6 "INV detection"). The
// flattened-sorted-array overlap technique is grounded on
// interval/bedunion.go's searchPosType, adapted here to per-chromosome
// slices rather than a single flattened genome-wide array.
type contigInterval struct {
	start, end int
	variants   []*Variant
}

// DetectInversions scans records for a '-' strand record whose target
// envelope overlaps a '+' strand sibling on the same target (spec §4.6),
// emitting one INV variant per such overlap. perRecordVariants[i] holds the
// SNP/INS/DEL variants already called for records[i] (from CallRecord); the
// IDs of those falling inside the reverse record's envelope populate the
// emitted INV's NestIDs.
func DetectInversions(records []*align.Record, perRecordVariants [][]*Variant) []*Variant {
	byChrom := make(map[string][]contigInterval)
	for i, r := range records {
		if r.QueryStrand != align.Forward {
			continue
		}
		byChrom[r.TargetName] = append(byChrom[r.TargetName], contigInterval{
			start: r.TargetStart, end: r.TargetEnd, variants: perRecordVariants[i],
		})
	}
	for chrom := range byChrom {
		sort.Slice(byChrom[chrom], func(i, j int) bool { return byChrom[chrom][i].start < byChrom[chrom][j].start })
	}

	var out []*Variant
	for _, r := range records {
		if r.QueryStrand != align.Reverse {
			continue
		}
		fwds := byChrom[r.TargetName]
		i := sort.Search(len(fwds), func(i int) bool { return fwds[i].end > r.TargetStart })
		var nested []string
		for ; i < len(fwds) && fwds[i].start < r.TargetEnd; i++ {
			for _, v := range fwds[i].variants {
				if v.Pos-1 >= r.TargetStart && v.Pos-1 < r.TargetEnd {
					nested = append(nested, v.id)
				}
			}
		}
		if len(nested) == 0 {
			continue
		}
		out = append(out, &Variant{
			Chrom: r.TargetName, Pos: r.TargetStart + 1,
			Ref: "N", Alt: "<INV>",
			Kind: INV, SVLen: r.TargetEnd - r.TargetStart, End: r.TargetEnd,
			QueryInfo: queryInfo(r.QueryName, r.QueryStart, r.QueryEnd, r.QueryStrand),
			NestIDs:   nested,
			id:        nextID(),
		})
	}
	return out
}

// sortKey adapts a *Variant for ordering by (Chrom, Pos) in an llrb.Tree.
type sortKey struct{ v *Variant }

func (k sortKey) Compare(c llrb.Comparable) int {
	o := c.(sortKey)
	if d := strings.Compare(k.v.Chrom, o.v.Chrom); d != 0 {
		return d
	}
	if d := k.v.Pos - o.v.Pos; d != 0 {
		return d
	}
	return strings.Compare(k.v.id, o.v.id)
}

// MergeSorted k-way merges already-(Chrom,Pos)-sorted runs into one globally
// sorted slice (spec §5 "globally sorted by (chrom, pos) after a final merge
// of per-worker sorted runs"), grounded on
// cmd/bio-bam-sort/sorter/sort.go's internalMergeShards leaf-tree technique:
// each run is a leaf positioned at its next unconsumed element; the
// tree's minimum is repeatedly drained and the owning leaf re-inserted at
// its next position.
func MergeSorted(runs [][]*Variant) []*Variant {
	type leaf struct {
		run []*Variant
		pos int
	}
	tree := llrb.Tree{}
	leaves := make(map[*Variant]*leaf)
	for _, run := range runs {
		sort.Slice(run, func(i, j int) bool {
			if run[i].Chrom != run[j].Chrom {
				return run[i].Chrom < run[j].Chrom
			}
			return run[i].Pos < run[j].Pos
		})
		if len(run) == 0 {
			continue
		}
		l := &leaf{run: run}
		leaves[run[0]] = l
		tree.Insert(sortKey{run[0]})
	}

	var out []*Variant
	for tree.Len() > 0 {
		var min *Variant
		tree.Do(func(item llrb.Comparable) bool {
			min = item.(sortKey).v
			return true // done: the first in-order item is the minimum
		})
		l := leaves[min]
		out = append(out, min)
		delete(leaves, min)
		tree.DeleteMin()
		l.pos++
		if l.pos < len(l.run) {
			next := l.run[l.pos]
			leaves[next] = l
			tree.Insert(sortKey{next})
		}
	}
	return out
}

// Writer emits VCFv4.4 records (spec §4.6 "Output").
type Writer struct {
	sink *iox.Sink
}

// NewWriter returns a Writer over sink.
func NewWriter(sink *iox.Sink) *Writer { return &Writer{sink: sink} }

// WriteHeader emits the VCFv4.4 meta-information and column header lines.
func (w *Writer) WriteHeader(sampleName string) error {
	lines := []string{
		"##fileformat=VCFv4.4",
		`##INFO=<ID=SVTYPE,Number=1,Type=String,Description="Type of structural variant">`,
		`##INFO=<ID=SVLEN,Number=1,Type=Integer,Description="Difference in length between REF and ALT alleles">`,
		`##INFO=<ID=END,Number=1,Type=Integer,Description="End position of the variant">`,
		`##INFO=<ID=INV_NEST,Number=.,Type=String,Description="IDs of variants called within this inversion">`,
		`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
		`##FORMAT=<ID=QI,Number=1,Type=String,Description="Query coordinates as name@start@end@strand">`,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t" + sampleName,
	}
	for _, l := range lines {
		if _, err := w.sink.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteVariant writes one VCF data line.
func (w *Writer) WriteVariant(v *Variant) error {
	info := []string{
		"SVTYPE=" + string(v.Kind),
		"END=" + strconv.Itoa(v.End),
	}
	if v.Kind == INS || v.Kind == DEL {
		info = append(info, "SVLEN="+strconv.Itoa(v.SVLen))
	}
	if len(v.NestIDs) > 0 {
		info = append(info, "INV_NEST="+strings.Join(v.NestIDs, ","))
	}
	cols := []string{
		v.Chrom, strconv.Itoa(v.Pos), v.id, v.Ref, v.Alt, ".", "PASS",
		strings.Join(info, ";"),
		"GT:QI",
		"1/1:" + v.QueryInfo,
	}
	_, err := w.sink.WriteString(strings.Join(cols, "\t") + "\n")
	return err
}
