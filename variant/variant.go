// Package variant implements the CIGAR-driven variant caller of spec §4.6:
// walking an alignment record's CIGAR against its target and query bases to
// emit SNP, INS, and DEL records, plus inversion detection across sibling
// records, written out as VCFv4.4.
package variant

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/cigar"
)

// Kind is a VCF SVTYPE value this caller emits.
type Kind string

const (
	SNP Kind = "SNP"
	INS Kind = "INS"
	DEL Kind = "DEL"
	INV Kind = "INV"
)

// Variant is one called record (spec §3 "VCF Variant").
type Variant struct {
	Chrom     string
	Pos       int // 1-based
	Ref, Alt  string
	Kind      Kind
	SVLen     int
	End       int
	QueryInfo string // name@start@end@strand
	NestIDs   []string

	id string // assigned by the caller, referenced by sibling INV_NEST
}

// Options configures CallRecord (spec §4.6 and §6's `call` flags).
type Options struct {
	SuppressSNP        bool // call -s
	SuppressShortIndel bool // call --short-indel
	MinSVLen           int  // call -l N; 0 means spec's default of 50
	CoalesceMNV        bool // coalesce consecutive SNP columns into one MNV
}

func (o Options) minSVLen() int {
	if o.MinSVLen > 0 {
		return o.MinSVLen
	}
	return 50
}

// idCounter is shared across concurrent CallRecord calls (spec §5's worker
// pool calls CallRecord per-record on separate goroutines), so IDs are
// assigned atomically rather than per-worker-namespaced: callers sort the
// merged output by (chrom, pos) anyway, never by ID.
var idCounter int64

func nextID() string {
	return "v" + strconv.FormatInt(atomic.AddInt64(&idCounter, 1), 10)
}

// CallRecord walks a single alignment record's CIGAR against its target and
// query bases (both ungapped, covering the record's declared spans exactly)
// and returns the SNP/INS/DEL variants it implies (spec §4.6's per-record
// algorithm). Inversions are not detected here; see DetectInversions.
func CallRecord(r *align.Record, targetSeq, querySeq string, opts Options) []*Variant {
	var out []*Variant
	cur := cigar.NewCursor(r.TargetStart, r.QueryStart)
	ti, qi := 0, 0

	flushSNPRun := func(startT, startQ, n int) {
		if opts.SuppressSNP {
			return
		}
		if opts.CoalesceMNV && n > 1 {
			out = append(out, &Variant{
				Chrom: r.TargetName, Pos: startT + 1,
				Ref: targetSeq[ti-n : ti], Alt: querySeq[qi-n : qi],
				Kind: SNP, End: startT + n,
				QueryInfo: queryInfo(r.QueryName, startQ, startQ+n, r.QueryStrand),
				id:        nextID(),
			})
			return
		}
		for i := 0; i < n; i++ {
			out = append(out, &Variant{
				Chrom: r.TargetName, Pos: startT + i + 1,
				Ref: targetSeq[ti-n+i : ti-n+i+1], Alt: querySeq[qi-n+i : qi-n+i+1],
				Kind: SNP, End: startT + i + 1,
				QueryInfo: queryInfo(r.QueryName, startQ+i, startQ+i+1, r.QueryStrand),
				id:        nextID(),
			})
		}
	}

	var snpRunStartT, snpRunStartQ, snpRunLen int
	closeSNPRun := func() {
		if snpRunLen > 0 {
			flushSNPRun(snpRunStartT, snpRunStartQ, snpRunLen)
			snpRunLen = 0
		}
	}

	for _, op := range r.Cigar {
		tBegin, qBegin := cur.Advance(op)
		switch op.Kind {
		case cigar.Match:
			closeSNPRun()
			ti += op.Len
			qi += op.Len
		case cigar.Mismatch:
			if snpRunLen == 0 {
				snpRunStartT, snpRunStartQ = tBegin, qBegin
			}
			snpRunLen += op.Len
			ti += op.Len
			qi += op.Len
		case cigar.AlnMatch:
			for i := 0; i < op.Len; i++ {
				tb, qb := targetSeq[ti], querySeq[qi]
				if equalBase(tb, qb) {
					closeSNPRun()
					ti++
					qi++
					continue
				}
				if snpRunLen == 0 {
					snpRunStartT, snpRunStartQ = tBegin+i, qBegin+i
				}
				snpRunLen++
				ti++
				qi++
			}
		case cigar.Insertion:
			closeSNPRun()
			anchorPos := tBegin
			anchorBase := "N"
			if ti > 0 {
				anchorBase = targetSeq[ti-1 : ti]
			}
			if !(opts.SuppressShortIndel && op.Len < opts.minSVLen()) {
				out = append(out, &Variant{
					Chrom: r.TargetName, Pos: anchorPos, // anchorPos is 0-based tBegin == 1-based preceding base
					Ref: anchorBase, Alt: anchorBase + querySeq[qi:qi+op.Len],
					Kind: INS, SVLen: op.Len, End: anchorPos,
					QueryInfo: queryInfo(r.QueryName, qBegin, qBegin+op.Len, r.QueryStrand),
					id:        nextID(),
				})
			}
			qi += op.Len
		case cigar.Deletion, cigar.Skip:
			closeSNPRun()
			anchorPos := tBegin
			anchorBase := "N"
			if ti > 0 {
				anchorBase = targetSeq[ti-1 : ti]
			}
			if !(opts.SuppressShortIndel && op.Len < opts.minSVLen()) {
				out = append(out, &Variant{
					Chrom: r.TargetName, Pos: anchorPos,
					Ref: anchorBase + targetSeq[ti:ti+op.Len], Alt: anchorBase,
					Kind: DEL, SVLen: -op.Len, End: anchorPos + op.Len,
					QueryInfo: queryInfo(r.QueryName, qBegin, qBegin, r.QueryStrand),
					id:        nextID(),
				})
			}
			ti += op.Len
		}
	}
	closeSNPRun()
	return out
}

func equalBase(a, b byte) bool { return toUpper(a) == toUpper(b) }

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func queryInfo(name string, start, end int, strand align.Strand) string {
	return strings.Join([]string{name, strconv.Itoa(start), strconv.Itoa(end), string(strand)}, "@")
}
