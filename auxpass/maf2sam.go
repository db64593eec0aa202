package aux

import (
	"strconv"
	"strings"

	"github.com/aligntool/aligntool/align"
)

// ToSAMLine renders a normalized record as an unpaired single-end SAM
// alignment line: QNAME, FLAG, RNAME, POS, MAPQ, CIGAR, RNEXT, PNEXT, TLEN,
// SEQ, QUAL. No BAM/BGZF emission, no mate handling, no header.
//
// This is the experimental maf2sam pass-through named in spec.md §6 and
// marked "out of the stability contract" by §9 Open Questions (SPEC_FULL
// §5): it exists so the named CLI surface isn't left entirely unimplemented,
// not as a general-purpose SAM writer.
func ToSAMLine(r *align.Record, querySeq string) string {
	flag := 0
	if r.QueryStrand == align.Reverse {
		flag |= 0x10
	}
	mapq := 255
	fields := []string{
		r.QueryName,
		strconv.Itoa(flag),
		r.TargetName,
		strconv.Itoa(r.TargetStart + 1), // SAM POS is 1-based
		strconv.Itoa(mapq),
		r.Cigar.String(),
		"*", "0", "0",
		orDefault(querySeq, "*"),
		"*",
	}
	return strings.Join(fields, "\t")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
