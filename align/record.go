// Package align defines the normalized alignment record shared by the MAF,
// PAF, and CHAIN codecs (spec §3, §9 "Polymorphism over formats": a single
// NormalizedRecord plus free parse_X/emit_X functions, rather than a class
// hierarchy per format).
package align

import (
	"strconv"

	"github.com/aligntool/aligntool/cigar"
)

// Strand is either Forward or Reverse.
type Strand byte

const (
	Forward Strand = '+'
	Reverse Strand = '-'
)

func (s Strand) String() string { return string(s) }

// Opposite returns the other strand.
func (s Strand) Opposite() Strand {
	if s == Forward {
		return Reverse
	}
	return Forward
}

// ParseStrand parses a single-character strand token.
func ParseStrand(s string) (Strand, bool) {
	if s == "+" {
		return Forward, true
	}
	if s == "-" {
		return Reverse, true
	}
	return 0, false
}

// StrandProject reprojects a 0-based half-open interval [start, end) of a
// sequence of length srcLen onto the opposite strand's coordinate origin
// when strand is Reverse, and is the identity when strand is Forward.
//
// This is the single function spec §9 calls out: "encapsulate in a single
// strand_project(start, end, srcLen, strand) function; reuse everywhere to
// avoid ad-hoc arithmetic mistakes". It is used both to express MAF's
// reverse-strand-relative start (emit) and to recover it (ingest), and by
// the PAF↔CHAIN converters' query-strand reconciliation.
func StrandProject(start, end, srcLen int, strand Strand) (int, int) {
	if strand == Forward {
		return start, end
	}
	return srcLen - end, srcLen - start
}

// complementTable maps a base to its complement; anything outside ACGTNacgtn
// maps to itself (ambiguity codes pass through unchanged).
var complementTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	pairs := "ACGTNacgtn" + "TGCANtgcan"
	half := len(pairs) / 2
	for i := 0; i < half; i++ {
		t[pairs[i]] = pairs[half+i]
	}
	return t
}()

// ReverseComplement returns the reverse complement of a (possibly gapped)
// nucleotide sequence. Gap characters ('-') are reversed in place like any
// other character.
func ReverseComplement(seq string) string {
	b := make([]byte, len(seq))
	n := len(seq)
	for i := 0; i < n; i++ {
		b[n-1-i] = complementTable[seq[i]]
	}
	return string(b)
}

// Record is the normalized alignment record of spec §3: a pairwise alignment
// between a target interval (always expressed on the '+' strand) and a query
// interval (strand-aware), connected by a single CIGAR.
type Record struct {
	TargetName  string
	TargetLen   int
	TargetStart int // 0-based, half-open
	TargetEnd   int

	// QueryName, QueryStart, and QueryEnd follow PAF/CHAIN convention: the
	// interval is always 0-based, half-open, and expressed on the query's
	// forward strand, regardless of QueryStrand. MAF is the odd format out
	// (its 's' line start is relative to the reverse-complement origin when
	// the line's strand is '-'); encoding/maf reconciles this with
	// align.StrandProject on ingest and emit.
	QueryName   string
	QueryLen    int
	QueryStart  int
	QueryEnd    int
	QueryStrand Strand

	Cigar cigar.Ops

	// Score is optional; nil when the source format didn't carry one.
	Score *int

	// Tags carries format-specific key-typed attributes that don't have a
	// place in the normalized shape (e.g. PAF's NM:i, MAF's synteny info).
	// Converters preserve what they can and drop the rest; see per-format
	// docs.
	Tags map[string]string
}

// CheckSpans validates invariant 1 of spec §8: the CIGAR's target/query
// consumption must equal the declared spans.
func (r *Record) CheckSpans() error {
	wantT := r.TargetEnd - r.TargetStart
	wantQ := r.QueryEnd - r.QueryStart
	if gotT := r.Cigar.TargetSpan(); gotT != wantT {
		return &SpanMismatchError{Side: "target", Want: wantT, Got: gotT}
	}
	if gotQ := r.Cigar.QuerySpan(); gotQ != wantQ {
		return &SpanMismatchError{Side: "query", Want: wantQ, Got: gotQ}
	}
	return nil
}

// SpanMismatchError reports that a CIGAR's consumption disagrees with a
// record's declared coordinate span (spec §4.7, §7 "Semantic" errors).
type SpanMismatchError struct {
	Side     string // "target" or "query"
	Want     int
	Got      int
}

func (e *SpanMismatchError) Error() string {
	return "cigar " + e.Side + " span mismatch: declared " +
		strconv.Itoa(e.Want) + ", cigar consumes " + strconv.Itoa(e.Got)
}
