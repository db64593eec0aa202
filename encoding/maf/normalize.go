package maf

import (
	"strings"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/cigar"
	"github.com/pkg/errors"
)

// ErrTargetReverseStrand is returned when a block's first ('s') line — the
// one this package treats as the target, per spec §4.4's "walk the two
// gapped sequences" wording — is declared on the reverse strand. The
// normalized record's target is always '+' (spec §3); MAF references are
// conventionally forward-strand, so this is treated as malformed input
// rather than silently reprojected.
var ErrTargetReverseStrand = errors.New("maf: target (first) sequence line is on the reverse strand")

// ErrTooFewLines is returned when a block has fewer than the two sequence
// lines a pairwise conversion requires.
var ErrTooFewLines = errors.New("maf: block has fewer than 2 sequence lines")

// ToNormalized lifts a MAF block to the normalized alignment record,
// treating the block's first 's' line as target and its second as query
// (spec §4.4 "derive CIGAR by walking the two gapped sequences in
// lockstep"). Any further lines (a block may carry more than two for
// multi-way alignments) are dropped; this mirrors the spec's pairwise
// framing of the conversion kernel. The query's MAF-relative start is
// reconciled to the PAF/CHAIN forward-strand convention via
// align.StrandProject.
func ToNormalized(b *align.MAFBlock) (*align.Record, error) {
	if len(b.Lines) < 2 {
		return nil, ErrTooFewLines
	}
	t, q := b.Lines[0], b.Lines[1]
	if t.Strand == align.Reverse {
		return nil, ErrTargetReverseStrand
	}

	ops := DeriveCIGAR(t.Seq, q.Seq)

	qStart, qEnd := q.Start, q.Start+q.Size
	if q.Strand == align.Reverse {
		qStart, qEnd = align.StrandProject(q.Start, q.Start+q.Size, q.SrcSize, align.Reverse)
	}

	rec := &align.Record{
		TargetName:  t.Name,
		TargetLen:   t.SrcSize,
		TargetStart: t.Start,
		TargetEnd:   t.Start + t.Size,
		QueryName:   q.Name,
		QueryLen:    q.SrcSize,
		QueryStart:  qStart,
		QueryEnd:    qEnd,
		QueryStrand: q.Strand,
		Cigar:       ops,
	}
	if b.Score != nil {
		score := int(*b.Score)
		rec.Score = &score
	}
	return rec, nil
}

// DeriveCIGAR walks two equal-length gapped sequences column by column and
// returns the CIGAR connecting them (spec §4.4): a gap in target opposite a
// base in query is an insertion, a base in target opposite a gap in query is
// a deletion, and two opposing bases are a match ('=') or mismatch ('X')
// depending on whether they're equal (case-insensitively).
func DeriveCIGAR(targetSeq, querySeq string) cigar.Ops {
	var ops cigar.Ops
	push := func(k cigar.Kind) {
		if n := len(ops); n > 0 && ops[n-1].Kind == k {
			ops[n-1].Len++
			return
		}
		ops = append(ops, cigar.Op{Kind: k, Len: 1})
	}
	for i := 0; i < len(targetSeq); i++ {
		tb, qb := targetSeq[i], querySeq[i]
		switch {
		case tb == '-' && qb == '-':
			continue
		case tb == '-':
			push(cigar.Insertion)
		case qb == '-':
			push(cigar.Deletion)
		case equalBase(tb, qb):
			push(cigar.Match)
		default:
			push(cigar.Mismatch)
		}
	}
	return ops
}

func equalBase(a, b byte) bool {
	return toUpper(a) == toUpper(b)
}

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// FromNormalized lowers a normalized alignment record to a two-line MAF
// block, re-inserting gap columns from the CIGAR and reprojecting the
// query's forward-strand coordinates back to MAF's reverse-origin
// convention when queryStrand is '-' (spec §4.4, the PAF/CHAIN → MAF
// direction). targetSeq and querySeq are the ungapped bases covering the
// record's target/query spans, typically obtained from a
// fetcher.Fetcher — MAF requires actual sequence, unlike PAF/CHAIN.
func FromNormalized(r *align.Record, targetSeq, querySeq string) (*align.MAFBlock, error) {
	if err := r.CheckSpans(); err != nil {
		return nil, err
	}
	var tb, qb strings.Builder
	tb.Grow(len(targetSeq) + len(querySeq))
	qb.Grow(len(targetSeq) + len(querySeq))

	ti, qi := 0, 0
	for _, op := range r.Cigar {
		switch op.Kind {
		case cigar.Match, cigar.Mismatch, cigar.AlnMatch:
			tb.WriteString(targetSeq[ti : ti+op.Len])
			qb.WriteString(querySeq[qi : qi+op.Len])
			ti += op.Len
			qi += op.Len
		case cigar.Insertion:
			tb.WriteString(strings.Repeat("-", op.Len))
			qb.WriteString(querySeq[qi : qi+op.Len])
			qi += op.Len
		case cigar.Deletion, cigar.Skip:
			tb.WriteString(targetSeq[ti : ti+op.Len])
			qb.WriteString(strings.Repeat("-", op.Len))
			ti += op.Len
		default:
			return nil, errors.Errorf("maf: cannot emit op kind %q to MAF", op.Kind)
		}
	}

	qStart := r.QueryStart
	if r.QueryStrand == align.Reverse {
		qStart, _ = align.StrandProject(r.QueryStart, r.QueryEnd, r.QueryLen, align.Reverse)
	}

	var score *float64
	if r.Score != nil {
		f := float64(*r.Score)
		score = &f
	}
	return &align.MAFBlock{
		Score: score,
		Lines: []align.MAFSeqLine{
			{Name: r.TargetName, Start: r.TargetStart, Size: r.TargetEnd - r.TargetStart, Strand: align.Forward, SrcSize: r.TargetLen, Seq: tb.String()},
			{Name: r.QueryName, Start: qStart, Size: r.QueryEnd - r.QueryStart, Strand: r.QueryStrand, SrcSize: r.QueryLen, Seq: qb.String()},
		},
	}, nil
}
