// Package chain implements the streaming reader and writer for the UCSC
// chain format of spec §4.3.3: a "chain" header line, then lines of one or
// three integers, terminated by a single-integer line; chains are separated
// by a blank line.
package chain

import (
	"strconv"
	"strings"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/cigar"
	"github.com/aligntool/aligntool/iox"
	"github.com/pkg/errors"
)

// ToNormalized lifts a Chain to the normalized alignment record. The chain
// format expresses query coordinates on the strand named by QueryStrand;
// that is carried through unchanged (spec §4.3.3 "reverse-strand note").
// The CIGAR is reconstructed per spec §4.4: each segment becomes
// size×'=', dt×'D', dq×'I', in that order; the final (size-only) segment
// contributes only its '=' run.
func ToNormalized(c *align.Chain) *align.Record {
	ops := make(cigar.Ops, 0, len(c.Segments)*3)
	for _, s := range c.Segments {
		if s.Size > 0 {
			ops = append(ops, cigar.Op{Kind: cigar.Match, Len: s.Size})
		}
		if s.Dt > 0 {
			ops = append(ops, cigar.Op{Kind: cigar.Deletion, Len: s.Dt})
		}
		if s.Dq > 0 {
			ops = append(ops, cigar.Op{Kind: cigar.Insertion, Len: s.Dq})
		}
	}
	return &align.Record{
		TargetName:  c.TargetName,
		TargetLen:   c.TargetLen,
		TargetStart: c.TargetStart,
		TargetEnd:   c.TargetEnd,
		QueryName:   c.QueryName,
		QueryLen:    c.QueryLen,
		QueryStart:  c.QueryStart,
		QueryEnd:    c.QueryEnd,
		QueryStrand: c.QueryStrand,
		Cigar:       ops,
		Score:       intPtr(c.Score),
	}
}

func intPtr(n int) *int { return &n }

// FromNormalized folds a normalized record's CIGAR into chain (size, dt, dq)
// runs (spec §4.4: "collapse the CIGAR into runs where size = length of run
// of aligned (no-gap) positions, dt = following D-run length, dq = following
// I-run length").
func FromNormalized(r *align.Record, id int) *align.Chain {
	c := &align.Chain{
		ID:           id,
		TargetName:   r.TargetName,
		TargetLen:    r.TargetLen,
		TargetStrand: align.Forward,
		TargetStart:  r.TargetStart,
		TargetEnd:    r.TargetEnd,
		QueryName:    r.QueryName,
		QueryLen:     r.QueryLen,
		QueryStrand:  r.QueryStrand,
		QueryStart:   r.QueryStart,
		QueryEnd:     r.QueryEnd,
	}
	if r.Score != nil {
		c.Score = *r.Score
	}
	c.Segments = FoldSegments(r.Cigar)
	return c
}

// FoldSegments run-length folds a CIGAR into chain segments: a run of
// aligned (no-gap) positions ('=', 'X', or 'M') followed by an optional
// deletion/skip run and an optional insertion run becomes one segment. The
// final segment has Dt == Dq == 0.
func FoldSegments(ops cigar.Ops) []align.ChainSegment {
	var segs []align.ChainSegment
	i := 0
	n := len(ops)
	for i < n {
		seg := align.ChainSegment{}
		for i < n && isAligned(ops[i].Kind) {
			seg.Size += ops[i].Len
			i++
		}
		if i < n && (ops[i].Kind == cigar.Deletion || ops[i].Kind == cigar.Skip) {
			seg.Dt += ops[i].Len
			i++
		}
		if i < n && ops[i].Kind == cigar.Insertion {
			seg.Dq += ops[i].Len
			i++
		}
		segs = append(segs, seg)
	}
	return segs
}

func isAligned(k cigar.Kind) bool {
	return k == cigar.Match || k == cigar.Mismatch || k == cigar.AlnMatch
}

// Reader streams Chains from a LineSource.
type Reader struct {
	src *iox.LineSource
}

// NewReader returns a Reader over src.
func NewReader(src *iox.LineSource) *Reader { return &Reader{src: src} }

// ReadChain reads and returns the next chain, or io.EOF when exhausted.
func (r *Reader) ReadChain() (*align.Chain, error) {
	var headerLine string
	for {
		line, err := r.src.Next()
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		headerLine = line
		break
	}
	c, err := parseHeader(headerLine)
	if err != nil {
		return nil, errors.Wrapf(err, "chain: %s:%d", r.src.Path(), r.src.LineNo())
	}
	for {
		line, err := r.src.Next()
		if err != nil {
			return nil, errors.Wrapf(err, "chain: %s:%d: unexpected EOF mid-chain", r.src.Path(), r.src.LineNo())
		}
		if line == "" {
			break
		}
		f := strings.Fields(line)
		switch len(f) {
		case 1:
			size, err := strconv.Atoi(f[0])
			if err != nil {
				return nil, errors.Wrapf(err, "chain: %s:%d: bad terminating size", r.src.Path(), r.src.LineNo())
			}
			c.Segments = append(c.Segments, align.ChainSegment{Size: size})
			return c, nil
		case 3:
			size, err := strconv.Atoi(f[0])
			if err != nil {
				return nil, err
			}
			dt, err := strconv.Atoi(f[1])
			if err != nil {
				return nil, err
			}
			dq, err := strconv.Atoi(f[2])
			if err != nil {
				return nil, err
			}
			c.Segments = append(c.Segments, align.ChainSegment{Size: size, Dt: dt, Dq: dq})
		default:
			return nil, errors.Errorf("chain: %s:%d: expected 1 or 3 integers, got %d", r.src.Path(), r.src.LineNo(), len(f))
		}
	}
	return c, nil
}

func parseHeader(line string) (*align.Chain, error) {
	f := strings.Fields(line)
	if len(f) != 13 || f[0] != "chain" {
		return nil, errors.Errorf("malformed chain header: %q", line)
	}
	atoi := func(s string) (int, error) { return strconv.Atoi(s) }
	c := &align.Chain{}
	var err error
	if c.Score, err = atoi(f[1]); err != nil {
		return nil, err
	}
	c.TargetName = f[2]
	if c.TargetLen, err = atoi(f[3]); err != nil {
		return nil, err
	}
	strand, ok := align.ParseStrand(f[4])
	if !ok {
		return nil, errors.Errorf("bad target strand %q", f[4])
	}
	c.TargetStrand = strand
	if c.TargetStart, err = atoi(f[5]); err != nil {
		return nil, err
	}
	if c.TargetEnd, err = atoi(f[6]); err != nil {
		return nil, err
	}
	c.QueryName = f[7]
	if c.QueryLen, err = atoi(f[8]); err != nil {
		return nil, err
	}
	strand, ok = align.ParseStrand(f[9])
	if !ok {
		return nil, errors.Errorf("bad query strand %q", f[9])
	}
	c.QueryStrand = strand
	if c.QueryStart, err = atoi(f[10]); err != nil {
		return nil, err
	}
	if c.QueryEnd, err = atoi(f[11]); err != nil {
		return nil, err
	}
	if c.ID, err = atoi(f[12]); err != nil {
		return nil, err
	}
	return c, nil
}

// Writer streams Chains to a Sink.
type Writer struct {
	sink     *iox.Sink
	wroteAny bool
}

// NewWriter returns a Writer over sink.
func NewWriter(sink *iox.Sink) *Writer { return &Writer{sink: sink} }

// WriteChain writes one chain. Every chain after the first is preceded by a
// blank separator line; no blank line follows the last chain.
func (w *Writer) WriteChain(c *align.Chain) error {
	if w.wroteAny {
		if _, err := w.sink.WriteString("\n"); err != nil {
			return err
		}
	}
	w.wroteAny = true

	header := strings.Join([]string{
		"chain", strconv.Itoa(c.Score),
		c.TargetName, strconv.Itoa(c.TargetLen), string(c.TargetStrand), strconv.Itoa(c.TargetStart), strconv.Itoa(c.TargetEnd),
		c.QueryName, strconv.Itoa(c.QueryLen), string(c.QueryStrand), strconv.Itoa(c.QueryStart), strconv.Itoa(c.QueryEnd),
		strconv.Itoa(c.ID),
	}, " ")
	if _, err := w.sink.WriteString(header + "\n"); err != nil {
		return err
	}
	for i, s := range c.Segments {
		last := i == len(c.Segments)-1
		var line string
		if last {
			line = strconv.Itoa(s.Size)
		} else {
			line = strings.Join([]string{strconv.Itoa(s.Size), strconv.Itoa(s.Dt), strconv.Itoa(s.Dq)}, "\t")
		}
		if _, err := w.sink.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}
