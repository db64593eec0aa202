// Package cigar implements the CIGAR operation model shared by the MAF, PAF,
// and CHAIN codecs: a lazy parser, a target/query-advancing cursor, and the
// consumption table that drives coordinate arithmetic and variant calling.
package cigar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies a single CIGAR operation code.
type Kind byte

// The operation codes accepted by the grammar in spec §4.2.
const (
	Match       Kind = '=' // sequence match, no variant
	Mismatch    Kind = 'X' // sequence mismatch, always a SNP
	AlnMatch    Kind = 'M' // match-or-mismatch; requires base comparison
	Insertion   Kind = 'I' // query-only
	Deletion    Kind = 'D' // target-only
	Skip        Kind = 'N' // target-only, treated like Deletion for coords
	SoftClip    Kind = 'S' // neither
	HardClip    Kind = 'H' // neither
	Padding     Kind = 'P' // neither
)

// Op is a single (kind, length) pair. Length is always positive.
type Op struct {
	Kind Kind
	Len  int
}

func (o Op) String() string {
	return strconv.Itoa(o.Len) + string(o.Kind)
}

// Ops is an ordered CIGAR operation sequence.
type Ops []Op

func (ops Ops) String() string {
	var b strings.Builder
	for _, o := range ops {
		b.WriteString(strconv.Itoa(o.Len))
		b.WriteByte(byte(o.Kind))
	}
	return b.String()
}

func isValidKind(k Kind) bool {
	switch k {
	case Match, Mismatch, AlnMatch, Insertion, Deletion, Skip, SoftClip, HardClip, Padding:
		return true
	}
	return false
}

// ConsumesTarget reports whether an op of kind k advances the target
// coordinate (spec §4.2 consumption table).
func ConsumesTarget(k Kind) bool {
	switch k {
	case Match, Mismatch, AlnMatch, Deletion, Skip:
		return true
	}
	return false
}

// ConsumesQuery reports whether an op of kind k advances the query
// coordinate.
func ConsumesQuery(k Kind) bool {
	switch k {
	case Match, Mismatch, AlnMatch, Insertion:
		return true
	}
	return false
}

// Parse decodes a CIGAR string of the form "(uint op)+", e.g. "4=1I1=".
// An empty string yields an empty, non-nil Ops.
func Parse(s string) (Ops, error) {
	ops := make(Ops, 0, len(s)/2+1)
	i := 0
	n := len(s)
	for i < n {
		start := i
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return nil, errors.Errorf("cigar: expected a length at offset %d in %q", start, s)
		}
		length, err := strconv.Atoi(s[start:i])
		if err != nil {
			return nil, errors.Wrapf(err, "cigar: invalid length in %q", s)
		}
		if length <= 0 {
			return nil, errors.Errorf("cigar: non-positive length %d in %q", length, s)
		}
		if i == n {
			return nil, errors.Errorf("cigar: length %d at end of %q has no operator", length, s)
		}
		k := Kind(s[i])
		if !isValidKind(k) {
			return nil, errors.Errorf("cigar: unknown operator %q in %q", s[i], s)
		}
		i++
		ops = append(ops, Op{Kind: k, Len: length})
	}
	return ops, nil
}

// TargetSpan returns the number of target-consuming bases in ops.
func (ops Ops) TargetSpan() int {
	n := 0
	for _, o := range ops {
		if ConsumesTarget(o.Kind) {
			n += o.Len
		}
	}
	return n
}

// QuerySpan returns the number of query-consuming bases in ops.
func (ops Ops) QuerySpan() int {
	n := 0
	for _, o := range ops {
		if ConsumesQuery(o.Kind) {
			n += o.Len
		}
	}
	return n
}

// Cursor walks a CIGAR operation stream, maintaining the running target and
// query offsets. It is the shared primitive used by the conversion kernel
// and the variant caller (spec §4.2).
type Cursor struct {
	TPos, QPos int
}

// NewCursor returns a Cursor initialized at (tStart, qStart).
func NewCursor(tStart, qStart int) *Cursor {
	return &Cursor{TPos: tStart, QPos: qStart}
}

// Advance moves the cursor past a single op and returns the (tBegin, qBegin)
// position the op started at, i.e. the position before advancing.
func (c *Cursor) Advance(o Op) (tBegin, qBegin int) {
	tBegin, qBegin = c.TPos, c.QPos
	if ConsumesTarget(o.Kind) {
		c.TPos += o.Len
	}
	if ConsumesQuery(o.Kind) {
		c.QPos += o.Len
	}
	return
}

// Renormalize collapses runs of Match/Mismatch into AlnMatch ('M'), and
// merges adjacent runs of the same resulting kind. This is the inverse
// direction used by the round-trip law in spec §8 (PAF→CHAIN→PAF must
// reproduce "an equivalent CIGAR after run-length renormalization =/X→M if
// the original used M").
func Renormalize(ops Ops) Ops {
	out := make(Ops, 0, len(ops))
	for _, o := range ops {
		k := o.Kind
		if k == Match || k == Mismatch {
			k = AlnMatch
		}
		if n := len(out); n > 0 && out[n-1].Kind == k {
			out[n-1].Len += o.Len
			continue
		}
		out = append(out, Op{Kind: k, Len: o.Len})
	}
	return out
}

// Validate checks that every op has a positive length and a recognized kind.
// Parse already guarantees this for parsed input; Validate is useful for
// CIGARs built programmatically by converters.
func Validate(ops Ops) error {
	for i, o := range ops {
		if o.Len <= 0 {
			return fmt.Errorf("cigar: op %d has non-positive length %d", i, o.Len)
		}
		if !isValidKind(o.Kind) {
			return fmt.Errorf("cigar: op %d has unknown kind %q", i, o.Kind)
		}
	}
	return nil
}
