package align

// MAFSeqLine is one 's' line of a MAF block (spec §3 "MAF Line").
type MAFSeqLine struct {
	Name    string
	Start   int // 0-based; measured from the reverse-complement origin if Strand is Reverse
	Size    int // ungapped length
	Strand  Strand
	SrcSize int // source sequence length
	Seq     string // gapped sequence, retains '-' characters
}

// MAFInfoLine is a typed 'i' line: synteny status of the bases flanking
// this block for the named sequence (SPEC_FULL added feature #1).
type MAFInfoLine struct {
	Name                    string
	LeftStatus, RightStatus byte
	LeftCount, RightCount   int
}

// MAFQualityLine is a typed 'q' line: per-base quality digits for the named
// sequence's 's' line, one per ungapped base.
type MAFQualityLine struct {
	Name    string
	Quality string // one digit (0-9 or 'F') per non-gap column of Seq
}

// MAFEmptyLine is a typed 'e' line: describes a region where the named
// sequence has no alignment in this block but is known to exist elsewhere.
type MAFEmptyLine struct {
	Name    string
	Start   int
	Size    int
	Strand  Strand
	SrcSize int
	Status  byte
}

// MAFBlock is a single alignment block: an optional score, two or more
// sequence lines, and optional typed annotation lines (spec §3 "MAF Block").
type MAFBlock struct {
	Score    *float64
	Lines    []MAFSeqLine
	Info     []MAFInfoLine
	Quality  []MAFQualityLine
	Empty    []MAFEmptyLine
}

// GappedLen returns the common gapped length of the block's sequence lines,
// or 0 if Lines is empty. Callers that need to enforce invariant 2 of spec
// §8 ("all s lines share gapped length") should use CheckGapped.
func (b *MAFBlock) GappedLen() int {
	if len(b.Lines) == 0 {
		return 0
	}
	return len(b.Lines[0].Seq)
}

// CheckGapped validates spec §8 invariant 2: every sequence line has the
// block's common gapped length, and each line's declared Size equals its
// ungapped length.
func (b *MAFBlock) CheckGapped() error {
	want := b.GappedLen()
	for i := range b.Lines {
		l := &b.Lines[i]
		if len(l.Seq) != want {
			return &GappedLenMismatchError{Name: l.Name, Want: want, Got: len(l.Seq)}
		}
		if ungapped := UngappedSize(l.Seq); ungapped != l.Size {
			return &UngappedSizeMismatchError{Name: l.Name, Declared: l.Size, Computed: ungapped}
		}
	}
	return nil
}

// UngappedSize returns the length of seq minus its gap ('-') characters.
func UngappedSize(seq string) int {
	n := 0
	for i := 0; i < len(seq); i++ {
		if seq[i] != '-' {
			n++
		}
	}
	return n
}

// GappedLenMismatchError reports that a MAF block's sequence lines don't
// share a common gapped length.
type GappedLenMismatchError struct {
	Name     string
	Want, Got int
}

func (e *GappedLenMismatchError) Error() string {
	return "maf: sequence " + e.Name + " has gapped length that disagrees with the block"
}

// UngappedSizeMismatchError reports that a MAF 's' line's declared size
// disagrees with its sequence's ungapped length.
type UngappedSizeMismatchError struct {
	Name               string
	Declared, Computed int
}

func (e *UngappedSizeMismatchError) Error() string {
	return "maf: sequence " + e.Name + " declares a size that disagrees with its ungapped sequence length"
}
