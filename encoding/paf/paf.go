// Package paf implements the streaming PAF (pairwise mApping Format) reader
// and writer of spec §4.3.2: 12 mandatory tab-delimited columns followed by
// key-typed tags.
package paf

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/cigar"
	"github.com/aligntool/aligntool/iox"
	"github.com/pkg/errors"
)

// Tag is a single key-typed PAF attribute, e.g. "cg:Z:4=1I1=" decodes to
// Tag{Type: 'Z', Value: "4=1I1="}.
type Tag struct {
	Type  byte
	Value string
}

// Record is a single PAF alignment line (spec §3 "PAF Record").
type Record struct {
	QueryName   string
	QueryLen    int
	QueryStart  int
	QueryEnd    int
	Strand      align.Strand
	TargetName  string
	TargetLen   int
	TargetStart int
	TargetEnd   int
	Matches     int
	BlockLen    int
	MapQ        int
	Tags        map[string]Tag
}

// ErrMissingCigar is returned by ToNormalized when the conversion requires a
// cg:Z CIGAR tag and none is present (spec §4.3.2).
var ErrMissingCigar = errors.New("paf: record has no cg:Z CIGAR tag")

// ErrAmbiguousCigar is returned when a CIGAR uses 'M' exclusively and no
// SequenceFetcher is available to disambiguate match from mismatch (spec §9
// Open Questions).
var ErrAmbiguousCigar = errors.New("paf: CIGAR uses M exclusively; cannot disambiguate without reference bases")

// Cigar returns the parsed cg:Z CIGAR tag, or ErrMissingCigar if absent.
func (r *Record) Cigar() (cigar.Ops, error) {
	tag, ok := r.Tags["cg"]
	if !ok {
		return nil, ErrMissingCigar
	}
	return cigar.Parse(tag.Value)
}

// SetCigar installs ops as the record's cg:Z tag.
func (r *Record) SetCigar(ops cigar.Ops) {
	if r.Tags == nil {
		r.Tags = map[string]Tag{}
	}
	r.Tags["cg"] = Tag{Type: 'Z', Value: ops.String()}
}

// ToNormalized lifts a PAF record to the normalized alignment record (spec
// §4.4). The target is always expressed on '+'; query strand and coordinates
// are carried through as declared by PAF.
func (r *Record) ToNormalized() (*align.Record, error) {
	ops, err := r.Cigar()
	if err != nil {
		return nil, err
	}
	return &align.Record{
		TargetName:  r.TargetName,
		TargetLen:   r.TargetLen,
		TargetStart: r.TargetStart,
		TargetEnd:   r.TargetEnd,
		QueryName:   r.QueryName,
		QueryLen:    r.QueryLen,
		QueryStart:  r.QueryStart,
		QueryEnd:    r.QueryEnd,
		QueryStrand: r.Strand,
		Cigar:       ops,
		Tags:        copyTags(r.Tags),
	}, nil
}

func copyTags(in map[string]Tag) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if k == "cg" {
			continue
		}
		out[k] = v.Value
	}
	return out
}

// FromNormalized lowers a normalized record to PAF, computing Matches and
// BlockLen from the CIGAR and defaulting MapQ to 255 (spec §4.4).
func FromNormalized(r *align.Record) *Record {
	matches, blockLen := matchStats(r.Cigar)
	pr := &Record{
		QueryName:   r.QueryName,
		QueryLen:    r.QueryLen,
		QueryStart:  r.QueryStart,
		QueryEnd:    r.QueryEnd,
		Strand:      r.QueryStrand,
		TargetName:  r.TargetName,
		TargetLen:   r.TargetLen,
		TargetStart: r.TargetStart,
		TargetEnd:   r.TargetEnd,
		Matches:     matches,
		BlockLen:    blockLen,
		MapQ:        255,
	}
	pr.SetCigar(r.Cigar)
	return pr
}

func matchStats(ops cigar.Ops) (matches, blockLen int) {
	for _, o := range ops {
		switch o.Kind {
		case cigar.Match:
			matches += o.Len
			blockLen += o.Len
		case cigar.Mismatch, cigar.AlnMatch, cigar.Insertion, cigar.Deletion:
			blockLen += o.Len
		}
	}
	return
}

// Reader streams PAF records.
type Reader struct {
	src *iox.LineSource
}

// NewReader returns a Reader over src.
func NewReader(src *iox.LineSource) *Reader { return &Reader{src: src} }

// ReadRecord reads the next record, or io.EOF when exhausted.
func (r *Reader) ReadRecord() (*Record, error) {
	line, err := r.src.Next()
	if err != nil {
		return nil, err
	}
	return ParseRecord(line)
}

// ParseRecord parses a single tab-delimited PAF line. A trailing line
// terminator, if present, is ignored.
func ParseRecord(line string) (*Record, error) {
	line = strings.TrimRight(line, "\r\n")
	f := strings.Split(line, "\t")
	if len(f) < 12 {
		return nil, errors.Errorf("paf: want at least 12 columns, got %d: %q", len(f), line)
	}
	atoi := func(s, field string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, errors.Wrapf(err, "paf: bad %s %q", field, s)
		}
		return v, nil
	}
	strand, ok := align.ParseStrand(f[4])
	if !ok {
		return nil, errors.Errorf("paf: bad strand %q", f[4])
	}
	rec := &Record{QueryName: f[0], Strand: strand, TargetName: f[5]}
	var err error
	if rec.QueryLen, err = atoi(f[1], "qLen"); err != nil {
		return nil, err
	}
	if rec.QueryStart, err = atoi(f[2], "qStart"); err != nil {
		return nil, err
	}
	if rec.QueryEnd, err = atoi(f[3], "qEnd"); err != nil {
		return nil, err
	}
	if rec.TargetLen, err = atoi(f[6], "tLen"); err != nil {
		return nil, err
	}
	if rec.TargetStart, err = atoi(f[7], "tStart"); err != nil {
		return nil, err
	}
	if rec.TargetEnd, err = atoi(f[8], "tEnd"); err != nil {
		return nil, err
	}
	if rec.Matches, err = atoi(f[9], "matches"); err != nil {
		return nil, err
	}
	if rec.BlockLen, err = atoi(f[10], "blockLen"); err != nil {
		return nil, err
	}
	if rec.MapQ, err = atoi(f[11], "mapQ"); err != nil {
		return nil, err
	}
	for _, tag := range f[12:] {
		if tag == "" {
			continue
		}
		parts := strings.SplitN(tag, ":", 3)
		if len(parts) != 3 {
			return nil, errors.Errorf("paf: malformed tag %q", tag)
		}
		if rec.Tags == nil {
			rec.Tags = map[string]Tag{}
		}
		rec.Tags[parts[0]] = Tag{Type: parts[1][0], Value: parts[2]}
	}
	return rec, nil
}

// String renders the record as a tab-delimited PAF line.
func (r *Record) String() string {
	var b strings.Builder
	fmtInt := strconv.Itoa
	cols := []string{
		r.QueryName, fmtInt(r.QueryLen), fmtInt(r.QueryStart), fmtInt(r.QueryEnd),
		string(r.Strand),
		r.TargetName, fmtInt(r.TargetLen), fmtInt(r.TargetStart), fmtInt(r.TargetEnd),
		fmtInt(r.Matches), fmtInt(r.BlockLen), fmtInt(r.MapQ),
	}
	b.WriteString(strings.Join(cols, "\t"))
	for _, name := range sortedTagNames(r.Tags) {
		tag := r.Tags[name]
		b.WriteByte('\t')
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteByte(tag.Type)
		b.WriteByte(':')
		b.WriteString(tag.Value)
	}
	return b.String()
}

func sortedTagNames(tags map[string]Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	// cg is conventionally emitted last; everything else sorts lexically for
	// deterministic output.
	sort.Slice(names, func(i, j int) bool { return tagLess(names[i], names[j]) })
	return names
}

func tagLess(a, b string) bool {
	if a == "cg" {
		return false
	}
	if b == "cg" {
		return true
	}
	return a < b
}

// Writer streams PAF records.
type Writer struct {
	sink *iox.Sink
}

// NewWriter returns a Writer over sink.
func NewWriter(sink *iox.Sink) *Writer { return &Writer{sink: sink} }

// WriteRecord writes one PAF line, newline-terminated.
func (w *Writer) WriteRecord(r *Record) error {
	_, err := w.sink.WriteString(r.String() + "\n")
	return err
}
