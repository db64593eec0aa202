package aux

import (
	"strconv"
	"strings"

	farm "github.com/dgryski/go-farm"
	seahash "blainsmith.com/go/seahash"
	"github.com/minio/highwayhash"

	"github.com/aligntool/aligntool/align"
	"github.com/aligntool/aligntool/cigar"
)

// RecordStat is one record's counts (spec §4.8 "Stat": "per-record and
// aggregate counts of matches/mismatches/insertions/deletions, identity,
// total aligned length").
type RecordStat struct {
	Matches, Mismatches  int
	Insertions, Deletions int
	AlignedLength        int // sum of all CIGAR op lengths that consume either sequence
}

// Identity is Matches / (Matches + Mismatches), or 0 when there were no
// aligned columns at all.
func (s RecordStat) Identity() float64 {
	denom := s.Matches + s.Mismatches
	if denom == 0 {
		return 0
	}
	return float64(s.Matches) / float64(denom)
}

// Add folds another RecordStat's counts into s, for aggregate totals.
func (s *RecordStat) Add(o RecordStat) {
	s.Matches += o.Matches
	s.Mismatches += o.Mismatches
	s.Insertions += o.Insertions
	s.Deletions += o.Deletions
	s.AlignedLength += o.AlignedLength
}

// StatRecord computes match/mismatch/indel counts for one normalized
// record's CIGAR against the ungapped target/query bases it spans ('M' ops
// require base comparison exactly as variant.CallRecord does; '=' and 'X'
// are taken at face value without re-checking bases).
func StatRecord(r *align.Record, targetSeq, querySeq string) RecordStat {
	var s RecordStat
	ti, qi := 0, 0
	for _, op := range r.Cigar {
		if cigar.ConsumesTarget(op.Kind) || cigar.ConsumesQuery(op.Kind) {
			s.AlignedLength += op.Len
		}
		switch op.Kind {
		case cigar.Match:
			s.Matches += op.Len
			ti += op.Len
			qi += op.Len
		case cigar.Mismatch:
			s.Mismatches += op.Len
			ti += op.Len
			qi += op.Len
		case cigar.AlnMatch:
			for i := 0; i < op.Len; i++ {
				if equalBase(targetSeq[ti], querySeq[qi]) {
					s.Matches++
				} else {
					s.Mismatches++
				}
				ti++
				qi++
			}
		case cigar.Insertion:
			s.Insertions += op.Len
			qi += op.Len
		case cigar.Deletion, cigar.Skip:
			s.Deletions += op.Len
			ti += op.Len
		}
	}
	return s
}

func equalBase(a, b byte) bool { return upper(a) == upper(b) }

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// ChecksumAlgo selects the hash family used by Checksum (spec §6 `stat
// --checksum`). farm.Hash64 is the default, matching the teacher's default
// in cmd/bio-pamtool/checksum.go; seahash and highwayhash are offered as
// alternatives since both are already part of the teacher's dependency
// surface (encoding/bamprovider's concurrentMap, fusion/postprocess.go).
type ChecksumAlgo int

const (
	ChecksumFarm ChecksumAlgo = iota
	ChecksumSeahash
	ChecksumHighwayHash
)

var highwayKey [highwayhash.Size]byte

// Checksum hashes a record's CIGAR string plus its target/query sequence
// names and coordinates (spec §10 item 5: "adapted to hash CIGAR +
// coordinates + sequence names per record").
func Checksum(algo ChecksumAlgo, r *align.Record) uint64 {
	var b strings.Builder
	b.WriteString(r.TargetName)
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.TargetStart))
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.TargetEnd))
	b.WriteByte('\t')
	b.WriteString(r.QueryName)
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.QueryStart))
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.QueryEnd))
	b.WriteByte('\t')
	b.WriteString(r.Cigar.String())
	data := []byte(b.String())

	switch algo {
	case ChecksumSeahash:
		return seahash.Sum64(data)
	case ChecksumHighwayHash:
		sum := highwayhash.Sum(data, highwayKey[:])
		return farm.Hash64(sum[:]) // fold the 256-bit digest down to 64 bits, matching the uint64 checksum columns elsewhere
	default:
		return farm.Hash64(data)
	}
}
